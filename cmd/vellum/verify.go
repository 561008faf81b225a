package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/vellum"
)

var verifyWorkers int

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every document file in the store",
	Long: `Verify decodes every document in every namespace and reports files that
are corrupt or unreadable. It exits non-zero when any problem is found.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var extra []vellum.Option
		if verifyWorkers > 0 {
			extra = append(extra, vellum.WithVerifyWorkers(verifyWorkers))
		}

		withStore("Verification failed", func(store *vellum.Store) error {
			report, err := store.Verify(ctx)
			if err != nil {
				return err
			}
			if err := printOut(report); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%d problem(s) found", len(report.Problems))
			}
			return nil
		}, extra...)
	},
}

func init() {
	verifyCmd.Flags().IntVarP(&verifyWorkers, "workers", "w", 0, "Number of parallel workers (default from config)")
	rootCmd.AddCommand(verifyCmd)
}
