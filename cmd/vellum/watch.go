package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/vellum"
)

// watchOptions opens the store without the ownership lock: a watcher only
// reads through filesystem notifications, and other vellum processes must
// keep writing while it runs.
var watchOptions = []vellum.Option{vellum.WithExclusiveLock(false)}

var watchCmd = &cobra.Command{
	Use:   "watch [namespace]",
	Short: "Print document changes in a namespace until interrupted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		withStore("Error watching namespace", func(store *vellum.Store) error {
			events, err := store.Watch(ctx, args[0])
			if err != nil {
				return err
			}

			source := vellum.NewEventSource(events)
			if err := source.Start(ctx); err != nil {
				return err
			}
			slog.Info("watching", "namespace", args[0], "root", store.Root())

			for e := range source.Events() {
				if ev, ok := e.(vellum.Event); ok && format == "json" {
					if err := printOut(ev); err != nil {
						return err
					}
					continue
				}
				fmt.Println(e)
			}
			return nil
		}, watchOptions...)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
