package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vellum"
)

var nsCmd = &cobra.Command{
	Use:   "ns",
	Short: "Manage namespaces",
}

var nsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a namespace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error creating namespace", func(store *vellum.Store) error {
			ns, err := store.Create(args[0])
			if err != nil {
				return err
			}
			fmt.Println(ns.Name())
			return nil
		}, vellum.WithAutoInit(true))
	},
}

var nsListCmd = &cobra.Command{
	Use:   "list [glob]",
	Short: "List namespaces, optionally filtered by a glob pattern",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error listing namespaces", func(store *vellum.Store) error {
			namespaces := store.List()
			if len(args) == 1 {
				var err error
				if namespaces, err = store.Match(args[0]); err != nil {
					return err
				}
			}
			for _, ns := range namespaces {
				fmt.Println(ns.Name())
			}
			return nil
		})
	},
}

var nsDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete an empty namespace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error deleting namespace", func(store *vellum.Store) error {
			return store.Delete(args[0])
		})
	},
}

func init() {
	nsCmd.AddCommand(nsCreateCmd, nsListCmd, nsDeleteCmd)
	rootCmd.AddCommand(nsCmd)
}
