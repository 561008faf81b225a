package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vellum"
	"github.com/aretw0/vellum/pkg/core"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Create, read and write documents",
}

var docCreateCmd = &cobra.Command{
	Use:   "create [namespace] [name=kind:value...]",
	Short: "Create a document and print its id",
	Long: `Create a document in a namespace and print its id. Optional field
assignments are written immediately, e.g. age=integer:42.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var fields map[string]core.Value
		if len(args) > 1 {
			var err error
			if fields, err = parseAssignments(args[1:]); err != nil {
				fatal("Error parsing fields", err)
			}
		}

		withStore("Error creating document", func(store *vellum.Store) error {
			ns, err := store.Get(args[0])
			if err != nil {
				return err
			}
			doc, err := ns.Create()
			if err != nil {
				return err
			}
			defer doc.Release()

			if fields != nil {
				if err := doc.WriteFields(fields); err != nil {
					return err
				}
			}
			fmt.Println(doc.ID())
			return nil
		})
	},
}

var docReadCmd = &cobra.Command{
	Use:   "read [namespace] [id] [field...]",
	Short: "Print a document, or selected fields of it",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error reading document", func(store *vellum.Store) error {
			return withDocument(store, args[0], args[1], func(doc *vellum.Document) error {
				if len(args) == 2 {
					snap, err := doc.Snapshot()
					if err != nil {
						return err
					}
					return printOut(snap)
				}

				out := make(map[string]*core.FieldSnapshot, len(args)-2)
				for _, name := range args[2:] {
					v, err := doc.ReadField(name)
					if err != nil {
						return err
					}
					if v == nil {
						out[name] = nil
						continue
					}
					out[name] = &core.FieldSnapshot{Kind: v.Kind(), Value: v.Get()}
				}
				return printOut(out)
			})
		})
	},
}

var docWriteCmd = &cobra.Command{
	Use:   "write [namespace] [id] name=kind:value...",
	Short: "Write fields to a document",
	Long: `Write one or more fields. Kinds are string, integer, double and date;
a value without a kind is a string. Dates use RFC 3339.

  vellum doc write people 7Hq2... name=alice age=integer:42`,
	Args: cobra.MinimumNArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		fields, err := parseAssignments(args[2:])
		if err != nil {
			fatal("Error parsing fields", err)
		}

		withStore("Error writing document", func(store *vellum.Store) error {
			return withDocument(store, args[0], args[1], func(doc *vellum.Document) error {
				if err := doc.WriteFields(fields); err != nil {
					return err
				}
				info, err := doc.Info()
				if err != nil {
					return err
				}
				return printOut(info)
			})
		})
	},
}

var docKeysCmd = &cobra.Command{
	Use:   "keys [namespace] [id]",
	Short: "List the field names of a document",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error reading document", func(store *vellum.Store) error {
			return withDocument(store, args[0], args[1], func(doc *vellum.Document) error {
				keys, err := doc.Keys()
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Println(k)
				}
				return nil
			})
		})
	},
}

var docInfoCmd = &cobra.Command{
	Use:   "info [namespace] [id]",
	Short: "Print a document's version, timestamps and path",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error reading document", func(store *vellum.Store) error {
			return withDocument(store, args[0], args[1], func(doc *vellum.Document) error {
				info, err := doc.Info()
				if err != nil {
					return err
				}
				return printOut(info)
			})
		})
	},
}

var docIDsCmd = &cobra.Command{
	Use:   "ids [namespace]",
	Short: "List document ids in a namespace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore("Error listing documents", func(store *vellum.Store) error {
			ns, err := store.Get(args[0])
			if err != nil {
				return err
			}
			ids, err := ns.IDs()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		})
	},
}

func withDocument(store *vellum.Store, namespace, id string, fn func(doc *vellum.Document) error) error {
	ns, err := store.Get(namespace)
	if err != nil {
		return err
	}
	doc, err := ns.Get(id)
	if err != nil {
		return err
	}
	defer doc.Release()
	return fn(doc)
}

func init() {
	docCmd.AddCommand(docCreateCmd, docReadCmd, docWriteCmd, docKeysCmd, docInfoCmd, docIDsCmd)
	rootCmd.AddCommand(docCmd)
}
