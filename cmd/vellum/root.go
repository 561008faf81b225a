package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/vellum"
	"github.com/aretw0/vellum/pkg/adapters/fs"
)

var (
	verbose    bool
	rootDir    string
	configFile string
	format     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "An embedded, file-system-backed document store",
	Long: `Vellum stores typed documents as durable JSON files, sharded by id
under one directory per namespace.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if cfg, err := vellum.LoadConfig(configFile); err == nil {
			if l, err := cfg.Level(); err == nil {
				level = l
			}
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Store root (default: $VELLUM_ROOT, config, or nearest .vellum above the working directory)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "yaml", "Output format: json or yaml")
}

// openStore resolves the root and opens the store. Root precedence: the
// --root flag, then VELLUM_ROOT or the config file, then the nearest
// directory holding .vellum above the working directory.
func openStore(extra ...vellum.Option) *vellum.Store {
	cfg, err := vellum.LoadConfig(configFile)
	if err != nil {
		fatal("Error loading config", err)
	}

	root := rootDir
	if root == "" {
		root = cfg.Root
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			fatal("Error getting working directory", err)
		}
		root, err = vellum.FindRoot(wd)
		if err != nil {
			fatal("Error locating store root (use --root)", err)
		}
	}

	opts := append(cfg.Options(), vellum.WithLogger(slog.Default()))
	opts = append(opts, extra...)
	store, err := vellum.Open(root, opts...)
	if err != nil {
		fatal("Error opening store", err)
	}
	return store
}

// withStore opens the store, runs fn and always closes the store before
// reporting an error, so a failed command never leaves the root locked.
func withStore(msg string, fn func(store *vellum.Store) error, extra ...vellum.Option) {
	store := openStore(extra...)
	err := fn(store)
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fatal(msg, err)
	}
}

// printOut renders v in the selected --format to stdout.
func printOut(v any) error {
	s, err := fs.SerializerFor(format)
	if err != nil {
		return err
	}
	data, err := s.Serialize(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
