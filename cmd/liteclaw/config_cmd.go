package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcourtman/liteclaw/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or reload the persisted configuration",
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configReloadCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current AppConfig as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		env := config.LoadEnv()
		store, err := config.NewStore(env.DataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(store.Snapshot())
	},
}

var configReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read config.json from disk and print the result",
	Run: func(cmd *cobra.Command, args []string) {
		env := config.LoadEnv()
		store, err := config.NewStore(env.DataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.Reload(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to reload config: %v\n", err)
			os.Exit(1)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(store.Snapshot())
	},
}
