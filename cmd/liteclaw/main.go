package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rcourtman/liteclaw/internal/api"
	"github.com/rcourtman/liteclaw/internal/approval"
	"github.com/rcourtman/liteclaw/internal/config"
	"github.com/rcourtman/liteclaw/internal/logging"
	"github.com/rcourtman/liteclaw/internal/models"
	"github.com/rcourtman/liteclaw/internal/planstore"
	"github.com/rcourtman/liteclaw/internal/tracestore"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "liteclaw",
	Short:   "liteclaw - plan/approve/execute agent backend",
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "liteclaw %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Fprintf(out, "Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Fprintf(out, "Commit: %s\n", GitCommit)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() {
	env := config.LoadEnv()

	logFile, err := logging.Setup(env.DataDir, os.Getenv("LITECLAW_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log.Info().Str("data_dir", env.DataDir).Str("port", env.Port).Msg("starting liteclaw backend")

	cfgStore, err := config.NewStore(env.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	defer cfgStore.Close()

	modelsStore, err := models.NewStore(env.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model registry")
	}

	traces, err := tracestore.NewStore(env.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize task store")
	}

	server := &api.Server{
		AuthToken: env.AuthToken,
		Version:   Version,
		DataDir:   env.DataDir,
		LogPath:   logging.BackendLogPath(env.DataDir),
		Config:    cfgStore,
		Models:    modelsStore,
		Approvals: approval.NewStore(),
		Traces:    traces,
		Plans:     planstore.NewStore(),
	}

	httpServer := &http.Server{
		Addr:         "127.0.0.1:" + env.Port,
		Handler:      api.NewServer(server),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
