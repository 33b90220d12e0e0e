package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mozilla-services/syncstorage-go/pkg/config"
	"github.com/mozilla-services/syncstorage-go/pkg/log"
	"github.com/mozilla-services/syncstorage-go/pkg/metrics"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/boltdb"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "syncstored",
	Short:   "syncstored - Firefox Sync storage engine",
	Long:    `syncstored is a standalone storage backend for the Firefox Sync protocol: user collections of opaque, versioned Basic Storage Objects, served from an embedded, transactional store.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"syncstored version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to a syncstored.yaml configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the syncstored storage engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		pool, err := boltdb.Open(cfg.BoltConfig())
		if err != nil {
			return fmt.Errorf("open storage backend: %w", err)
		}
		defer pool.Close()

		log.WithComponent("syncstored").Info().
			Str("data_dir", cfg.DataDir).
			Str("listen_addr", cfg.ListenAddr).
			Msg("storage backend ready")

		if cfg.MetricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				log.WithComponent("syncstored").Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
				if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
					log.Errorf("metrics server: %v", err)
				}
			}()
		}

		// The HTTP transport that would route requests into
		// pkg/syncstorage/adapters is out of scope (spec.md §1); serve
		// keeps the backend open and the metrics endpoint live so the
		// storage engine itself can be exercised and probed.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down")
		return nil
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate a syncstored configuration file without starting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("config ok: data_dir=%s pool_max_size=%d quota_enabled=%v\n",
			cfg.DataDir, cfg.PoolMaxSize, cfg.QuotaEnabled)
		return nil
	},
}
