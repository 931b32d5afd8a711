package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/heartbeat/internal/config"
	"github.com/TobiSchelling/heartbeat/internal/database"
	"github.com/TobiSchelling/heartbeat/internal/feed"
	"github.com/TobiSchelling/heartbeat/internal/logger"
	"github.com/TobiSchelling/heartbeat/internal/pipeline"
	"github.com/TobiSchelling/heartbeat/internal/schedule"
	"github.com/TobiSchelling/heartbeat/internal/server"
	"github.com/TobiSchelling/heartbeat/internal/transmit"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	log        *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "heartbeat",
	Short:        "Heart disease insights pipeline",
	Long:         "heartbeat analyses a heart disease dataset and delivers the resulting insights to an analytics endpoint.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var (
			path string
			err  error
		)
		cfg, path, err = config.Resolve(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log, err = logger.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		if path != "" {
			log.Debug("config loaded", zap.String("path", path))
		} else {
			log.Debug("no config file found, using defaults")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(feedCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("heartbeat", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/heartbeat/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set ADMIN_TOKEN in the environment before running the pipeline.")
		return nil
	},
}

// --- run command ---

var (
	dryRun   bool
	dataPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once: load -> analyse -> predict -> transmit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dataPath != "" {
			cfg.Data.Path = dataPath
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if dryRun {
			pipe := pipeline.New(cfg, nil, log)
			result, err := pipe.Generate(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(result.Insights, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding insights: %w", err)
			}
			fmt.Println(string(out))
			printSteps(result)
			return nil
		}

		sender := transmit.NewSender(cfg.Transmit.Endpoint, cfg.Transmit.Token,
			cfg.Transmit.Timeout, cfg.Transmit.Delay, log)
		pipe := pipeline.New(cfg, sender, log)
		result, err := pipe.Run(ctx)
		if err != nil {
			return err
		}
		printSteps(result)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the generated insights instead of sending them")
	runCmd.Flags().StringVar(&dataPath, "data", "", "Override the dataset path")
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
	fmt.Printf("\n%d insights generated, %d step(s) failed.\n", len(result.Insights), len(result.Failed()))
}

// --- schedule command ---

var cronSpec string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := cfg.Schedule.Cron
		if cronSpec != "" {
			spec = cronSpec
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sender := transmit.NewSender(cfg.Transmit.Endpoint, cfg.Transmit.Token,
			cfg.Transmit.Timeout, cfg.Transmit.Delay, log)
		pipe := pipeline.New(cfg, sender, log)

		// Ticks that arrive while a run is in progress are skipped.
		runner := schedule.New(ctx, log)
		if _, err := runner.Add(spec, func(ctx context.Context) {
			result, err := pipe.Run(ctx)
			if err != nil {
				log.Error("scheduled run failed", zap.Error(err))
				return
			}
			log.Info("scheduled run complete",
				zap.Int("insights", len(result.Insights)),
				zap.Int("failed_steps", len(result.Failed())),
			)
		}); err != nil {
			return err
		}

		log.Info("scheduler running", zap.String("cron", spec))
		runner.Run(ctx)
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "", "Cron spec with seconds field (default from config)")
}

// --- serve command ---

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local insights receiver",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Transmit.Token == "" {
			log.Warn("ADMIN_TOKEN not set, accepting any bearer token")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting receiver at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, db, addr, cfg.Transmit.Token, log)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Address to listen on (default from config)")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the receiver has stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		runs, err := db.ListRuns(5)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Insights:")
		fmt.Printf("  Total received: %d\n", stats.Total)
		fmt.Printf("  Runs: %d\n", stats.Runs)
		for cat, n := range stats.ByCategory {
			fmt.Printf("  %s: %d\n", cat, n)
		}
		if len(runs) > 0 {
			fmt.Println("\nRecent runs:")
			for _, r := range runs {
				fmt.Printf("  %s  %d insights  %s\n", r.RunID, r.Count, database.FormatReceived(r.ReceivedAt))
			}
		}
		return nil
	},
}

// --- feed command ---

var (
	feedURL   string
	feedLimit int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List recent insights from a receiver's RSS feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		u := feedURL
		if u == "" {
			u = "http://" + cfg.Server.Addr + "/feed.rss"
		}
		entries, err := feed.Fetch(cmd.Context(), u, feedLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No insights in feed.")
			return nil
		}
		for _, e := range entries {
			date := ""
			if !e.Published.IsZero() {
				date = e.Published.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("[%s] %-14s %s\n", date, e.Category, e.Title)
			fmt.Printf("    %s\n", e.Link)
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().StringVar(&feedURL, "url", "", "Feed URL (default: the configured receiver)")
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", 20, "Maximum entries to show")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "heartbeat.db")
	return database.Open(dbPath, log)
}
