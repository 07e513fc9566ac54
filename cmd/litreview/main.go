package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/config"
	"github.com/TobiSchelling/LitReview/internal/database"
	"github.com/TobiSchelling/LitReview/internal/logger"
	"github.com/TobiSchelling/LitReview/internal/references"
	"github.com/TobiSchelling/LitReview/internal/review"
	"github.com/TobiSchelling/LitReview/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	styleName  string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "litreview",
	Short:        "AI-assisted literature reviews",
	Long:         "litreview searches a paper collection, answers questions about it, and drafts, refines and exports literature reviews.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case err == nil:
			cfg, err = config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		case configPath == "":
			// No config file anywhere: built-in defaults plus environment.
			cfg = config.Default()
		default:
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		return logger.Configure(level, cfg.Logging.File)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&styleName, "style", "auto", "Markdown style: auto, dark, light, notty")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("litreview", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/litreview/",
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
		fmt.Println("Edit it to point backend.base_url at your review server.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend, storage and session status",
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

		ctx, stop := signalContext()
		defer stop()

		fmt.Printf("Backend: %s\n", cfg.Backend.BaseURL)
		if err := newClient().Health(ctx); err != nil {
			fmt.Printf("  Unreachable: %s\n", backend.Describe(err))
		} else {
			fmt.Println("  OK")
		}

		reviews := newReviews(db)
		fmt.Printf("\nStorage: %s\n", db.Path())
		fmt.Printf("  Stored values: %d\n", stats.TotalEntries)
		fmt.Printf("  Saved reviews: %d/%d\n", len(reviews.History()), review.MaxHistory)
		fmt.Printf("  Sessions: %d\n", stats.SessionScopes)
		fmt.Printf("\nSession: %s\n", cfg.GetSessionID())
		if d := reviews.Draft(); d.Topic != "" {
			fmt.Printf("  Working draft: %s (%d chapters, %d papers)\n", d.Topic, len(reviews.Chapters()), len(d.PaperIDs))
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the working draft and history in a browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(newReviews(db), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8090, "Port to run server on")
}

// --- session command ---

var pruneAge time.Duration

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage per-terminal sessions",
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete chat transcripts and working drafts of old sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.PruneSessions(pruneAge)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d stale session(s).\n", n)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List what the current session has stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id := cfg.GetSessionID()
		entries, err := db.GetScopeEntries(database.SessionScope(id))
		if err != nil {
			return err
		}
		fmt.Printf("Session: %s\n", id)
		if len(entries) == 0 {
			fmt.Println("  Nothing stored yet.")
			return nil
		}
		for _, e := range entries {
			updated := ""
			if e.UpdatedAt != nil {
				updated = *e.UpdatedAt
			}
			fmt.Printf("  %-14s %6d bytes  %s\n", e.Key, len(e.Value), updated)
		}
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionPruneCmd.Flags().DurationVar(&pruneAge, "older-than", 30*24*time.Hour, "Remove sessions untouched for this long")
	sessionCmd.AddCommand(sessionPruneCmd)
}

func openDB() (*database.DB, error) {
	db, err := database.OpenDir(cfg.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	return db, nil
}

func newClient() *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Timeouts, nil)
}

func newReviews(db *database.DB) *review.Controller {
	client := newClient()
	return review.New(client, review.Options{
		Durable:  db.Scope(database.DurableScope),
		Session:  db.Scope(database.SessionScope(cfg.GetSessionID())),
		Resolver: references.NewResolver(client),
		Sink:     review.FileSink{Dir: cfg.GetExportDir()},
	})
}

// signalContext is cancelled when the user interrupts the process.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func optionalYear(flag string, v int, cmd *cobra.Command) *int {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}
