// Package cli implements the chorsync client command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kantorei/chorsync/internal/client/app"
	"github.com/kantorei/chorsync/internal/client/config"
	"github.com/kantorei/chorsync/internal/logging"
)

var (
	cfg         *config.Config
	log         logging.Logger
	application *app.App

	serverURL string
	choirFlag string
	dbFile    string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "chorsync",
	Short: "ChorSync keeps a choir's repertoire and sheet music available offline",
	Long: `ChorSync maintains a local replica of your choir's repertoire,
service plans, attendance and sheet music PDFs, synchronized against the
chorsync server with timestamp delta sync. Everything keeps working without
a network connection.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: teardownApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg = config.LoadConfig()

	if serverURL != "" {
		cfg.ServerAddr = serverURL
	}
	if choirFlag != "" {
		cfg.ChoirID = choirFlag
	}
	if dbFile != "" {
		cfg.DatabaseDSN = dbFile
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log = logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	application, err = app.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	return nil
}

func teardownApp(cmd *cobra.Command, _ []string) error {
	if application == nil {
		return nil
	}
	return application.Close(cmd.Context())
}

// requireChoir returns the choir to operate on, from the flag or the config.
func requireChoir() (string, error) {
	if cfg.ChoirID == "" {
		return "", fmt.Errorf("no choir selected, pass --choir or set choir_id in the config file")
	}
	return cfg.ChoirID, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "base URL of the chorsync server")
	rootCmd.PersistentFlags().StringVar(&choirFlag, "choir", "", "choir id to operate on")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "", "sqlite file of the local replica")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// parsed by the config loader, declared so cobra accepts them
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a JSON config file")
}
