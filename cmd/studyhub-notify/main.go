package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhle/studyhub-notify/internal/app"
	"github.com/nhle/studyhub-notify/internal/credential"
	"github.com/nhle/studyhub-notify/internal/logging"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/store"
)

type flags struct {
	configPath string
	logFile    string
	account    string
	dbPath     string
}

var (
	opts flags

	rootCmd = &cobra.Command{
		Use:   "studyhub-notify",
		Short: "StudyHub notifications in the terminal",
		Long: `studyhub-notify shows the StudyHub notification feed, grouped by
category, with unread notification and message counts in the header.

STUDYHUB_BASE_URL and STUDYHUB_TOKEN, when both set, sign in without a
stored account. A .env file in the working directory is loaded first.`,
		SilenceUsage: true,
		RunE:         run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "Config file path")
	rootCmd.Flags().StringVar(&opts.logFile, "log-file", "", "Log file path (overrides log.file)")
	rootCmd.Flags().StringVar(&opts.account, "account", "", "Account ID or name to open (overrides default_account)")
	rootCmd.Flags().StringVar(&opts.dbPath, "db", model.DefaultDBPath(), "Account database path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(*cobra.Command, []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}

	closer, err := logging.Init(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer closer.Close()
	log := logging.For("main")

	if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(opts.dbPath)
	if err != nil {
		return fmt.Errorf("opening account database: %w", err)
	}
	defer s.Close()

	creds, err := credential.Open()
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}

	m := app.New(app.Options{
		Store:      s,
		Creds:      creds,
		Config:     *cfg,
		AccountID:  opts.account,
		EnvBaseURL: os.Getenv("STUDYHUB_BASE_URL"),
		EnvToken:   os.Getenv("STUDYHUB_TOKEN"),
	})

	log.Info("starting")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.WithError(err).Error("program exited with error")
		return err
	}
	log.Info("stopped")
	return nil
}
