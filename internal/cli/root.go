package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/companion/internal/config"
	"github.com/lazypower/companion/internal/logging"
	"github.com/lazypower/companion/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "Personal assistant backend for older adults",
	Long: "Companion answers questions with the user's profile, recent memories, chat history " +
		"and upcoming reminders in mind, and learns from every conversation.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.companion/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(gameCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(userCmd)
}

// loadConfig reads the config named by --config, or the default file.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}

// setup loads config, builds the root logger and opens the database.
func setup() (config.Config, *log.Logger, *store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging)

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, logger, db, nil
}
