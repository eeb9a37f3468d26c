package main

import (
	"fmt"
	"os"

	"copyforge/config"
	"copyforge/internal/database"
	"copyforge/internal/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "copyforge",
	Short:         "CopyForge notification backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win.
		_ = godotenv.Load()
		if configPath != "" {
			return os.Setenv("COPYFORGE_CONFIG", configPath)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: COPYFORGE_CONFIG)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and opens the database.
func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.Server.Env)
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	return cfg, log, db, nil
}
