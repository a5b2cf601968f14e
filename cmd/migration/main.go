package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/latoulicious/arise-companion/internal/config"
	"github.com/latoulicious/arise-companion/internal/version"
	"github.com/latoulicious/arise-companion/pkg/auth"
	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/migration"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	dbURL    string
	dbDriver string

	// reset flags
	confirmReset bool

	// create-admin flags
	adminEmail    string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:   "migration",
	Short: "Database operations for the ARISE companion API",
	Long: `Database operations for the ARISE companion API.

Configuration is read like the API server does: config/app.yaml or
config/app.toml, then environment variables (a .env file is loaded first).`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table and index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB, _ *config.Config) error {
			return migration.RunMigration(db)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every managed table, then migrate again",
	Long: `Drop every managed table, then migrate again. All content is lost.

Examples:
  migration reset --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmReset {
			return errors.New("refusing to reset without --yes")
		}
		return withDB(func(db *gorm.DB, _ *config.Config) error {
			if err := migration.Reset(db); err != nil {
				return err
			}
			return migration.RunMigration(db)
		})
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the hand-written listing indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB, _ *config.Config) error {
			return migration.RollbackListingIndexes(db)
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database connectivity and schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB, _ *config.Config) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return runCheck(ctx, cmd, db)
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account.

The password may also be given with the ADMIN_PASSWORD environment variable.

Examples:
  migration create-admin --email admin@example.com --password 's3cr3t-pass'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		return withDB(func(db *gorm.DB, cfg *config.Config) error {
			svc, err := auth.NewService(repository.NewAdminRepository(db), auth.Config{
				Secret: []byte(cfg.Auth.SessionSecret),
			}, logging.Nop())
			if err != nil {
				return err
			}
			admin, err := svc.CreateAdmin(cmd.Context(), adminEmail, password)
			if err != nil {
				return err
			}
			cmd.Printf("Admin %s created (id %s)\n", admin.Email, admin.ID)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver, postgres or sqlite (overrides DATABASE_DRIVER)")

	resetCmd.Flags().BoolVar(&confirmReset, "yes", false, "Confirm that every table may be dropped")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	_ = createAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd, resetCmd, rollbackCmd, checkCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withDB loads the configuration, opens the database and runs fn
func withDB(fn func(db *gorm.DB, cfg *config.Config) error) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	if dbURL != "" {
		os.Setenv("DATABASE_URL", dbURL)
	}
	if dbDriver != "" {
		os.Setenv("DATABASE_DRIVER", dbDriver)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewGormDBFromConfig(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL database: %w", err)
	}
	defer sqlDB.Close()
	log.Println("Connected to database")

	return fn(db, cfg)
}

func runCheck(ctx context.Context, cmd *cobra.Command, db *gorm.DB) error {
	cmd.Println("=== Database Connectivity Check ===")

	report, err := migration.Check(ctx, db)
	if err != nil {
		cmd.Printf("FAIL %v\n", err)
		return err
	}

	cmd.Printf("ok   %s %s\n", report.Dialect, report.Version)
	cmd.Printf("ok   ping %s, simple query %s\n", report.PingLatency, report.QueryLatency)
	cmd.Printf("ok   transactions\n")
	cmd.Printf("     pool: %d open, %d in use, %d idle\n", report.Pool.OpenConnections, report.Pool.InUse, report.Pool.Idle)

	present := report.Tables - len(report.MissingTables)
	if len(report.MissingTables) > 0 {
		cmd.Printf("warn %d/%d tables present, missing (created by migrate): %v\n", present, report.Tables, report.MissingTables)
	} else {
		cmd.Printf("ok   all %d tables present\n", report.Tables)
	}
	if report.QueryLatency > 5*time.Second {
		cmd.Printf("warn query took %s, check network latency\n", report.QueryLatency)
	}
	return nil
}
