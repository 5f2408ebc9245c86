package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/playlister/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("Set auth.jwt_secret before running 'playlister serve'.\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations, creating the config file
// from the template first when it does not exist.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database.Path, config.Database.BusyTimeoutMS)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// DBRollback undoes the most recently applied migration.
func (r *Runner) DBRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database.Path, config.Database.BusyTimeoutMS)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	r.logger.Info("rolled back latest migration", "database", config.Database.Path)
	return nil
}

type migrationRow struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// DBStatus lists the embedded migrations with their applied state.
func (r *Runner) DBStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database.Path, config.Database.BusyTimeoutMS)
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := shared.MigrationStatuses(ctx, db)
	if err != nil {
		return err
	}

	rows := make([]migrationRow, len(statuses))
	for i, s := range statuses {
		rows[i] = migrationRow{Version: s.Version, Name: s.Name, Applied: s.Applied}
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, true)
	}

	r.writePlainHeader("Migrations")
	for _, row := range rows {
		mark := " "
		if row.Applied {
			mark = "✓"
		}
		r.writePlain("[%s] %04d %s\n", mark, row.Version, row.Name)
	}
	return nil
}
