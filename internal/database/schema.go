package database

import (
	"context"
	"fmt"
	"log/slog"

	"bulletin/internal/config"
	"bulletin/internal/middleware"

	"gorm.io/gorm"
)

// TableStatus reports whether one managed table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus describes the managed schema as seen by the connected database.
type SchemaStatus struct {
	Driver      string
	Environment string
	Tables      []TableStatus
}

// Pending reports whether any managed table is missing.
func (s *SchemaStatus) Pending() bool {
	for _, t := range s.Tables {
		if !t.Exists {
			return true
		}
	}
	return false
}

// ApplySchema creates or updates every managed table and its indexes,
// including the unique username and (post_id, username) like indexes.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
		slog.String("driver", db.Dialector.Name()), slog.String("env", cfg.Env))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus lists the managed tables and whether each exists.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	migrator := db.WithContext(ctx).Migrator()
	status := &SchemaStatus{Driver: db.Dialector.Name(), Environment: cfg.Env}

	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		status.Tables = append(status.Tables, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: migrator.HasTable(model),
		})
	}
	return status, nil
}
