package database

import (
	"context"
	"fmt"
	"log/slog"

	"threads/internal/middleware"

	"gorm.io/gorm"
)

// ApplySchema creates or updates the tables for every persistent model.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.String("dialect", db.Dialector.Name()))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SchemaStatus reports which persistent tables exist.
type SchemaStatus struct {
	Dialect string
	Tables  map[string]bool
}

// GetSchemaStatus inspects the connected database for the persistent tables.
func GetSchemaStatus(ctx context.Context, db *gorm.DB) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Dialect: db.Dialector.Name(),
		Tables:  make(map[string]bool),
	}
	migrator := db.WithContext(ctx).Migrator()
	for _, model := range PersistentModels() {
		named, ok := model.(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %T has no table name", model)
		}
		status.Tables[named.TableName()] = migrator.HasTable(model)
	}
	return status, nil
}
