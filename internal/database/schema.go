package database

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/config"
	"github.com/goodabcdef/instagram-project/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

var protectedEnvs = []string{"production", "prod", "staging", "stage"}

// SchemaPlan says which schema steps run at startup.
type SchemaPlan struct {
	Mode string
	Env  string
	// SQL runs the embedded golang-migrate files.
	SQL bool
	// Auto runs GORM AutoMigrate after SQL. It is never planned for
	// production or staging.
	Auto bool
}

// SchemaStatus is a SchemaPlan plus the current migration version.
type SchemaStatus struct {
	SchemaPlan
	Version uint
	Dirty   bool
}

// PlanSchema resolves DB_SCHEMA_MODE against APP_ENV. Mode "auto" in a
// protected environment is rejected outright instead of silently
// downgraded.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{
		Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Env:  cfg.Env,
	}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	protected := slices.Contains(protectedEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.Auto = true, !protected
	case SchemaModeAuto:
		if protected {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed when APP_ENV=%s", cfg.Env)
		}
		plan.Auto = true
	default:
		return plan, fmt.Errorf("unknown DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates tables for PersistentModels.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema executes the steps PlanSchema selects.
func ApplySchema(db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(MigrationURL(cfg)); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.Auto {
		return nil
	}

	middleware.Logger.Info("auto-migrating models",
		slog.String("mode", plan.Mode), slog.String("env", plan.Env), slog.Int("models", len(PersistentModels())))
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan and, when SQL migrations are part of
// it, the recorded migration version.
func GetSchemaStatus(cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if plan.SQL {
		if status.Version, status.Dirty, err = MigrationVersion(MigrationURL(cfg)); err != nil {
			return nil, err
		}
	}
	return status, nil
}
