// Package bootstrap opens the process-wide runtime dependencies shared by
// the server and the command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goodabcdef/instagram-project/internal/auth"
	"github.com/goodabcdef/instagram-project/internal/cache"
	"github.com/goodabcdef/instagram-project/internal/config"
	"github.com/goodabcdef/instagram-project/internal/database"
	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/validation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultDevAdminEmail = "admin@instagram.local"

// InitRuntime connects to the database, applies the schema policy and
// opens Redis. A nil Redis client is returned when Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(db, cfg); err != nil {
		return nil, nil, fmt.Errorf("schema setup failed: %w", err)
	}

	r := cache.Open(context.Background(), cfg.RedisURL)

	if err := EnsureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, r, nil
}

// EnsureDevAdmin upserts an administrator account keyed by email. It only
// runs in development with DEV_BOOTSTRAP_ADMIN enabled.
func EnsureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if cfg.Env != "development" || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := validation.NormalizeEmail(cfg.DevAdminEmail)
	if email == "" {
		email = defaultDevAdminEmail
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	digest, err := auth.NewHasher(0).Hash(cfg.DevAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Email:    email,
				Password: &digest,
				Nickname: "admin",
				IsAdmin:  true,
				Provider: models.ProviderLocal,
			}
			return tx.Omit("Posts").Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", admin.ID).
				Updates(map[string]any{"is_admin": true, "password": digest}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("email", email))
	return nil
}
