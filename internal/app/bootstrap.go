// Package app wires configuration into a running store for the binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gearloan-backend/internal/config"
	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/migrations"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/repository/memory"
	"gearloan-backend/internal/repository/postgres"
	"gearloan-backend/internal/security"
)

// OpenDB connects to PostgreSQL using the database section of cfg
func OpenDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")
	return db, nil
}

// OpenStore returns the configured store, applying migrations first when
// auto_migrate is set
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		db, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrations.Up(db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
}

// EnsureAdmin creates an admin account, or promotes the existing account with
// that email. The password of an existing account is left unchanged.
func EnsureAdmin(ctx context.Context, store repository.Store, name, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("admin email is required")
	}

	var out *domain.User
	err := store.WithTx(ctx, func(repos repository.Repositories) error {
		existing, err := repos.Users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if existing.Role != domain.UserRoleAdmin {
				if err := repos.Users.UpdateRole(ctx, existing.ID, domain.UserRoleAdmin); err != nil {
					return err
				}
				existing.Role = domain.UserRoleAdmin
			}
			out = existing
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		hash, err := security.HashPassword(password)
		if err != nil {
			return err
		}
		if strings.TrimSpace(name) == "" {
			name = "Administrator"
		}
		u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: domain.UserRoleAdmin}
		if err := repos.Users.Create(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ensure admin %s: %w", email, err)
	}
	logger.Info("Admin account ready", "user_id", out.ID, "email", out.Email)
	return out, nil
}
