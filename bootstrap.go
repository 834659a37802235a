package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/config"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
	"github.com/Ariffin97/portal-mpa-sub001/utils"
)

// seedAdmin creates the configured admin account unless its email is
// already registered.
func seedAdmin(ctx context.Context, users repository.UserStore, cfg config.BootstrapConfig, log *zap.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	_, err := users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("bootstrap admin lookup: %w", err)
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin password: %w", err)
	}
	admin := &models.User{
		FullName:     cfg.AdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.InsertUser(ctx, admin); err != nil {
		// Another instance seeded the same account after our lookup.
		if errors.Is(err, repository.ErrDuplicate) {
			log.Debug("bootstrap admin already present", zap.String("email", email))
			return nil
		}
		return fmt.Errorf("bootstrap admin insert: %w", err)
	}
	log.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
