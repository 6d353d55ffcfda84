package service

import (
	"errors"
	"fmt"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository"
)

func requireAdmin(caller domain.Caller) error {
	if !caller.IsAdmin() {
		return domain.Forbidden("admin role required")
	}
	return nil
}

// notFoundAs maps repository.ErrNotFound to a typed NOT_FOUND for the named
// entity; other errors are wrapped with the entity as context.
func notFoundAs(err error, entity string, args ...any) error {
	if err == nil {
		return nil
	}
	name := fmt.Sprintf(entity, args...)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound("%s not found", name)
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", name, err)
}
