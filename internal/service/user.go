package service

import (
	"context"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"

	"github.com/google/uuid"
)

type userService struct {
	store repository.Store
}

func NewUserService(store repository.Store) UserService {
	return &userService{store: store}
}

func (s *userService) ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.store.Repos().Users.List(ctx)
}

func (s *userService) UpdateUserRole(ctx context.Context, caller domain.Caller, userID uuid.UUID, role string) (*domain.User, error) {
	logger.EnterMethod("userService.UpdateUserRole", "userID", userID, "role", role)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if userID == caller.UserID {
		return nil, domain.Forbidden("admins cannot change their own role")
	}
	r, err := domain.ParseUserRole(role)
	if err != nil {
		return nil, domain.BadRequest("%v", err)
	}

	var out *domain.User
	err = s.store.WithTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Users.UpdateRole(ctx, userID, r); err != nil {
			return notFoundAs(err, "user %s", userID)
		}
		u, err := repos.Users.GetByID(ctx, userID)
		out = u
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("userService.UpdateUserRole", err, "userID", userID)
		return nil, err
	}

	logger.Info("user role changed", "user_id", userID, "role", r, "actor", caller.UserID)
	logger.ExitMethod("userService.UpdateUserRole", "userID", userID)
	return out, nil
}

// DeleteUser removes a user and their finished bookings. Users with open
// bookings must have them resolved first.
func (s *userService) DeleteUser(ctx context.Context, caller domain.Caller, userID uuid.UUID) error {
	logger.EnterMethod("userService.DeleteUser", "userID", userID)

	if err := requireAdmin(caller); err != nil {
		return err
	}
	if userID == caller.UserID {
		return domain.Forbidden("admins cannot delete themselves")
	}

	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, userID); err != nil {
			return notFoundAs(err, "user %s", userID)
		}
		open, err := repos.Bookings.CountOpenForUser(ctx, userID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.Conflict("user %s still has %d open booking(s)", userID, open)
		}
		return notFoundAs(repos.Users.Delete(ctx, userID), "user %s", userID)
	})
	if err != nil {
		logger.ExitMethodWithError("userService.DeleteUser", err, "userID", userID)
		return err
	}

	logger.Info("user deleted", "user_id", userID, "actor", caller.UserID)
	logger.ExitMethod("userService.DeleteUser", "userID", userID)
	return nil
}
