package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/GunarsK-portfolio/user-service/internal/models"
	"github.com/GunarsK-portfolio/user-service/internal/repository"
)

// UpdateUserInput carries the optional profile fields of an update.
// Nil fields are left unchanged.
type UpdateUserInput struct {
	Name        *string
	Email       *string
	PushToken   *string
	Preferences *models.Preferences
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users []models.PublicUser
	Meta  models.PaginationMeta
}

// UserService manages user records after registration.
type UserService interface {
	List(ctx context.Context, page, limit int) (*UserPage, error)
	Get(ctx context.Context, id string) (*models.PublicUser, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*models.PublicUser, error)
	UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) (*models.PublicUser, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	userRepo           repository.UserRepository
	emailCaseSensitive bool
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo repository.UserRepository, emailCaseSensitive bool) UserService {
	return &userService{userRepo: userRepo, emailCaseSensitive: emailCaseSensitive}
}

func (s *userService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	page, limit = models.NormalizePage(page, limit)

	users, total, err := s.userRepo.List(ctx, models.Offset(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return &UserPage{
		Users: models.ToPublicList(users),
		Meta:  models.NewPaginationMeta(total, page, limit),
	}, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.ToPublic()
	return &public, nil
}

func (s *userService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.PublicUser, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = NormalizeEmail(*input.Email, s.emailCaseSensitive)
	}
	if input.PushToken != nil {
		user.PushToken = input.PushToken
	}
	if input.Preferences != nil {
		user.Preferences = *input.Preferences
	}

	return s.save(ctx, user)
}

func (s *userService) UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) (*models.PublicUser, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Preferences = prefs
	return s.save(ctx, user)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *userService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *models.User) (*models.PublicUser, error) {
	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	public := user.ToPublic()
	return &public, nil
}
