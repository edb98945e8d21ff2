// Package service implements credential management, token issuance and
// user management for the user service.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GunarsK-portfolio/user-service/internal/models"
	"github.com/GunarsK-portfolio/user-service/internal/repository"
)

var (
	ErrDuplicateEmail     = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUserNotFound       = errors.New("user not found")
)

// TokenType is the scheme callers present the access token with.
const TokenType = "Bearer"

// dummyPassword is hashed once at startup so that logins for unknown
// emails pay the same bcrypt cost as logins with a wrong password.
const dummyPassword = "user-service-timing-equalizer"

// RegisterInput carries validated registration data.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Preferences models.Preferences
	PushToken   *string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User        models.PublicUser `json:"user"`
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
}

// AuthService orchestrates registration, login and identity resolution.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ResolveIdentity(ctx context.Context, token string) (*models.PublicUser, error)
}

type authService struct {
	userRepo           repository.UserRepository
	hasher             PasswordHasher
	jwtService         JWTService
	emailCaseSensitive bool
	dummyHash          string
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, jwtService JWTService, emailCaseSensitive bool) (AuthService, error) {
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &authService{
		userRepo:           userRepo,
		hasher:             hasher,
		jwtService:         jwtService,
		emailCaseSensitive: emailCaseSensitive,
		dummyHash:          dummyHash,
	}, nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(input.Email, s.emailCaseSensitive)

	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		PushToken:    input.PushToken,
		Preferences:  input.Preferences,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email, s.emailCaseSensitive))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) ResolveIdentity(ctx context.Context, token string) (*models.PublicUser, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	public := user.ToPublic()
	return &public, nil
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:        user.ToPublic(),
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresIn:   int64(s.jwtService.GetExpiry().Seconds()),
	}, nil
}

// NormalizeEmail trims the address and, unless emails are configured as
// case sensitive, lower-cases it.
func NormalizeEmail(email string, caseSensitive bool) string {
	email = strings.TrimSpace(email)
	if caseSensitive {
		return email
	}
	return strings.ToLower(email)
}
