package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/models"
)

type AuthService struct {
	users  db.UserRepositoryInterface
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	policy access.ElevationPolicy
}

func NewAuthService(users db.UserRepositoryInterface, hasher *auth.PasswordHasher, tokens *auth.TokenManager, policy access.ElevationPolicy) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, policy: policy}
}

// Register creates a USER account. Callers that are already signed in are refused.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if auth.IsAuthenticated(ctx) {
		return nil, apperr.ErrAlreadyAuthenticated
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, errPasswordTooLong
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperr.ErrEmailAlreadyTaken
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, errPasswordTooLong
	}
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, PasswordHash: hash, Role: models.RoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			return nil, apperr.ErrEmailAlreadyTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("Registered user %d", user.ID)
	return user, nil
}

var errPasswordTooLong = apperr.New(apperr.KindValidation,
	fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))

// Login returns a signed token. Unknown email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if auth.IsAuthenticated(ctx) {
		return "", apperr.ErrAlreadyAuthenticated
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", apperr.ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Email)
}

// UpgradeToAdmin promotes the current user to ADMIN if the elevation policy allows it.
func (s *AuthService) UpgradeToAdmin(ctx context.Context) error {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !access.CanElevateRole(user, s.policy) {
		return apperr.Unauthorized("role elevation is disabled")
	}
	if user.IsAdmin() {
		return nil
	}

	if err := s.users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.ErrUserNotFound
		}
		return fmt.Errorf("update role: %w", err)
	}
	user.Role = models.RoleAdmin
	log.Printf("User %d upgraded to %s", user.ID, models.RoleAdmin)
	return nil
}

// ResolvePrincipal maps a bearer token to its user. Any failure yields false.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*models.User, bool) {
	if !s.tokens.Validate(token) {
		return nil, false
	}
	email, err := s.tokens.ExtractSubject(token)
	if err != nil {
		return nil, false
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("Failed to resolve token subject: %v", err)
		}
		return nil, false
	}
	return user, true
}
