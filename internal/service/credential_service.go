// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"strings"

	"bulletin/internal/models"
	"bulletin/internal/repository"
	"bulletin/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used for stored passwords.
const DefaultHashCost = 12

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Confirm  string `json:"confirm" form:"confirm"`
}

// CredentialService registers users and verifies their passwords.
type CredentialService struct {
	users    repository.UserRepository
	hashCost int
}

// NewCredentialService returns a CredentialService. A hashCost of 0 selects DefaultHashCost.
func NewCredentialService(users repository.UserRepository, hashCost int) *CredentialService {
	if hashCost == 0 {
		hashCost = DefaultHashCost
	}
	return &CredentialService{users: users, hashCost: hashCost}
}

// Register validates the form, hashes the password and stores the user.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateCredentials(username, in.Password, in.Confirm); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, models.NewValidationError("Password must be at most 72 bytes")
		}
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user whose password matches. An unknown username
// is a NotFound error; a wrong password is Unauthorized.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	return user, nil
}

// DeleteAccount removes the user. A user that is already gone is reported as NotFound.
func (s *CredentialService) DeleteAccount(ctx context.Context, username string) error {
	if username == "" {
		return models.NewUnauthorizedError("Login required")
	}
	return s.users.DeleteByUsername(ctx, username)
}

// CountUsers returns the number of registered users.
func (s *CredentialService) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}
