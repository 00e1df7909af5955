package service

import (
	"context"
	"errors"
	"testing"

	"bulletin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryUsers backs userRepoStub with a map so register/login round trips work.
func memoryUsers() *userRepoStub {
	users := map[string]*models.User{}
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, u *models.User) error {
		if _, ok := users[u.Username]; ok {
			return models.NewDuplicateError("Username already exists")
		}
		users[u.Username] = u
		return nil
	}
	repo.getByUsernameFn = func(_ context.Context, name string) (*models.User, error) {
		u, ok := users[name]
		if !ok {
			return nil, models.NewNotFoundError("User", name)
		}
		return u, nil
	}
	repo.deleteByUsernameFn = func(_ context.Context, name string) error {
		if _, ok := users[name]; !ok {
			return models.NewNotFoundError("User", name)
		}
		delete(users, name)
		return nil
	}
	return repo
}

func TestCredentialService_Register_Validation(t *testing.T) {
	t.Parallel()
	svc := NewCredentialService(noopUserRepo(), bcrypt.MinCost)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      RegisterInput
		wantMsg string
	}{
		{"empty", RegisterInput{}, "Username and password are required"},
		{"whitespace username", RegisterInput{Username: "   ", Password: "secret1", Confirm: "secret1"}, "Username and password are required"},
		{"short username", RegisterInput{Username: "al", Password: "secret1", Confirm: "secret1"}, "Username must be between 3 and 20 characters"},
		{"short password", RegisterInput{Username: "alice01", Password: "12345", Confirm: "12345"}, "Password must be at least 6 characters"},
		{"mismatch", RegisterInput{Username: "alice01", Password: "secret1", Confirm: "secret2"}, "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Register(ctx, tt.in)
			assertValidationError(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestCredentialService_RegisterThenAuthenticate(t *testing.T) {
	t.Parallel()
	svc := NewCredentialService(memoryUsers(), bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: " alice01 ", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice01", user.Username)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice01", Password: "secret1", Confirm: "secret1"})
	assertCode(t, err, models.CodeDuplicate)

	got, err := svc.Authenticate(ctx, "alice01", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice01", got.Username)

	_, err = svc.Authenticate(ctx, "alice01", "wrong")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody", "secret1")
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.Authenticate(ctx, "", "")
	assertValidationError(t, err)
}

func TestCredentialService_DefaultCost(t *testing.T) {
	t.Parallel()
	var stored *models.User
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, u *models.User) error {
		stored = u
		return nil
	}

	_, err := NewCredentialService(repo, 0).Register(context.Background(),
		RegisterInput{Username: "bob", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, DefaultHashCost, cost)
}

func TestCredentialService_DeleteAccount(t *testing.T) {
	t.Parallel()
	svc := NewCredentialService(memoryUsers(), bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, "carol"))
	assertCode(t, svc.DeleteAccount(ctx, "carol"), models.CodeNotFound)
	assertCode(t, svc.DeleteAccount(ctx, ""), models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "carol", "secret1")
	assertCode(t, err, models.CodeNotFound)
}

func TestCredentialService_StoreErrorPropagates(t *testing.T) {
	t.Parallel()
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, _ *models.User) error {
		return models.NewStoreError(errors.New("disk full"))
	}

	_, err := NewCredentialService(repo, bcrypt.MinCost).Register(context.Background(),
		RegisterInput{Username: "dave", Password: "secret1", Confirm: "secret1"})
	assertCode(t, err, models.CodeStore)
}
