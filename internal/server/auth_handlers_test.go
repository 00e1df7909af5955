package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bulletin/internal/models"
	"bulletin/internal/service"
	"bulletin/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newAuthTestApp(repo *MockUserRepository) *fiber.App {
	s := &Server{
		credentials: service.NewCredentialService(repo, bcrypt.MinCost),
		sessions:    session.NewManager(session.Config{TTL: time.Hour}),
	}
	app := fiber.New()
	app.Use(s.sessions.Middleware())
	app.Post("/api/register", s.Register)
	app.Post("/api/login", s.Login)
	return app
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(m *MockUserRepository)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "Success",
			body: map[string]string{"username": "testuser", "password": "secret1", "confirm": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Username == "testuser" && u.PasswordHash != "secret1"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Duplicate User",
			body: map[string]string{"username": "taken", "password": "secret1", "confirm": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(models.NewDuplicateError("Username already exists"))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "Username already exists",
		},
		{
			name:           "Passwords Differ",
			body:           map[string]string{"username": "testuser", "password": "secret1", "confirm": "secret2"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Passwords do not match",
		},
		{
			name: "Store Failure Is Not Leaked",
			body: map[string]string{"username": "testuser", "password": "secret1", "confirm": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(models.NewStoreError(errors.New("pq: connection reset")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			app := newAuthTestApp(repo)

			resp, err := app.Test(jsonRequest(t, "/api/register", tt.body))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, body.Msg)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &models.User{ID: 1, Username: "alice", PasswordHash: string(hash)}

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(m *MockUserRepository)
		expectedStatus int
		expectCookie   bool
	}{
		{
			name: "Success",
			body: map[string]string{"username": "alice", "password": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			},
			expectedStatus: http.StatusOK,
			expectCookie:   true,
		},
		{
			name: "Wrong Password",
			body: map[string]string{"username": "alice", "password": "nope-nope"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Unknown User",
			body: map[string]string{"username": "ghost", "password": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "ghost").Return(nil, models.NewNotFoundError("User", "ghost"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Password",
			body:           map[string]string{"username": "alice"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			app := newAuthTestApp(repo)

			resp, err := app.Test(jsonRequest(t, "/api/login", tt.body))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			var found bool
			for _, ck := range resp.Cookies() {
				if ck.Name == session.CookieName && ck.Value != "" {
					found = true
				}
			}
			assert.Equal(t, tt.expectCookie, found)
			repo.AssertExpectations(t)
		})
	}
}
