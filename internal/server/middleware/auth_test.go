package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophergram/internal/models"
	"github.com/iudanet/gophergram/internal/server/handlers"
	"github.com/iudanet/gophergram/internal/server/storage"
)

// mockUserStorage implements only the token lookup used by the middleware
type mockUserStorage struct {
	userByToken map[string]*models.User
	lookupError error
}

func (m *mockUserStorage) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	if m.lookupError != nil {
		return nil, m.lookupError
	}
	user, ok := m.userByToken[token]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return nil, storage.ErrUserNotFound
}
func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, storage.ErrUserNotFound
}
func (m *mockUserStorage) ListUsers(ctx context.Context) ([]*models.User, error) { return nil, nil }
func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	return nil
}
func (m *mockUserStorage) DeleteUser(ctx context.Context, id string) error { return nil }
func (m *mockUserStorage) Follow(ctx context.Context, followerID, followeeID string) error {
	return nil
}
func (m *mockUserStorage) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthMiddleware(t *testing.T) {
	users := &mockUserStorage{
		userByToken: map[string]*models.User{
			"valid-token": {
				ID:      "u1",
				Account: models.Account{Username: "alice"},
			},
		},
	}

	tests := []struct {
		name        string
		authHeader  string
		lookupError error
		wantStatus  int
		wantNext    bool
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer valid-token",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "case insensitive scheme",
			authHeader: "bearer valid-token",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "valid-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			authHeader: "Basic dXNlcjpwdw==",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown token",
			authHeader: "Bearer wrong-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:        "storage failure",
			authHeader:  "Bearer valid-token",
			lookupError: errors.New("db down"),
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users.lookupError = tt.lookupError

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true

				// Данные пользователя должны попасть в контекст
				userID, ok := handlers.GetUserID(r.Context())
				require.True(t, ok)
				assert.Equal(t, "u1", userID)

				username, ok := handlers.GetUsername(r.Context())
				require.True(t, ok)
				assert.Equal(t, "alice", username)
			})

			mw := AuthMiddleware(testLogger(), users)

			req := httptest.NewRequest(http.MethodPost, "/post/publish", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			mw(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantNext, nextCalled)

			if !tt.wantNext && tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}
