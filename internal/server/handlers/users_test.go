package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophergram/internal/crypto"
	"github.com/iudanet/gophergram/internal/models"
	"github.com/iudanet/gophergram/internal/server/storage"
	"github.com/iudanet/gophergram/pkg/api"
)

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users       map[string]*models.User // id -> User
	createError error
	getError    error
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrEmailAlreadyUsed
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, user := range m.users {
		if user.Token == token {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	result := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		result = append(result, user)
	}
	return result, nil
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserStorage) DeleteUser(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserStorage) Follow(ctx context.Context, followerID, followeeID string) error {
	follower := m.users[followerID]
	followee := m.users[followeeID]
	for _, id := range follower.Following {
		if id == followeeID {
			return nil // add-to-set
		}
	}
	follower.Following = append(follower.Following, followeeID)
	followee.Followers = append(followee.Followers, followerID)
	return nil
}

func (m *mockUserStorage) Unfollow(ctx context.Context, followerID, followeeID string) error {
	follower := m.users[followerID]
	followee := m.users[followeeID]
	follower.Following = removeID(follower.Following, followeeID)
	followee.Followers = removeID(followee.Followers, followerID)
	return nil
}

func removeID(ids []string, id string) []string {
	result := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// addTestUser seeds the mock with a registered user and returns it
func addTestUser(m *mockUserStorage, id, email, username string) *models.User {
	salt := "saltsaltsaltsalt"
	user := &models.User{
		ID:        id,
		Email:     email,
		Account:   models.Account{Username: username},
		Token:     "token-" + id,
		Hash:      crypto.HashPassword("password123", salt),
		Salt:      salt,
		Followers: []string{},
		Following: []string{},
		Likes:     []string{},
		CreatedAt: time.Now(),
	}
	m.users[id] = user
	return user
}

func TestUserHandler_Signup_Success(t *testing.T) {
	mock := newMockUserStorage()
	h := NewUserHandler(testLogger(), mock)

	reqBody := api.SignupRequest{
		Username: "alice",
		Email:    "Alice@Example.COM",
		Password: "password123",
		Bio:      "hi",
	}
	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.UserProjection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ID)
	assert.Len(t, resp.Token, crypto.TokenLength)
	assert.Equal(t, "alice", resp.Account.Username)

	// Email хранится в нижнем регистре
	created, err := mock.GetUserByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.NotEmpty(t, created.Hash)
	assert.Len(t, created.Salt, crypto.SaltLength)

	// Hash и salt не попадают в ответ
	assert.NotContains(t, w.Body.String(), created.Hash)
}

func TestUserHandler_Signup_MissingUsername(t *testing.T) {
	h := NewUserHandler(testLogger(), newMockUserStorage())

	body := []byte(`{"email":"a@b.c","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Username is required", resp.Error)
}

func TestUserHandler_Signup_DuplicateEmail(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "taken@example.com", "first")
	h := NewUserHandler(testLogger(), mock)

	body := []byte(`{"username":"second","email":"taken@example.com","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Email already used", resp.Error)
}

func TestUserHandler_Signup_BirthDate(t *testing.T) {
	mock := newMockUserStorage()
	h := NewUserHandler(testLogger(), mock)

	body := []byte(`{"username":"dated","email":"d@example.com","password":"pw","birthDate":"1995-07-15"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.UserProjection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.BirthDate)
	assert.Equal(t, 1995, resp.BirthDate.Year())
}

func TestUserHandler_Login(t *testing.T) {
	mock := newMockUserStorage()
	user := addTestUser(mock, "u1", "alice@example.com", "alice")
	h := NewUserHandler(testLogger(), mock)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid credentials",
			body:       `{"email":"alice@example.com","password":"password123"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "email is case insensitive",
			body:       `{"email":"ALICE@example.com","password":"password123"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "wrong password",
			body:       `{"email":"alice@example.com","password":"nope"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown email",
			body:       `{"email":"ghost@example.com","password":"password123"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()

			h.Login(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				var resp api.UserProjection
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				// Возвращается тот же токен, что был выдан при регистрации
				assert.Equal(t, user.Token, resp.Token)
			} else {
				var resp api.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "Unauthorized", resp.Error)
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "a@example.com", "a")
	addTestUser(mock, "u2", "b@example.com", "b")
	h := NewUserHandler(testLogger(), mock)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var users []*models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
	assert.Len(t, users, 2)
}

// newRequestWithID builds a request with a chi route context carrying {id}
func newRequestWithID(method, target, id string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUserHandler_GetByID(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "a@example.com", "a")
	h := NewUserHandler(testLogger(), mock)

	t.Run("existing user", func(t *testing.T) {
		req := newRequestWithID(http.MethodGet, "/api/user/u1", "u1", nil)
		w := httptest.NewRecorder()

		h.GetByID(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]*models.User
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Contains(t, resp, "user")
		assert.Equal(t, "u1", resp["user"].ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		req := newRequestWithID(http.MethodGet, "/api/user/ghost", "ghost", nil)
		w := httptest.NewRecorder()

		h.GetByID(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp api.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "ID unknown", resp.Error)
	})
}

func TestUserHandler_Update_TruthyFieldsOnly(t *testing.T) {
	mock := newMockUserStorage()
	user := addTestUser(mock, "u1", "a@example.com", "original")
	user.Bio = "old bio"
	h := NewUserHandler(testLogger(), mock)

	// Пустые строки игнорируются, применяются только непустые поля
	body := []byte(`{"username":"renamed","bio":""}`)
	req := newRequestWithID(http.MethodPut, "/api/user/u1", "u1", body)
	w := httptest.NewRecorder()

	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]*models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Contains(t, resp, "userToUpdate")
	assert.Equal(t, "renamed", resp["userToUpdate"].Account.Username)
	assert.Equal(t, "old bio", resp["userToUpdate"].Bio, "empty bio must not reset the stored value")
}

func TestUserHandler_Update_UnknownID(t *testing.T) {
	h := NewUserHandler(testLogger(), newMockUserStorage())

	req := newRequestWithID(http.MethodPut, "/api/user/ghost", "ghost", []byte(`{"username":"x"}`))
	w := httptest.NewRecorder()

	h.Update(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ID unknown", resp.Error)
}

func TestUserHandler_Delete(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "a@example.com", "a")
	h := NewUserHandler(testLogger(), mock)

	t.Run("existing user", func(t *testing.T) {
		req := newRequestWithID(http.MethodDelete, "/api/user/u1", "u1", nil)
		w := httptest.NewRecorder()

		h.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp api.MessageResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "user successfully deleted", resp.Message)
	})

	t.Run("unknown user is still 200", func(t *testing.T) {
		req := newRequestWithID(http.MethodDelete, "/api/user/ghost", "ghost", nil)
		w := httptest.NewRecorder()

		h.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp api.MessageResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "ID unknown", resp.Message)
	})
}

func TestUserHandler_Follow(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "a@example.com", "a")
	addTestUser(mock, "u2", "b@example.com", "b")
	h := NewUserHandler(testLogger(), mock)

	body := []byte(`{"idToFollow":"u2"}`)
	req := newRequestWithID(http.MethodPatch, "/user/follow/u1", "u1", body)
	w := httptest.NewRecorder()

	h.Follow(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	// В ответ уходит актор с обновленным списком подписок
	var resp models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "u1", resp.ID)
	assert.Equal(t, []string{"u2"}, resp.Following)
}

func TestUserHandler_Follow_MissingParameter(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "a@example.com", "a")
	h := NewUserHandler(testLogger(), mock)

	req := newRequestWithID(http.MethodPatch, "/user/follow/u1", "u1", []byte(`{}`))
	w := httptest.NewRecorder()

	h.Follow(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "missing parameter", resp.Message)
}

func TestUserHandler_Follow_UnknownTarget(t *testing.T) {
	mock := newMockUserStorage()
	addTestUser(mock, "u1", "a@example.com", "a")
	h := NewUserHandler(testLogger(), mock)

	body := []byte(`{"idToFollow":"ghost"}`)
	req := newRequestWithID(http.MethodPatch, "/user/follow/u1", "u1", body)
	w := httptest.NewRecorder()

	h.Follow(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ID unknown", resp.Message)
}

func TestUserHandler_Unfollow(t *testing.T) {
	mock := newMockUserStorage()
	u1 := addTestUser(mock, "u1", "a@example.com", "a")
	u2 := addTestUser(mock, "u2", "b@example.com", "b")
	u1.Following = []string{"u2"}
	u2.Followers = []string{"u1"}
	h := NewUserHandler(testLogger(), mock)

	body := []byte(`{"idToUnfollow":"u2"}`)
	req := newRequestWithID(http.MethodPatch, "/user/unfollow/u1", "u1", body)
	w := httptest.NewRecorder()

	h.Unfollow(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Following)
}
