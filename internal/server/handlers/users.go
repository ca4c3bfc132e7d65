package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iudanet/gophergram/internal/crypto"
	"github.com/iudanet/gophergram/internal/models"
	"github.com/iudanet/gophergram/internal/server/storage"
	"github.com/iudanet/gophergram/internal/validation"
	"github.com/iudanet/gophergram/pkg/api"
)

// UserHandler обрабатывает запросы к пользователям
type UserHandler struct {
	logger *slog.Logger
	users  storage.UserStorage
}

// NewUserHandler создает новый handler для пользователей
func NewUserHandler(logger *slog.Logger, users storage.UserStorage) *UserHandler {
	return &UserHandler{
		logger: logger,
		users:  users,
	}
}

// projection строит публичную проекцию пользователя для signup/login.
// Hash и salt никогда не возвращаются клиенту
func projection(user *models.User) api.UserProjection {
	return api.UserProjection{
		ID:        user.ID,
		Token:     user.Token,
		Account:   user.Account,
		Team:      user.Team,
		BirthDate: user.BirthDate,
	}
}

// parseBirthDate разбирает дату рождения из тела запроса.
// Принимаются формат "2006-01-02" и RFC3339
func parseBirthDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid birthDate format")
}

// Signup обрабатывает POST /user/signup
// Регистрация нового пользователя
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode signup request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Username обязателен, остальные поля опциональны
	if err := validation.ValidateUsername(req.Username); err != nil {
		sendError(h.logger, w, "Username is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateBio(req.Bio); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	// Генерируем соль, хеш пароля и bearer token
	salt, err := crypto.NewSalt()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate salt", slog.Any("error", err))
		sendError(h.logger, w, "internal error", http.StatusBadRequest)
		return
	}
	token, err := crypto.NewToken()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate token", slog.Any("error", err))
		sendError(h.logger, w, "internal error", http.StatusBadRequest)
		return
	}

	user := &models.User{
		ID:    uuid.New().String(),
		Email: validation.NormalizeEmail(req.Email),
		Account: models.Account{
			Username: req.Username,
		},
		BirthDate:  birthDate,
		Team:       req.Team,
		Newsletter: req.Newsletter,
		Bio:        req.Bio,
		Token:      token,
		Hash:       crypto.HashPassword(req.Password, salt),
		Salt:       salt,
		Followers:  []string{},
		Following:  []string{},
		Likes:      []string{},
		CreatedAt:  time.Now(),
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailAlreadyUsed) {
			h.logger.WarnContext(ctx, "email already used", slog.String("email", user.Email))
			sendError(h.logger, w, "Email already used", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Account.Username))

	sendJSON(h.logger, w, projection(user), http.StatusOK)
}

// Login обрабатывает POST /user/login
// Возвращает ту же проекцию и тот же token, что были выданы при регистрации
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, validation.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Не раскрываем, существует ли email
			sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	// Пересчитываем хеш от полученного пароля с сохраненной солью
	if !crypto.VerifyPassword(req.Password, user.Salt, user.Hash) {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("user_id", user.ID))
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, projection(user), http.StatusCreated)
}

// List обрабатывает GET /api/user
// Возвращает всех пользователей; hash и salt не сериализуются
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, users, http.StatusCreated)
}

// GetByID обрабатывает GET /api/user/:id
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	user, err := h.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "ID unknown", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, map[string]*models.User{"user": user}, http.StatusCreated)
}

// Update обрабатывает PUT /api/user/:id
// Применяются только непустые (truthy) поля: пустая строка или false
// игнорируются - сбросить bio в пустую строку через этот маршрут нельзя
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "ID unknown", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Username != "" {
		user.Account.Username = req.Username
	}
	if req.Newsletter {
		user.Newsletter = true
	}
	if req.BirthDate != "" {
		birthDate, err := parseBirthDate(req.BirthDate)
		if err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		user.BirthDate = birthDate
	}
	if req.Team != "" {
		user.Team = req.Team
	}
	if req.Bio != "" {
		if err := validation.ValidateBio(req.Bio); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Bio = req.Bio
	}

	if err := h.users.UpdateUser(ctx, user); err != nil {
		h.logger.ErrorContext(ctx, "failed to update user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, map[string]*models.User{"userToUpdate": user}, http.StatusOK)
}

// Delete обрабатывает DELETE /api/user/:id
// Исторический контракт: неизвестный id - это 200 с сообщением,
// а не ошибка. Посты и чужие списки подписок не затрагиваются
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendMessage(h.logger, w, "ID unknown", http.StatusOK)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))

	sendMessage(h.logger, w, "user successfully deleted", http.StatusOK)
}

// Follow обрабатывает PATCH /user/follow/:id
// Идемпотентно: повторная подписка не создает дубликатов.
// Обе стороны отношения обновляются атомарно
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode follow request", slog.Any("error", err))
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}
	if req.IDToFollow == "" {
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}

	h.follow(ctx, w, id, req.IDToFollow, true)
}

// Unfollow обрабатывает PATCH /user/unfollow/:id
// Снятие несуществующей подписки - no-op, не ошибка
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.UnfollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode unfollow request", slog.Any("error", err))
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}
	if req.IDToUnfollow == "" {
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}

	h.follow(ctx, w, id, req.IDToUnfollow, false)
}

// follow общая часть follow/unfollow: оба пользователя должны существовать,
// в ответ уходит обновленный актор
func (h *UserHandler) follow(ctx context.Context, w http.ResponseWriter, actorID, targetID string, follow bool) {
	if _, err := h.users.GetUserByID(ctx, actorID); err != nil {
		h.followLookupError(ctx, w, err)
		return
	}
	if _, err := h.users.GetUserByID(ctx, targetID); err != nil {
		h.followLookupError(ctx, w, err)
		return
	}

	var err error
	if follow {
		err = h.users.Follow(ctx, actorID, targetID)
	} else {
		err = h.users.Unfollow(ctx, actorID, targetID)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update follow relation", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	// Возвращаем актора с обновленным списком подписок
	actor, err := h.users.GetUserByID(ctx, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, actor, http.StatusCreated)
}

func (h *UserHandler) followLookupError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrUserNotFound) {
		sendMessage(h.logger, w, "ID unknown", http.StatusBadRequest)
		return
	}
	h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
	sendError(h.logger, w, err.Error(), http.StatusBadRequest)
}
