package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gophergram/internal/server/handlers"
	"github.com/iudanet/gophergram/internal/server/storage"
)

// unauthorized пишет JSON конверт {"error": "..."} не завися от пакета handlers
func unauthorized(w http.ResponseWriter, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = fmt.Fprint(w, `{"error":"Unauthorized"}`)
}

// AuthMiddleware создает middleware для проверки bearer token.
// Токен выдается при регистрации и сверяется с сохраненным в базе
func AuthMiddleware(logger *slog.Logger, users storage.UserStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header",
					"method", r.Method,
					"path", r.URL.Path)
				unauthorized(w, http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("Invalid Authorization header format")
				unauthorized(w, http.StatusUnauthorized)
				return
			}

			token := parts[1]

			// Ищем пользователя по токену
			user, err := users.GetUserByToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					logger.Warn("Unknown token")
					unauthorized(w, http.StatusUnauthorized)
					return
				}
				logger.Error("Failed to look up token", "error", err)
				unauthorized(w, http.StatusBadRequest)
				return
			}

			// Добавляем данные пользователя в контекст
			ctx := context.WithValue(r.Context(), handlers.UserIDKey, user.ID)
			ctx = context.WithValue(ctx, handlers.UsernameKey, user.Account.Username)

			logger.Debug("User authenticated", "user_id", user.ID, "username", user.Account.Username)

			// Передаем запрос дальше с обновленным контекстом
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
