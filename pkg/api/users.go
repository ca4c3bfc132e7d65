package api

import (
	"time"

	"github.com/iudanet/gophergram/internal/models"
)

// SignupRequest представляет запрос на регистрацию нового пользователя
type SignupRequest struct {
	Username   string `json:"username"`   // обязательное поле
	Email      string `json:"email"`      // уникальный, регистр не учитывается
	Password   string `json:"password"`   // plaintext, хешируется на сервере
	Newsletter bool   `json:"newsletter"` // опционально
	BirthDate  string `json:"birthDate"`  // опционально, "2006-01-02" или RFC3339
	Team       string `json:"team"`       // опционально
	Bio        string `json:"bio"`        // опционально, до 1000 символов
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProjection публичная проекция пользователя, возвращаемая
// при регистрации и логине. Никогда не содержит hash и salt
type UserProjection struct {
	ID        string         `json:"id"`
	Token     string         `json:"token"`
	Account   models.Account `json:"account"`
	Team      string         `json:"team,omitempty"`
	BirthDate *time.Time     `json:"birthDate,omitempty"`
}

// UpdateUserRequest частичное обновление профиля.
// Применяются только непустые (truthy) поля: пустая строка или false
// игнорируются, сбросить значение через этот запрос нельзя
type UpdateUserRequest struct {
	Username   string `json:"username"`
	Newsletter bool   `json:"newsletter"`
	BirthDate  string `json:"birthDate"`
	Team       string `json:"team"`
	Bio        string `json:"bio"`
}

// FollowRequest тело запроса PATCH /user/follow/:id
type FollowRequest struct {
	IDToFollow string `json:"idToFollow"`
}

// UnfollowRequest тело запроса PATCH /user/unfollow/:id
type UnfollowRequest struct {
	IDToUnfollow string `json:"idToUnfollow"`
}
