package models

import "time"

// Account публичная часть профиля пользователя, которая прикрепляется
// к запросу после аутентификации и возвращается в проекциях API
type Account struct {
	Username string `json:"username"`         // отображаемое имя пользователя
	Avatar   *Asset `json:"avatar,omitempty"` // дескриптор загруженного аватара (опционально)
}

// User представляет пользователя в системе.
// Hash и Salt никогда не попадают в JSON-ответы (write-only со стороны API).
type User struct {
	ID         string     `json:"id"`                  // UUID пользователя
	Email      string     `json:"email"`               // уникальный, хранится в нижнем регистре
	Account    Account    `json:"account"`             // публичный профиль
	BirthDate  *time.Time `json:"birthDate,omitempty"` // дата рождения (опционально)
	Team       string     `json:"team,omitempty"`      // команда (опционально)
	Newsletter bool       `json:"newsletter"`          // подписка на рассылку
	Bio        string     `json:"bio,omitempty"`       // до 1000 символов
	Token      string     `json:"token"`               // opaque bearer token, выдается один раз при регистрации
	Hash       string     `json:"-"`                   // SHA256(password+salt), base64
	Salt       string     `json:"-"`                   // случайная соль длиной 16 символов
	Followers  []string   `json:"followers"`           // id подписчиков, без дубликатов
	Following  []string   `json:"following"`           // id подписок, без дубликатов
	Likes      []string   `json:"likes"`               // id лайкнутых постов, без дубликатов
	CreatedAt  time.Time  `json:"-"`                   // время создания записи
}
