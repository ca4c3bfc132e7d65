package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// SaltLength длина соли пользователя в символах
	SaltLength = 16
	// TokenLength длина bearer токена в символах
	TokenLength = 64
)

// alphabet высокоэнтропийный алфавит для солей и токенов
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomString генерирует криптографически случайную строку длины n
// из символов alphabet
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// NewSalt генерирует случайную соль для нового пользователя
func NewSalt() (string, error) {
	return randomString(SaltLength)
}

// NewToken генерирует opaque bearer token.
// Токен выдается один раз при регистрации и не ротируется
func NewToken() (string, error) {
	return randomString(TokenLength)
}

// HashPassword хеширует пароль с использованием SHA256
// Детерминированный digest от конкатенации пароля и соли,
// base64-encoded. Используется при регистрации и при проверке логина
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyPassword проверяет, соответствует ли пароль сохраненному хешу.
// Сравнение выполняется за константное время
func VerifyPassword(password, salt, hash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
