package validation

import (
	"fmt"
	"strings"
)

const (
	// MaxBioLen максимальная длина поля bio
	MaxBioLen = 1000
	// MaxMessageLen максимальная длина сообщения поста
	MaxMessageLen = 320
)

// ValidateUsername проверяет, что username присутствует.
// Дополнительных ограничений на формат нет
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("Username is required")
	}
	return nil
}

// ValidateBio проверяет длину bio
func ValidateBio(bio string) error {
	if len(bio) > MaxBioLen {
		return fmt.Errorf("bio must not exceed %d characters", MaxBioLen)
	}
	return nil
}

// NormalizeMessage обрезает пробелы и проверяет длину сообщения поста
func NormalizeMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if len(message) > MaxMessageLen {
		return "", fmt.Errorf("message must not exceed %d characters", MaxMessageLen)
	}
	return message, nil
}

// NormalizeEmail приводит email к каноническому виду.
// Email хранится и сравнивается в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
