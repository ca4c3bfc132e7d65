package media

import (
	"context"

	"github.com/iudanet/gophergram/internal/models"
)

// Uploader загружает медиа-файлы во внешнее хранилище и возвращает
// дескриптор сохраненного объекта. Реализация для production - S3Uploader,
// в тестах подменяется моком
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (*models.Asset, error)
}
