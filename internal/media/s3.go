package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iudanet/gophergram/internal/models"
)

// S3Config настройки S3-совместимого хранилища (AWS S3, MinIO)
type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Uploader загружает изображения в S3-совместимое объектное хранилище
type S3Uploader struct {
	client *s3.Client
	bucket string
	// baseURL используется для построения публичного URL объекта
	baseURL string
}

// NewS3Uploader создает S3 клиент со статическими credentials.
// BaseEndpoint переопределяется для работы с MinIO
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseEndpoint, "/"),
	}, nil
}

// storageKey генерирует уникальный ключ объекта вида posts/Y/M/D/uuid
func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("posts/%d/%d/%d/%v", d.Year(), int(d.Month()), d.Day(), uuid.New())
}

// Upload загружает изображение и возвращает дескриптор сохраненного объекта
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType string) (*models.Asset, error) {
	key := storageKey()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	return &models.Asset{
		URL:        fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, key),
		Key:        key,
		Bucket:     u.bucket,
		MimeType:   contentType,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}, nil
}
