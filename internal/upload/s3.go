// Package upload сохраняет загруженные пользователями изображения в S3
// (или совместимое хранилище) и возвращает их публичные URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
)

const (
	// Folder префикс ключей загруженных файлов.
	Folder = "hustler-sync"
	// MaxFileSize предельный размер одного файла.
	MaxFileSize = 5 << 20
	// MaxImages предельное число изображений в одном поле формы.
	MaxImages = 4
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// S3Client подмножество клиента S3, достаточное для загрузки.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader кладёт файлы в бакет и строит их публичные адреса.
type Uploader struct {
	client  S3Client
	bucket  string
	baseURL string
}

// New создаёт Uploader по настройкам S3.
func New(ctx context.Context, cfg config.S3) (*Uploader, error) {
	const op = "upload.New"
	if cfg.S3Bucket == "" || cfg.S3Region == "" {
		return nil, fmt.Errorf("%s: bucket and region are required", op)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3ForcePathStyle
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient создаёт Uploader поверх готового клиента.
func NewWithClient(client S3Client, cfg config.S3) *Uploader {
	baseURL := cfg.S3BaseURL
	if baseURL == "" {
		if cfg.S3Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.S3Endpoint, "/"), cfg.S3Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
		}
	}
	return &Uploader{
		client:  client,
		bucket:  cfg.S3Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Validate проверяет размер и расширение файла и возвращает MIME-тип.
func Validate(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", fmt.Errorf("empty file: %w", apperr.ErrValidation)
	}
	if fh.Size > MaxFileSize {
		return "", fmt.Errorf("file %s exceeds 5MB: %w", fh.Filename, apperr.ErrValidation)
	}
	contentType, ok := allowedTypes[strings.ToLower(filepath.Ext(fh.Filename))]
	if !ok {
		return "", fmt.Errorf("file %s: only jpg, jpeg, png, gif and webp are allowed: %w", fh.Filename, apperr.ErrValidation)
	}
	return contentType, nil
}

// Upload сохраняет один файл и возвращает его публичный URL.
func (u *Uploader) Upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	const op = "upload.Upload"

	contentType, err := Validate(fh)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = src.Close() }()

	key := Folder + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fh.Size),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, classify(err))
	}
	return u.baseURL + "/" + key, nil
}

// UploadMany сохраняет до MaxImages файлов. Все файлы проверяются до начала загрузки.
func (u *Uploader) UploadMany(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	const op = "upload.UploadMany"
	if len(files) > MaxImages {
		return nil, fmt.Errorf("%s: at most %d images allowed: %w", op, MaxImages, apperr.ErrValidation)
	}
	for _, fh := range files {
		if _, err := Validate(fh); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := u.Upload(ctx, fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, apperr.ErrTransient)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "InternalError":
			return fmt.Errorf("%v: %w", err, apperr.ErrTransient)
		}
	}
	return err
}
