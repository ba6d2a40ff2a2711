package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// UploadDir is the prefix of every stored post image.
const UploadDir = "posts"

var (
	ErrNotAnImage    = errors.New("upload a valid image: the file is either not an image or a corrupted image")
	ErrImageTooLarge = errors.New("image is too large")
)

// ImageStore persists uploaded post images and resolves their public URLs.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	URL(storedPath string) string
	Delete(ctx context.Context, storedPath string) error
}

// newObjectName returns posts/<uuid><ext>.
func newObjectName(original, detectedExt string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = detectedExt
	}
	return path.Join(UploadDir, uuid.NewString()+ext)
}

// StoreUpload validates an uploaded file as an image and saves it.
func StoreUpload(ctx context.Context, store ImageStore, header *multipart.FileHeader, maxBytes int64) (string, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return "", ErrImageTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotAnImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := newObjectName(header.Filename, mtype.Extension())
	return store.Save(ctx, name, file, header.Size, mtype.String())
}

// LocalStore keeps images under Root and serves them below BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, UploadDir), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{Root: root, BaseURL: baseURL}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(s.Root, filepath.FromSlash(name))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

func (s *LocalStore) URL(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + storedPath
}

func (s *LocalStore) Delete(ctx context.Context, storedPath string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(storedPath)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MinIOConfig holds the object store connection settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // e.g. https://cdn.example.com; defaults to the endpoint
}

// MinIOStore keeps images in an S3-compatible bucket.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       logrus.FieldLogger
}

func NewMinIOStore(ctx context.Context, cfg MinIOConfig, log logrus.FieldLogger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinIOStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		log:       log,
	}, nil
}

func (m *MinIOStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	fields := logrus.Fields{"object_name": name, "size": size, "content_type": contentType, "bucket": m.bucket}
	if err != nil {
		m.log.WithFields(fields).WithError(err).Error("minio upload failed")
		return "", err
	}
	m.log.WithFields(fields).Info("minio upload succeeded")
	return name, nil
}

func (m *MinIOStore) URL(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	return m.publicURL + "/" + m.bucket + "/" + storedPath
}

func (m *MinIOStore) Delete(ctx context.Context, storedPath string) error {
	err := m.client.RemoveObject(ctx, m.bucket, storedPath, minio.RemoveObjectOptions{})
	if err != nil {
		m.log.WithField("object_name", storedPath).WithError(err).Error("minio delete failed")
	}
	return err
}
