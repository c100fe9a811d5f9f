package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Storage persists document payloads. The fetcher uses it as scratch space
// for upload roundtrips; deletion of a scratch key must succeed after the
// payload has been read back.
type Storage interface {
	// Put stores a payload under the given key.
	Put(ctx context.Context, key string, data io.Reader) error

	// Get retrieves a payload by key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a payload by key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// Type selects the storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config holds the backend selection and its settings.
type Config struct {
	Type         Type
	LocalPath    string // local backend base directory
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a storage backend from explicit configuration.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal:
		return NewLocal(cfg.LocalPath)
	case TypeS3:
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewFromEnv creates a storage backend from environment variables.
// STORAGE_TYPE defaults to local with a scratch directory under
// STORAGE_LOCAL_PATH.
func NewFromEnv() (Storage, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = string(TypeLocal)
	}

	cfg := Config{Type: Type(storageType)}

	switch cfg.Type {
	case TypeLocal:
		cfg.LocalPath = os.Getenv("STORAGE_LOCAL_PATH")
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./storage/scratch"
		}
		return NewLocal(cfg.LocalPath)

	case TypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// ScratchKey derives a unique storage key for a single fetch roundtrip of
// the named document.
func ScratchKey(filename string) string {
	return uuid.New().String() + "_" + sanitizeName(filename)
}

func sanitizeName(filename string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	name := replacer.Replace(filename)
	if name == "" {
		name = "document.pdf"
	}
	return name
}
