package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrUnknownUpload   = errors.New("unknown or expired upload token")
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrNotFound        = errors.New("file not found")
)

// Upload is a one-shot permission to PUT a single file
type Upload struct {
	Token       string    `json:"token"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	UploadURL   string    `json:"upload_url"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Storage keeps damage photos. Clients ask for an upload slot, PUT the bytes
// to its URL and then reference the key in a damage report.
type Storage interface {
	IssueUpload(ctx context.Context, contentType string) (*Upload, error)
	// Save consumes the upload token
	Save(ctx context.Context, token, contentType string, body io.Reader) (key string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
