package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gearloan-backend/internal/logger"

	"github.com/google/uuid"
)

const uploadTTL = 15 * time.Minute

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// keys are generated by IssueUpload, anything else is rejected
var keyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|gif|webp)$`)

type pendingUpload struct {
	key         string
	contentType string
	expiresAt   time.Time
}

// LocalStorage serves photos from a directory on the server's disk. Upload and
// download URLs point back at this server.
type LocalStorage struct {
	baseURL  string
	dir      string
	maxBytes int64
	allowed  map[string]bool

	mu      sync.Mutex
	pending map[string]pendingUpload
	now     func() time.Time
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates the upload directory if needed. An empty allowed
// list accepts every image type the store knows.
func NewLocalStorage(baseURL, dir string, maxBytes int64, allowed []string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	s := &LocalStorage{
		baseURL:  strings.TrimRight(baseURL, "/"),
		dir:      dir,
		maxBytes: maxBytes,
		allowed:  map[string]bool{},
		pending:  map[string]pendingUpload{},
		now:      time.Now,
	}
	for _, ct := range allowed {
		s.allowed[strings.ToLower(strings.TrimSpace(ct))] = true
	}
	if len(s.allowed) == 0 {
		for ct := range extensions {
			s.allowed[ct] = true
		}
	}
	return s, nil
}

func (s *LocalStorage) IssueUpload(_ context.Context, contentType string) (*Upload, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	ext, known := extensions[ct]
	if !known || !s.allowed[ct] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	token := uuid.NewString()
	key := uuid.NewString() + ext
	expires := s.now().Add(uploadTTL)

	s.mu.Lock()
	s.pruneLocked()
	s.pending[token] = pendingUpload{key: key, contentType: ct, expiresAt: expires}
	s.mu.Unlock()

	return &Upload{
		Token:       token,
		Key:         key,
		ContentType: ct,
		UploadURL:   fmt.Sprintf("%s/api/v1/upload/%s", s.baseURL, token),
		DownloadURL: s.DownloadURL(key),
		ExpiresAt:   expires,
	}, nil
}

// DownloadURL is where a stored key can be fetched
func (s *LocalStorage) DownloadURL(key string) string {
	return fmt.Sprintf("%s/api/v1/download/%s", s.baseURL, url.PathEscape(key))
}

func (s *LocalStorage) pruneLocked() {
	now := s.now()
	for token, p := range s.pending {
		if now.After(p.expiresAt) {
			delete(s.pending, token)
		}
	}
}

func (s *LocalStorage) Save(_ context.Context, token, contentType string, body io.Reader) (string, error) {
	s.mu.Lock()
	p, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	s.mu.Unlock()

	if !ok || s.now().After(p.expiresAt) {
		return "", ErrUnknownUpload
	}
	if ct := strings.ToLower(strings.TrimSpace(contentType)); ct != p.contentType {
		return "", fmt.Errorf("%w: upload was issued for %s, got %q", ErrUnsupportedType, p.contentType, contentType)
	}

	path := filepath.Join(s.dir, p.key)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var src io.Reader = body
	if s.maxBytes > 0 {
		src = io.LimitReader(body, s.maxBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return "", ErrTooLarge
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	logger.Info("photo stored", "key", p.key, "bytes", n)
	return p.key, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}

// Open returns the file and its content type
func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	ct, ok := contentTypes[filepath.Ext(key)]
	if !ok {
		ct = "application/octet-stream"
	}
	return f, ct, nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
