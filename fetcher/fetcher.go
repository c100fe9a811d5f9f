// Package fetcher resolves document sources to raw PDF bytes. Uploaded
// files are round-tripped through scratch storage; URL sources are
// downloaded over HTTP.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"licitaciones-backend/models"
	"licitaciones-backend/storage"

	"go.uber.org/zap"
)

const defaultDownloadTimeout = 30 * time.Second

// Fetcher resolves sources. Each call is a single attempt: no retries, no
// size cap, no content-type verification.
type Fetcher struct {
	scratch storage.Storage
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client used for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the download timeout for URL sources.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithLogger sets the fetcher's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a fetcher that uses scratch for upload roundtrips.
func New(scratch storage.Storage, opts ...Option) *Fetcher {
	f := &Fetcher{
		scratch: scratch,
		client:  &http.Client{Timeout: defaultDownloadTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves a source to its PDF bytes and display name. A failure
// means the source contributes nothing to the batch; the caller decides
// whether to continue.
func (f *Fetcher) Fetch(ctx context.Context, src models.Source) ([]byte, string, error) {
	switch src.Type {
	case models.SourceTypeFile:
		return f.fetchFile(ctx, src)
	case models.SourceTypeURL:
		return f.fetchURL(ctx, src)
	default:
		return nil, "", fmt.Errorf("unknown source type: %s", src.Type)
	}
}

// fetchFile persists the upload payload to scratch storage and reads it
// back. The scratch entry is removed on every exit path; a failed deletion
// is logged but never escalated.
func (f *Fetcher) fetchFile(ctx context.Context, src models.Source) ([]byte, string, error) {
	key := storage.ScratchKey(src.Name)

	if err := f.scratch.Put(ctx, key, bytes.NewReader(src.Data)); err != nil {
		return nil, "", fmt.Errorf("failed to persist %s: %w", src.Name, err)
	}
	defer func() {
		// Cleanup must run even when the request context is already done.
		if err := f.scratch.Delete(context.WithoutCancel(ctx), key); err != nil {
			f.logger.Error("failed to delete scratch file",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}()

	rc, err := f.scratch.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read back %s: %w", src.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read back %s: %w", src.Name, err)
	}
	return data, src.Name, nil
}

// fetchURL downloads the document. Redirects are followed by the HTTP
// client; any non-2xx status fails the source. The display name is derived
// from the URL host since the origin filename is unknown.
func (f *Fetcher) fetchURL(ctx context.Context, src models.Source) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL %s: %w", src.URL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("download of %s returned status %d", src.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body of %s: %w", src.URL, err)
	}

	return data, displayName(src.URL), nil
}

func displayName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "PDF_from_unknown.pdf"
	}
	return fmt.Sprintf("PDF_from_%s.pdf", u.Host)
}
