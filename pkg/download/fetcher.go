// Package download streams resolved signature URLs into the local cache.
package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/glorpus-work/sigsync/pkg/fsutil"
)

// Fetcher is a minimal HTTP downloader. It streams a response body to a
// temporary file next to the destination and publishes it with an atomic
// rename, so a partially written signature is never visible at the final
// path.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with the given timeout and user agent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = "sigsync/1.0"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchTo downloads rawURL into dest. Any failure, including a non-200
// status, leaves no trace at dest: the temporary file is discarded and the
// error wraps errors.ErrDownloadFailed.
func (f *Fetcher) FetchTo(ctx context.Context, rawURL string, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrDownloadFailed, "unexpected status code: %d", resp.StatusCode)
	}

	tmpPath, err := writeBodyToTemp(resp.Body, dest)
	if err != nil {
		return err
	}

	if err := fsutil.Move(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(dest, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(err, "could not set permissions")
	}
	return nil
}

// writeBodyToTemp streams body into a temp file in dest's directory, which
// keeps the later rename on a single filesystem.
func writeBodyToTemp(body io.Reader, dest string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "sig-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}
