// Package blob relays remote file URLs into durable local copies.
//
// Remote file URLs on records are short-lived signed URLs. The relay
// downloads the payload while the URL is still valid and stores it under a
// freshly minted UUID name, returning the durable public URL.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

// DefaultTimeout is the default download timeout.
const DefaultTimeout = 60 * time.Second

// Ensure Relay implements the interface.
var _ driven.BlobRelay = (*Relay)(nil)

// Relay stores downloaded files in a local directory served under a public
// base URL. Every upload mints a fresh UUID name, so retries of the same
// source URL never collide.
type Relay struct {
	dir     string
	baseURL string
	http    *http.Client
}

// NewRelay creates a relay writing into dir, addressable under baseURL.
func NewRelay(dir, baseURL string) (*Relay, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Relay{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}, nil
}

// UploadDurable downloads the remote URL and stores the payload under a
// minted name, returning the durable URL.
func (r *Relay) UploadDurable(ctx context.Context, remoteURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", remoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: status %d", remoteURL, resp.StatusCode)
	}

	name := uuid.NewString() + extensionOf(remoteURL)
	dest := filepath.Join(r.dir, name)

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("create blob %s: %w", name, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("close blob %s: %w", name, err)
	}

	return r.baseURL + "/" + name, nil
}

// extensionOf extracts the file extension from a URL path, empty when the
// URL has none or doesn't parse.
func extensionOf(remoteURL string) string {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
