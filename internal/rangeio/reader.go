package rangeio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RangeReader reads length bytes starting at offset out of an archive.
// Implementations may be HTTP(S), local-file pread, or in-memory; errors
// are surfaced as-is. The caller's retry policy (internal/retry) does not
// tell transient from permanent failures: it retries every error until its
// attempts run out.
type RangeReader interface {
	ReadRange(ctx context.Context, offset uint64, length uint64) ([]byte, error)
}

// HTTPRangeReader satisfies RangeReader over net/http using byte-range
// requests against a single archive URL.
type HTTPRangeReader struct {
	Client *http.Client
	URL    string

	// Timeout, when non-zero, bounds each individual range request. Expiry
	// surfaces as an ordinary transport error, so the caller's retry policy
	// treats it like any other transient failure.
	Timeout time.Duration
}

// NewHTTPRangeReader builds a reader against url using client, or
// http.DefaultClient if client is nil.
func NewHTTPRangeReader(url string, client *http.Client) *HTTPRangeReader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRangeReader{Client: client, URL: url}
}

// ReadRange issues a single GET with a Range header covering
// [offset, offset+length) and returns the body. A 200 response (server
// ignored the Range header) is rejected as a transport error rather than
// silently returning the wrong bytes.
func (h *HTTPRangeReader) ReadRange(ctx context.Context, offset uint64, length uint64) ([]byte, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("rangeio: building request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rangeio: range request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("rangeio: expected 206 Partial Content, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(length)))
	if err != nil {
		return nil, fmt.Errorf("rangeio: reading range body: %w", err)
	}
	if uint64(len(body)) != length {
		return nil, fmt.Errorf("rangeio: short range read: got %d bytes, want %d", len(body), length)
	}
	return body, nil
}
