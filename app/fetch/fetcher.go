package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// ErrTooLarge is returned when a response body exceeds the configured
// byte ceiling. Bytes already read are discarded.
var ErrTooLarge = fmt.Errorf("response body exceeds size limit")

type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBytes  int64
}

func NewFetcher(client *http.Client, userAgent string, timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		maxBytes:  maxBytes,
	}
}

// GetHTML fetches a page and returns its body decoded to UTF-8. Municipal
// sites are not reliably UTF-8; the declared charset (or a sniffed one) is
// honored before any parsing happens.
func (f *Fetcher) GetHTML(ctx context.Context, url string) ([]byte, error) {
	body, contentType, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Undetectable charset, use the raw bytes.
		return body, nil
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}

	return decoded, nil
}

// GetRaw fetches a document without charset conversion, returning the body
// and the declared Content-Type.
func (f *Fetcher) GetRaw(ctx context.Context, url string) ([]byte, string, error) {
	return f.get(ctx, url)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	// Read one byte past the ceiling so an oversized body is detectable
	// without buffering the whole thing.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", ErrTooLarge
	}

	return data, resp.Header.Get("Content-Type"), nil
}
