// Package loader implements the Loader seam (spec §5, §6): turning a
// SrcPath/SrcURL source into HTML bytes, independent of the engine
// core, which never touches the filesystem or network itself.
package loader

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/samber/oops"
)

// Loader fetches the raw HTML for a path or URL source. Implementations
// must respect ctx's deadline/cancellation (spec §5's per-call timeout).
type Loader interface {
	Load(ctx context.Context, uri string) (string, error)
}

// Default is the Loader execute_query/execute_query_with_loader fall
// back to when the caller supplies none: local paths are read via
// os.ReadFile, http(s):// URLs are fetched via FileLoader's paired
// HTTPLoader.
type Default struct {
	HTTP *HTTPLoader
}

func NewDefault(timeout time.Duration) *Default {
	return &Default{HTTP: NewHTTPLoader(timeout)}
}

func (d *Default) Load(ctx context.Context, uri string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return d.HTTP.Load(ctx, uri)
	}
	return FileLoader{}.Load(ctx, uri)
}

// FileLoader reads HTML from the local filesystem.
type FileLoader struct{}

func (FileLoader) Load(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", oops.Code("LOADER_TIMEOUT").Wrap(ctx.Err())
	default:
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", oops.Code("FILE_READ_FAILED").With("path", path).Wrap(err)
	}
	return string(b), nil
}

// HTTPLoader fetches HTML over http(s), retrying transient failures
// with exponential backoff (spec §5's Loader retry policy) using
// go-resty for the request and cenkalti/backoff for the retry
// schedule — the same pairing Andrew50-peripheral's outbound HTTP
// clients use for flaky upstream fetches.
type HTTPLoader struct {
	client  *resty.Client
	timeout time.Duration
}

func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{
		client:  resty.New().SetTimeout(timeout),
		timeout: timeout,
	}
}

func (h *HTTPLoader) Load(ctx context.Context, url string) (string, error) {
	var body string
	operation := func() error {
		resp, err := h.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return err
		}
		if resp.StatusCode() >= 500 {
			return oops.Code("URL_FETCH_FAILED").With("status", resp.StatusCode()).Errorf("server error fetching %s", url)
		}
		if resp.StatusCode() >= 400 {
			return backoff.Permanent(oops.Code("URL_FETCH_FAILED").With("status", resp.StatusCode()).Errorf("client error fetching %s", url))
		}
		ct := resp.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text") {
			return backoff.Permanent(oops.Code("CONTENT_TYPE_BAD").With("content_type", ct).Errorf("unexpected content type %s for %s", ct, url))
		}
		body = string(resp.Body())
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		if ctx.Err() != nil {
			return "", oops.Code("LOADER_TIMEOUT").Wrap(ctx.Err())
		}
		return "", err
	}
	return body, nil
}
