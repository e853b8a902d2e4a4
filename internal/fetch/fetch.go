// Package fetch retrieves remote resources referenced by previews, such as
// profile photos, so they can be inlined before capture.
package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeStudio/1.0)"

// DefaultMaxBytes caps the size of a fetched resource.
const DefaultMaxBytes = 10 << 20

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Data        []byte
	ContentType string
	StatusCode  int
}

// DataURI encodes the result as a data: URI.
func (r *Result) DataURI() string {
	ct := r.ContentType
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if ct == "" {
		ct = http.DetectContentType(r.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	MaxBytes  int64
	// Credentials sends cookies and auth headers along, mirroring the
	// use-credentials cross-origin mode.
	Credentials bool
	Cookies     []*http.Cookie
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// URL retrieves a resource.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, &Error{URL: urlStr, Message: "unsupported scheme " + parsedURL.Scheme}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		if !opts.Credentials && strings.EqualFold(key, "Authorization") {
			continue
		}
		req.Header.Set(key, value)
	}
	if opts.Credentials {
		for _, c := range opts.Cookies {
			req.AddCookie(c)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}
	if int64(len(body)) > limit {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("resource exceeds %d bytes", limit)}
	}

	result := &Result{
		URL:         urlStr,
		Data:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return result, nil
}

// Loader inlines remote images as data URIs.
type Loader struct {
	Options *Options
}

// NewLoader creates a Loader. A nil opts uses DefaultOptions.
func NewLoader(opts *Options) *Loader {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Loader{Options: opts}
}

// Inline fetches src and returns it as a data URI.
func (l *Loader) Inline(ctx context.Context, src string) (string, error) {
	res, err := URL(ctx, src, l.Options)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(res.ContentType)
	if ct != "" && !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "application/octet-stream") {
		return "", &Error{URL: src, Message: "not an image: " + res.ContentType}
	}
	return res.DataURI(), nil
}
