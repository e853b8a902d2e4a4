package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, pngHeader, result.Data)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")

	_, err = URL(context.Background(), "ftp://example.com/a.png", nil)
	assert.ErrorContains(t, err, "unsupported scheme")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxBytes = 16
	_, err := URL(context.Background(), server.URL, opts)
	assert.ErrorContains(t, err, "exceeds 16 bytes")
}

func TestURL_CredentialsMode(t *testing.T) {
	var gotAuth, gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Authorization": "Bearer t"}
	opts.Cookies = []*http.Cookie{{Name: "session", Value: "abc"}}

	_, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "anonymous mode drops credentials")
	assert.Empty(t, gotCookie)

	opts.Credentials = true
	_, err = URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, "Bearer t", gotAuth)
	assert.Equal(t, "abc", gotCookie)
}

func TestResult_DataURI(t *testing.T) {
	r := &Result{Data: []byte("hi"), ContentType: "image/svg+xml; charset=utf-8"}
	assert.Equal(t, "data:image/svg+xml;base64,aGk=", r.DataURI())

	sniffed := &Result{Data: pngHeader}
	assert.True(t, strings.HasPrefix(sniffed.DataURI(), "data:image/png;base64,"))
}

func TestLoader_Inline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	l := NewLoader(nil)
	uri, err := l.Inline(context.Background(), server.URL+"/photo.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, err = l.Inline(context.Background(), server.URL+"/page")
	assert.ErrorContains(t, err, "not an image")
}
