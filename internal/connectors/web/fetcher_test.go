package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	f := New()
	assert.Equal(t, 30*time.Second, f.timeout)
	assert.Equal(t, domain.DefaultUserAgent, f.userAgent)

	f = New(WithTimeout(time.Second), WithUserAgent("bot/1.0"), WithTimeout(0), WithUserAgent(""))
	assert.Equal(t, time.Second, f.timeout)
	assert.Equal(t, "bot/1.0", f.userAgent)

	var _ driven.Fetcher = f
}

func TestFetcher_Fetch_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	resp, err := New().Fetch(context.Background(), server.URL+"/article")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, server.URL+"/article", resp.URL)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<html><body>hello</body></html>", string(resp.Body))
	assert.Equal(t, domain.DefaultUserAgent, gotUA)
}

func TestFetcher_Fetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := New().Fetch(context.Background(), server.URL+"/old")

	require.NoError(t, err)
	assert.Equal(t, "moved", string(resp.Body))
}

func TestFetcher_Fetch_Non200Success(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"non-authoritative", http.StatusNonAuthoritativeInfo},
		{"partial content", http.StatusPartialContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<p>body</p>"))
			}))
			defer server.Close()

			resp, err := New().Fetch(context.Background(), server.URL)

			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "<p>body</p>", string(resp.Body))
		})
	}
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			resp, err := New().Fetch(context.Background(), server.URL)

			assert.ErrorIs(t, err, domain.ErrFetch)
			assert.ErrorContains(t, err, fmt.Sprintf("HTTP %d", tt.status))
			assert.Nil(t, resp)
		})
	}
}

func TestFetcher_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New().Fetch(context.Background(), url)

	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestFetcher_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := New(WithTimeout(50*time.Millisecond)).Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestFetcher_Fetch_InvalidURL(t *testing.T) {
	_, err := New().Fetch(context.Background(), "::not a url")

	assert.ErrorIs(t, err, domain.ErrFetch)
}
