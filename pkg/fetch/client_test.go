package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mountisa-community/directory-cli/internal/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="service"><h3>Gidgee Healing</h3></div></body></html>`))
	}))
	defer srv.Close()

	c := New(WithRateLimit(0))
	doc, err := c.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Gidgee Healing", doc.Find(".service h3").Text())
}

func TestGetText_SendsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(WithUserAgent("MountIsaDirectoryBot/1.0"), WithRateLimit(0))
	body, err := c.GetText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "MountIsaDirectoryBot/1.0", gotUA.Load())
}

func TestGetText_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := New(WithRateLimit(0), WithRetry(fastRetry(3)))
	body, err := c.GetText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetText_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithRateLimit(0), WithRetry(fastRetry(3)))
	_, err := c.GetText(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetText_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// One token per minute: the first request drains the bucket, the second
	// must give up when the context expires.
	c := New(WithRateLimit(1.0/60), WithRetry(fastRetry(1)))

	_, err := c.GetText(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetText(ctx, srv.URL)
	assert.Error(t, err)
}
