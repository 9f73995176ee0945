package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastClient(cfg Config) *Client {
	c := NewClient(cfg)
	c.sleep = func(time.Duration) {}
	c.initialBackoff = time.Microsecond
	c.maxBackoff = time.Microsecond
	return c
}

// TestGet_RetriesOn5xx: transient statuses are retried until a terminal one
// arrives.
func TestGet_RetriesOn5xx(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := fastClient(Config{MaxRetries: 3})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

// TestGet_ExhaustsRetries: the last error names the retryable status.
func TestGet_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := fastClient(Config{MaxRetries: 1})
	if _, err := c.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
}

// TestGet_DoesNotRetry4xx: a 404 is terminal and returned as a response.
func TestGet_DoesNotRetry4xx(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := fastClient(Config{MaxRetries: 3})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

// TestHeaders: base headers apply and per-request headers override them.
func TestHeaders(t *testing.T) {
	t.Parallel()

	var gotAccept, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := fastClient(Config{BaseHeaders: http.Header{
		"Accept":     {"text/csv"},
		"User-Agent": {"feateng"},
	}})
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"Accept": {"text/plain"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if gotAccept != "text/plain" {
		t.Fatalf("Accept = %q, want per-request override", gotAccept)
	}
	if gotAgent != "feateng" {
		t.Fatalf("User-Agent = %q", gotAgent)
	}
}

// TestBackoffDuration clamps to the max.
func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second},
	}
	for _, tc := range cases {
		if got := backoffDuration(100*time.Millisecond, tc.attempt, time.Second); got != tc.want {
			t.Errorf("backoffDuration(attempt=%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
