package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestRemoteOpen: a 200 response yields the body stream.
func TestRemoteOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "x1,x2\n1,2\n")
	}))
	defer srv.Close()

	rc, err := NewRemote(nil, srv.URL).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "x1,x2\n1,2\n" {
		t.Fatalf("body = %q", string(b))
	}
}

// TestRemoteOpenNon2xx: terminal non-2xx statuses surface as errors naming
// the URL.
func TestRemoteOpenNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewRemote(nil, srv.URL).Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want status error", err)
	}
}
