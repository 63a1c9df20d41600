package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchSuccess(t *testing.T) {
	content := `{"schema_version": "4.0.0"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(content))
	}))
	defer server.Close()

	d := NewDownloader()
	body, err := d.Fetch(context.Background(), server.URL+"/channel.json", "Error downloading channel.")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != content {
		t.Errorf("body = %q, want %q", string(body), content)
	}
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDownloader()
	_, err := d.Fetch(context.Background(), server.URL+"/missing.json", "Error downloading channel.")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch = %v, want ErrNotFound", err)
	}

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("Fetch error is %T, want *Error", err)
	}
	if terr.Context != "Error downloading channel." {
		t.Errorf("Context = %q, want the caller's error context", terr.Context)
	}
}

func TestFetchRateLimitRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	d := NewDownloader(WithBaseDelay(10 * time.Millisecond))
	_, err := d.Fetch(context.Background(), server.URL+"/channel.json", "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestFetchServerErrorExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d := NewDownloader(WithMaxRetries(2), WithBaseDelay(10*time.Millisecond))
	_, err := d.Fetch(context.Background(), server.URL+"/channel.json", "")
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("Fetch = %v, want ErrUpstreamDown", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestFetchNoRetryOnNotFound(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDownloader(WithBaseDelay(10 * time.Millisecond))
	_, err := d.Fetch(context.Background(), server.URL+"/channel.json", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch = %v, want ErrNotFound", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDownloader(WithBaseDelay(time.Second))
	_, err := d.Fetch(ctx, server.URL+"/channel.json", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch = %v, want context.Canceled", err)
	}
}

func TestFetchCustomUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent/2.0" {
			t.Errorf("User-Agent = %q, want %q", got, "test-agent/2.0")
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	d := NewDownloader(WithUserAgent("test-agent/2.0"))
	if _, err := d.Fetch(context.Background(), server.URL, ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
}
