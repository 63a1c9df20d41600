package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBreakerFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"schema_version": "4.0.0"}`))
	}))
	defer server.Close()

	bd := NewBreakerDownloader(NewDownloader())
	body, err := bd.Fetch(context.Background(), server.URL+"/channel.json", "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected a non-empty body")
	}

	states := bd.BreakerState()
	if len(states) != 1 {
		t.Fatalf("expected one breaker, got %d", len(states))
	}
	for host, state := range states {
		if state != "closed" {
			t.Errorf("breaker for %s = %q, want closed", host, state)
		}
	}
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	bd := NewBreakerDownloader(NewDownloader(WithBaseDelay(time.Millisecond)))

	for i := 0; i < 5; i++ {
		_, err := bd.Fetch(context.Background(), server.URL+"/channel.json", "")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt %d: got %v, want ErrNotFound", i, err)
		}
	}

	// The breaker should now be open and refuse without a request.
	_, err := bd.Fetch(context.Background(), server.URL+"/channel.json", "")
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("Fetch after trip = %v, want ErrUpstreamDown", err)
	}

	states := bd.BreakerState()
	for host, state := range states {
		if state != "open" {
			t.Errorf("breaker for %s = %q, want open", host, state)
		}
	}
}

func TestBreakerHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://packagecontrol.io/channel_v4.json", "packagecontrol.io"},
		{"http://localhost:8080/channel.json", "localhost:8080"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		if got := breakerHost(tt.in); got != tt.want {
			t.Errorf("breakerHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
