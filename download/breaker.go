package download

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

const breakerTripThreshold = 5

// BreakerDownloader wraps a Downloader with per-host circuit
// breakers. A channel and the repositories it references usually live
// on a handful of hosts; once one of them fails repeatedly, further
// fetches against it fail fast instead of burning the retry budget.
type BreakerDownloader struct {
	downloader *Downloader

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// NewBreakerDownloader wraps d with per-host circuit breaking.
func NewBreakerDownloader(d *Downloader) *BreakerDownloader {
	return &BreakerDownloader{
		downloader: d,
		breakers:   make(map[string]*circuit.Breaker),
	}
}

// Fetch downloads through the underlying downloader unless the host's
// breaker is open, in which case it fails immediately with a transport
// error wrapping ErrUpstreamDown.
func (bd *BreakerDownloader) Fetch(ctx context.Context, fetchURL, errorContext string) ([]byte, error) {
	host := breakerHost(fetchURL)
	breaker := bd.host(host)

	if !breaker.Ready() {
		bd.downloader.logger.Debug("circuit open, failing fast", "host", host)
		return nil, &Error{
			URL:     fetchURL,
			Context: errorContext,
			Err:     fmt.Errorf("circuit breaker open for host %s: %w", host, ErrUpstreamDown),
		}
	}

	var body []byte
	err := breaker.Call(func() error {
		var fetchErr error
		body, fetchErr = bd.downloader.Fetch(ctx, fetchURL, errorContext)
		return fetchErr
	}, 0)
	if err != nil {
		if breaker.Tripped() {
			bd.downloader.logger.Debug("circuit tripped", "host", host)
		}
		return nil, err
	}
	return body, nil
}

// BreakerState reports "open" or "closed" per host seen so far.
func (bd *BreakerDownloader) BreakerState() map[string]string {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	states := make(map[string]string, len(bd.breakers))
	for host, breaker := range bd.breakers {
		state := "closed"
		if breaker.Tripped() {
			state = "open"
		}
		states[host] = state
	}
	return states
}

func (bd *BreakerDownloader) host(host string) *circuit.Breaker {
	bd.mu.RLock()
	breaker, ok := bd.breakers[host]
	bd.mu.RUnlock()
	if ok {
		return breaker
	}

	bd.mu.Lock()
	defer bd.mu.Unlock()
	if breaker, ok := bd.breakers[host]; ok {
		return breaker
	}

	// Trips after consecutive failures; the reset window grows from
	// 30s to 5m so a host that stays down is probed less and less.
	reset := backoff.NewExponentialBackOff()
	reset.InitialInterval = 30 * time.Second
	reset.MaxInterval = 5 * time.Minute
	reset.Multiplier = 2.0
	reset.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    reset,
		ShouldTrip: circuit.ThresholdTripFunc(breakerTripThreshold),
	})
	bd.breakers[host] = breaker
	return breaker
}

// breakerHost derives the breaker key for a URL. Unparseable URLs get
// a truncated copy of themselves so they still group consistently.
func breakerHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
