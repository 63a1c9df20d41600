// Package channel resolves package channel documents.
//
// A channel is a JSON document, reachable over HTTP(S) or on the local
// filesystem, that lists repositories and caches the package and
// library metadata found in them. Several incompatible schema
// generations of the format exist in the wild; this package normalizes
// all of them into one canonical shape and answers queries over it.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/channel"
//	)
//
//	p := channel.NewProvider("https://packagecontrol.io/channel_v4.json")
//	repos, err := p.Repositories(context.Background())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, repo := range repos {
//		pkgs, err := p.Packages(context.Background(), repo)
//		if err != nil {
//			log.Fatal(err)
//		}
//		for name := range pkgs {
//			fmt.Println(name)
//		}
//	}
//
// The document is fetched once, on the first query, and cached for the
// lifetime of the Provider. Construct a new Provider to re-fetch.
package channel

import (
	"github.com/git-pkgs/channel/download"
	"github.com/git-pkgs/channel/internal/core"
)

// Re-export types from internal/core
type (
	// Provider retrieves a channel document and answers queries over
	// the package and library metadata cached in it.
	Provider = core.Provider

	// Package is the canonical view of one package entry in a channel.
	Package = core.Package

	// Library is the canonical view of one library entry in a channel.
	Library = core.Library

	// Release is one downloadable build of a package or library.
	Release = core.Release

	// Downloader fetches raw document bytes for a URL.
	Downloader = core.Downloader

	// InvalidChannelError reports a channel document that failed
	// parsing or validation.
	InvalidChannelError = core.InvalidChannelError
)

// Re-export errors from download
var (
	ErrNotFound     = download.ErrNotFound
	ErrRateLimited  = download.ErrRateLimited
	ErrUpstreamDown = download.ErrUpstreamDown
)

// TransportError is a network failure reaching or reading a URL.
type TransportError = download.Error

// NewProvider creates a provider for the channel at the given URL or
// filesystem path.
func NewProvider(location string, opts ...Option) *Provider {
	return core.NewProvider(location, opts...)
}

// Option configures a Provider.
type Option = core.Option

// WithDownloader sets the transport used for HTTP(S) channel locations.
var WithDownloader = core.WithDownloader

// WithLogger sets the logger used for debug output.
var WithLogger = core.WithLogger

// WithUserAgent sets the User-Agent for the default downloader.
var WithUserAgent = core.WithUserAgent

// WithTimeout sets the request timeout for the default downloader.
var WithTimeout = core.WithTimeout

// DefaultDownloader returns a downloader with sensible defaults:
// 30s timeout, 3 retries with exponential backoff, retry on 429 and
// 5xx responses, DNS caching.
func DefaultDownloader() *download.Downloader {
	return download.NewDownloader()
}

// BreakerDownloader wraps a downloader with per-host circuit breakers
// so a flapping host fails fast instead of burning retries.
func BreakerDownloader(d *download.Downloader) *download.BreakerDownloader {
	return download.NewBreakerDownloader(d)
}
