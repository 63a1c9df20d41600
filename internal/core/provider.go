package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/git-pkgs/channel/download"
	"github.com/git-pkgs/channel/hosting"
	"github.com/git-pkgs/channel/internal/schema"
	"github.com/git-pkgs/channel/versions"
)

// Downloader fetches raw document bytes for a URL. Satisfied by
// download.Downloader and download.BreakerDownloader.
type Downloader interface {
	Fetch(ctx context.Context, url, errorContext string) ([]byte, error)
}

// Provider retrieves a channel document and answers queries over the
// package and library metadata cached in it.
//
// The document is fetched lazily on the first query and kept for the
// lifetime of the Provider; there is no refresh operation. Construct a
// new Provider to re-fetch. A Provider is safe for concurrent use.
type Provider struct {
	location   string
	downloader Downloader
	logger     *log.Logger
	userAgent  string
	timeout    time.Duration

	mu      sync.Mutex
	fetched bool
	doc     *document
	version schema.Version
	traits  schema.Traits
}

// document is the validated, canonical form of the parsed channel
// file. Repository URLs keyed into the packages cache are already
// rewritten to their current hosting endpoints, so lookups are stable
// regardless of which historical form of a URL the document used.
type document struct {
	repositories    []string
	hasRepositories bool
	nameMap         map[string]string
	renamed         map[string]string
	packages        map[string][]map[string]any
	libraries       map[string][]map[string]any
}

// Option configures a Provider.
type Option func(*Provider)

// WithDownloader sets the transport used for HTTP(S) channel locations.
func WithDownloader(d Downloader) Option {
	return func(p *Provider) {
		p.downloader = d
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithUserAgent sets the User-Agent for the default downloader.
func WithUserAgent(ua string) Option {
	return func(p *Provider) {
		p.userAgent = ua
	}
}

// WithTimeout sets the request timeout for the default downloader.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Provider) {
		p.timeout = timeout
	}
}

// NewProvider creates a provider for the channel at the given URL or
// filesystem path.
func NewProvider(location string, opts ...Option) *Provider {
	p := &Provider{
		location: location,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.downloader == nil {
		dlOpts := []download.Option{download.WithLogger(p.logger)}
		if p.userAgent != "" {
			dlOpts = append(dlOpts, download.WithUserAgent(p.userAgent))
		}
		if p.timeout > 0 {
			dlOpts = append(dlOpts, download.WithTimeout(p.timeout))
		}
		p.downloader = download.NewDownloader(dlOpts...)
	}
	return p
}

// Location returns the channel URL or path this provider reads from.
func (p *Provider) Location() string {
	return p.location
}

// Fetch retrieves, parses, and validates the channel document. It is
// idempotent: once a document has been fetched it is never fetched
// again for this Provider. Every query method calls Fetch, so a
// permanently bad source reproduces its error on every call.
func (p *Provider) Fetch(ctx context.Context) error {
	_, _, err := p.document(ctx)
	return err
}

// SchemaVersion reports the version declared by the channel document's
// schema_version key, canonicalized to major.minor.patch form.
func (p *Provider) SchemaVersion(ctx context.Context) (string, error) {
	if err := p.Fetch(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version.String(), nil
}

func (p *Provider) document(ctx context.Context) (*document, schema.Traits, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fetched {
		return p.doc, p.traits, nil
	}

	raw, err := p.retrieve(ctx)
	if err != nil {
		return nil, schema.Traits{}, err
	}

	doc, ver, err := p.parse(raw)
	if err != nil {
		return nil, schema.Traits{}, err
	}

	p.doc = doc
	p.version = ver
	p.traits = ver.Traits()
	p.fetched = true
	return p.doc, p.traits, nil
}

func (p *Provider) retrieve(ctx context.Context) ([]byte, error) {
	if httpLocation.MatchString(p.location) {
		p.logger.Debug("downloading channel", "url", p.location)
		return p.downloader.Fetch(ctx, p.location, "Error downloading channel.")
	}

	// All other locations are expected to be filesystem paths.
	if _, err := os.Stat(p.location); err != nil {
		return nil, fmt.Errorf("channel file %s does not exist: %w", p.location, err)
	}

	p.logger.Debug("loading channel from disk", "path", p.location)

	raw, err := os.ReadFile(p.location)
	if err != nil {
		return nil, fmt.Errorf("reading channel file %s: %w", p.location, err)
	}
	return raw, nil
}

func (p *Provider) parse(raw []byte) (*document, schema.Version, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, schema.Version{}, p.invalid("parsing JSON failed")
	}

	rawVersion, ok := keys["schema_version"]
	if !ok {
		return nil, schema.Version{}, p.invalid(`the "schema_version" JSON key is missing`)
	}

	var versionValue any
	if err := json.Unmarshal(rawVersion, &versionValue); err != nil {
		return nil, schema.Version{}, p.invalid("parsing JSON failed")
	}

	ver, err := schema.ParseVersion(versionValue)
	if err != nil {
		return nil, schema.Version{}, p.invalid(err.Error())
	}

	doc := &document{}

	if rawRepos, ok := keys["repositories"]; ok {
		if err := json.Unmarshal(rawRepos, &doc.repositories); err != nil {
			return nil, schema.Version{}, p.invalid(`the "repositories" JSON key is not a list of strings`)
		}
		doc.hasRepositories = true
	}

	doc.nameMap = decodeStringMap(keys["package_name_map"])
	doc.renamed = decodeStringMap(keys["renamed_packages"])

	// The 2.0 schema renamed the key cached package info is stored
	// under; 4.0 did the same for libraries. Traits resolves both.
	traits := ver.Traits()

	packages, err := decodeCache(keys[traits.PackagesKey])
	if err != nil {
		return nil, schema.Version{}, p.invalid("parsing JSON failed")
	}
	libraries, err := decodeCache(keys[traits.LibrariesKey])
	if err != nil {
		return nil, schema.Version{}, p.invalid("parsing JSON failed")
	}
	doc.libraries = libraries

	// Fix any out-dated repository URLs in the package cache so that
	// lookups hit regardless of which historical URL form is used.
	doc.packages = make(map[string][]map[string]any, len(packages))
	for repo, records := range packages {
		updated := hosting.Update(repo)
		if updated != repo {
			p.logger.Debug("rewrote cached repository URL", "from", repo, "to", updated)
		}
		doc.packages[updated] = records
	}

	return doc, ver, nil
}

func (p *Provider) invalid(reason string) error {
	return &InvalidChannelError{Location: p.location, Reason: reason}
}

func decodeStringMap(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if raw != nil {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func decodeCache(raw json.RawMessage) (map[string][]map[string]any, error) {
	if raw == nil {
		return map[string][]map[string]any{}, nil
	}
	var cache map[string][]map[string]any
	if err := json.Unmarshal(raw, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}

// NameMap returns the URL-slug to package-name mapping. The feature
// was retired in schema 2, so documents of that generation and later
// always yield an empty map.
func (p *Provider) NameMap(ctx context.Context) (map[string]string, error) {
	doc, traits, err := p.document(ctx)
	if err != nil {
		return nil, err
	}

	if traits.NameMapRetired {
		return map[string]string{}, nil
	}
	return doc.nameMap, nil
}

// RenamedPackages returns a mapping of previous package names to
// current ones. For schema 2 and later the mapping is assembled from
// each package's previous_names; on collision the last entry in
// document iteration order wins.
func (p *Provider) RenamedPackages(ctx context.Context) (map[string]string, error) {
	doc, traits, err := p.document(ctx)
	if err != nil {
		return nil, err
	}

	if !traits.RenamesFromCache {
		return doc.renamed, nil
	}

	output := map[string]string{}
	for _, records := range doc.packages {
		for _, record := range records {
			name := stringValue(record["name"])
			if name == "" {
				continue
			}
			for _, previous := range stringList(record["previous_names"]) {
				output[previous] = name
			}
		}
	}
	return output, nil
}

// Repositories returns the channel's repository URLs with relative
// entries resolved against the channel location and deprecated hosting
// URLs rewritten. Order is preserved and duplicates are kept;
// root-absolute entries are dropped.
func (p *Provider) Repositories(ctx context.Context) ([]string, error) {
	doc, _, err := p.document(ctx)
	if err != nil {
		return nil, err
	}

	if !doc.hasRepositories {
		return nil, p.invalid(`the "repositories" JSON key is missing`)
	}

	output := make([]string, 0, len(doc.repositories))
	for _, entry := range doc.repositories {
		resolved, ok := resolveRepository(entry, p.location)
		if !ok {
			p.logger.Debug("skipping root-absolute repository", "entry", entry)
			continue
		}
		output = append(output, hosting.Update(resolved))
	}
	return output, nil
}

// Sources returns the URLs and paths directly referenced by the
// channel. It is an alias for Repositories.
func (p *Provider) Sources(ctx context.Context) ([]string, error) {
	return p.Repositories(ctx)
}

// Packages returns the canonical package records cached in the
// channel for one repository, keyed by package name. Repositories the
// channel has no cache entry for yield an empty map.
func (p *Provider) Packages(ctx context.Context, repoURL string) (map[string]Package, error) {
	doc, traits, err := p.document(ctx)
	if err != nil {
		return nil, err
	}

	repoURL = hosting.Update(repoURL)

	output := map[string]Package{}
	for _, record := range doc.packages[repoURL] {
		pkg, ok := normalizePackage(record, traits)
		if !ok {
			p.logger.Debug("skipping package record without a name", "repository", repoURL)
			continue
		}
		versions.SortReleases(pkg.Releases, true)
		output[pkg.Name] = pkg
	}
	return output, nil
}

// Libraries returns the canonical library records cached in the
// channel for one repository, keyed by library name. Repositories the
// channel has no cache entry for yield an empty map.
func (p *Provider) Libraries(ctx context.Context, repoURL string) (map[string]Library, error) {
	doc, traits, err := p.document(ctx)
	if err != nil {
		return nil, err
	}

	repoURL = hosting.Update(repoURL)

	output := map[string]Library{}
	for _, record := range doc.libraries[repoURL] {
		lib, ok := normalizeLibrary(record, traits)
		if !ok {
			p.logger.Debug("skipping library record without a name", "repository", repoURL)
			continue
		}
		versions.SortReleases(lib.Releases, true)
		output[lib.Name] = lib
	}
	return output, nil
}
