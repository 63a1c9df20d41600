// Package core implements the channel document provider: fetching,
// validation, schema normalization, and the query surface.
package core

// Release is one downloadable build of a package or library. Records
// are canonical: whatever schema generation the document used, a
// Release always carries the current key set (the pre-4.0
// "dependencies" key surfaces as Libraries).
type Release struct {
	SublimeText string   `json:"sublime_text"`
	Platforms   []string `json:"platforms"`
	URL         string   `json:"url"`
	Date        string   `json:"date,omitempty"`
	Version     string   `json:"version"`
	Libraries   []string `json:"libraries,omitempty"`
	Sha256      string   `json:"sha256,omitempty"`
}

// VersionString implements versions.Release.
func (r Release) VersionString() string { return r.Version }

// PlatformList implements versions.Release.
func (r Release) PlatformList() []string { return r.Platforms }

// Package is the canonical view of one package entry in a channel,
// independent of the schema generation it was stored in. Fields absent
// from the source document are filled with defaults: empty slices for
// Labels and PreviousNames, empty strings for the optional URLs.
type Package struct {
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Author        string    `json:"author,omitempty"`
	Homepage      string    `json:"homepage,omitempty"`
	LastModified  string    `json:"last_modified,omitempty"`
	Releases      []Release `json:"releases"`
	PreviousNames []string  `json:"previous_names"`
	Labels        []string  `json:"labels"`
	Readme        string    `json:"readme,omitempty"`
	Issues        string    `json:"issues,omitempty"`
	Donate        string    `json:"donate,omitempty"`
	Buy           string    `json:"buy,omitempty"`
}

// Library is the canonical view of one library entry in a channel.
// Library records are expected complete in the document; no defaults
// are filled.
type Library struct {
	Name        string    `json:"name"`
	LoadOrder   string    `json:"load_order"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	Issues      string    `json:"issues,omitempty"`
	Releases    []Release `json:"releases"`
}
