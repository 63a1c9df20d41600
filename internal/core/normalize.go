package core

import (
	"strings"

	"github.com/git-pkgs/channel/internal/schema"
)

// The adapters below absorb the loosely-typed JSON shapes found in
// the wild: fields that may be a string or a list of strings, platform
// lists that may be the bare wildcard string, author fields that may
// name several people.

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// stringList accepts a bare string or a list of strings.
func stringList(v any) []string {
	switch value := v.(type) {
	case string:
		return []string{value}
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// authorValue accepts a single author string or a list of authors.
func authorValue(v any) string {
	if list := stringList(v); len(list) > 0 {
		return strings.Join(list, ", ")
	}
	return ""
}

// decodeRelease builds a canonical Release from a raw release record.
// Documents older than schema 4 store library names under the
// "dependencies" key; it surfaces as Libraries either way and the old
// key never appears in output.
func decodeRelease(raw map[string]any, traits schema.Traits) Release {
	release := Release{
		SublimeText: stringValue(raw["sublime_text"]),
		Platforms:   stringList(raw["platforms"]),
		URL:         stringValue(raw["url"]),
		Date:        stringValue(raw["date"]),
		Version:     stringValue(raw["version"]),
		Sha256:      stringValue(raw["sha256"]),
	}

	if traits.LegacyDependencies {
		release.Libraries = stringList(raw["dependencies"])
	} else {
		release.Libraries = stringList(raw["libraries"])
	}

	return release
}

func decodeReleases(raw any, traits schema.Traits) []Release {
	items, _ := raw.([]any)
	releases := make([]Release, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		releases = append(releases, decodeRelease(record, traits))
	}
	return releases
}

// normalizePackage builds a canonical Package from a raw channel
// record. ok is false when the record carries no usable name. The
// returned releases are not yet sorted.
func normalizePackage(raw map[string]any, traits schema.Traits) (Package, bool) {
	name := stringValue(raw["name"])
	if name == "" {
		return Package{}, false
	}

	pkg := Package{
		Name:          name,
		Description:   stringValue(raw["description"]),
		Author:        authorValue(raw["author"]),
		Homepage:      stringValue(raw["homepage"]),
		PreviousNames: stringList(raw["previous_names"]),
		Labels:        stringList(raw["labels"]),
		Readme:        stringValue(raw["readme"]),
		Issues:        stringValue(raw["issues"]),
		Donate:        stringValue(raw["donate"]),
		Buy:           stringValue(raw["buy"]),
	}
	if pkg.PreviousNames == nil {
		pkg.PreviousNames = []string{}
	}
	if pkg.Labels == nil {
		pkg.Labels = []string{}
	}

	if traits.ReleasesInline {
		pkg.Releases = decodeReleases(raw["releases"], traits)
		pkg.LastModified = lastModified(pkg.Releases)
	} else {
		// 1.x records carry a platform-keyed download mapping instead
		// of a releases list; synthesize one and discard the mapping.
		pkg.Releases = decodeReleases(anySlice(schema.PlatformsToReleases(raw)), traits)
		pkg.LastModified = stringValue(raw["last_modified"])
	}

	return pkg, true
}

// lastModified is the lexically greatest release date; release dates
// are ISO-ordered strings so lexical comparison is date order. Empty
// when no release declares a date.
func lastModified(releases []Release) string {
	last := ""
	for _, r := range releases {
		if r.Date > last {
			last = r.Date
		}
	}
	return last
}

// normalizeLibrary builds a canonical Library from a raw channel
// record. ok is false when the record carries no usable name.
func normalizeLibrary(raw map[string]any, traits schema.Traits) (Library, bool) {
	name := stringValue(raw["name"])
	if name == "" {
		return Library{}, false
	}

	return Library{
		Name:        name,
		LoadOrder:   stringValue(raw["load_order"]),
		Description: stringValue(raw["description"]),
		Author:      authorValue(raw["author"]),
		Issues:      stringValue(raw["issues"]),
		Releases:    decodeReleases(raw["releases"], traits),
	}, true
}

func anySlice(records []map[string]any) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
