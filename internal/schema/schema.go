// Package schema handles the historical generations of the channel
// file format: parsing the declared schema version and upgrading
// records from the oldest layouts to the current shape.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/git-pkgs/channel/hosting"
)

// Version is the declared schema version of a channel document. Only
// the major is used for behavior selection; minor and patch are kept
// for completeness.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// supported is the closed set of schema versions ever published,
// keyed by their canonical three-part form.
var supported = map[string]bool{
	"1.0.0": true,
	"1.1.0": true,
	"1.2.0": true,
	"2.0.0": true,
	"3.0.0": true,
	"4.0.0": true,
}

const supportedList = "1.0, 1.1, 1.2, 2.0, 3.0.0 or 4.0.0"

// ParseVersion parses a raw schema_version value as decoded from JSON.
// Early schema generations declared the version as a bare number
// (1.2, 2), later ones as a string ("3.0.0", "4.0.0"). Anything
// outside the published set is an error.
func ParseVersion(raw any) (Version, error) {
	var s string
	switch value := raw.(type) {
	case string:
		s = value
	case float64:
		s = strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		s = strconv.Itoa(value)
	default:
		return Version{}, fmt.Errorf(`the "schema_version" is not a valid number`)
	}

	// Canonicalize short forms: 2 -> 2.0.0, 3.0 -> 3.0.0.
	canonical := s
	for strings.Count(canonical, ".") < 2 {
		canonical += ".0"
	}

	if !supported[canonical] {
		return Version{}, fmt.Errorf(
			`the "schema_version" %q is not recognized. Must be one of: %s`, s, supportedList)
	}

	sv, err := semver.NewVersion(canonical)
	if err != nil {
		return Version{}, fmt.Errorf(`the "schema_version" is not a valid number`)
	}

	return Version{
		Major: int(sv.Major()),
		Minor: int(sv.Minor()),
		Patch: int(sv.Patch()),
	}, nil
}

// Traits is the document layout strategy for one schema generation.
// It is derived once per document so version branching happens in a
// single place instead of comparisons scattered across operations.
type Traits struct {
	// PackagesKey is the top-level key the package cache is stored
	// under; 2.0 renamed it.
	PackagesKey string

	// LibrariesKey is the top-level key the library cache is stored
	// under; 4.0 renamed it.
	LibrariesKey string

	// NameMapRetired reports that package_name_map was retired (2.0).
	NameMapRetired bool

	// RenamesFromCache reports that rename mappings are assembled from
	// each cached package's previous_names instead of a top-level
	// renamed_packages key (2.0).
	RenamesFromCache bool

	// ReleasesInline reports that records carry a releases list; the
	// 1.x generations carry a platform-keyed download mapping instead.
	ReleasesInline bool

	// LegacyDependencies reports that releases store library names
	// under the pre-4.0 "dependencies" key.
	LegacyDependencies bool
}

// Traits returns the layout strategy for this schema generation.
func (v Version) Traits() Traits {
	t := Traits{
		PackagesKey:  "packages",
		LibrariesKey: "dependencies_cache",
	}
	if v.Major >= 2 {
		t.PackagesKey = "packages_cache"
		t.NameMapRetired = true
		t.RenamesFromCache = true
		t.ReleasesInline = true
	}
	if v.Major >= 4 {
		t.LibrariesKey = "libraries_cache"
	} else {
		t.LegacyDependencies = true
	}
	return t
}

// legacyDate stands in for releases from schema-1 records that never
// declared one.
const legacyDate = "2011-08-01 00:00:00"

// PlatformsToReleases converts a schema-1 package record carrying a
// "platforms" mapping into a list of release records in the current
// shape. Entries for the same version and URL are merged into one
// release accumulating the platform names; the full desktop set
// collapses to the wildcard.
func PlatformsToReleases(record map[string]any) []map[string]any {
	platforms, _ := record["platforms"].(map[string]any)

	date := legacyDate
	if lm, ok := record["last_modified"].(string); ok && lm != "" {
		date = lm
	}

	type entry struct {
		release map[string]any
		order   int
	}
	merged := make(map[string]*entry)

	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	order := 0
	for _, platform := range names {
		downloads, _ := platforms[platform].([]any)
		for _, d := range downloads {
			download, ok := d.(map[string]any)
			if !ok {
				continue
			}
			version, _ := download["version"].(string)
			downloadURL, _ := download["url"].(string)

			key := version + "-" + downloadURL
			e, ok := merged[key]
			if !ok {
				e = &entry{
					release: map[string]any{
						"sublime_text": "<3000",
						"version":      version,
						"date":         date,
						"url":          hosting.Update(downloadURL),
						"platforms":    []any{},
					},
					order: order,
				}
				merged[key] = e
				order++
			}

			current := e.release["platforms"].([]any)
			if platform == "*" {
				e.release["platforms"] = []any{"*"}
			} else if len(current) != 1 || current[0] != "*" {
				e.release["platforms"] = append(current, platform)
			}
		}
	}

	entries := make([]*entry, 0, len(merged))
	for _, e := range merged {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	output := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		if isFullDesktopSet(e.release["platforms"].([]any)) {
			e.release["platforms"] = []any{"*"}
		}
		output = append(output, e.release)
	}
	return output
}

func isFullDesktopSet(platforms []any) bool {
	if len(platforms) != 3 {
		return false
	}
	seen := make(map[string]bool, 3)
	for _, p := range platforms {
		name, _ := p.(string)
		seen[name] = true
	}
	return seen["windows"] && seen["linux"] && seen["osx"]
}
