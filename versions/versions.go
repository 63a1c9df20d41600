// Package versions orders package release records by semantic version.
//
// Release versions found in channel documents range from clean semver
// strings ("1.2.3") over short forms ("1.2") to date stamps from the
// earliest schema generations ("2011.08.01.00.00.00"). Comparison
// coerces what it can into semver and sorts the rest behind every
// parseable version.
package versions

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Release is the minimal view of a release record needed for ordering.
type Release interface {
	VersionString() string
	PlatformList() []string
}

// SortReleases stable-sorts releases by semantic version, newest first
// when descending is true. Releases with equal versions are ordered by
// platform specificity: arch-qualified platform lists before bare OS
// names before the wildcard list.
func SortReleases[R Release](releases []R, descending bool) {
	sort.SliceStable(releases, func(i, j int) bool {
		if descending {
			i, j = j, i
		}
		return releaseLess(releases[i], releases[j])
	})
}

func releaseLess(a, b Release) bool {
	if c := Compare(a.VersionString(), b.VersionString()); c != 0 {
		return c < 0
	}
	return platformScore(a.PlatformList()) < platformScore(b.PlatformList())
}

// Compare returns -1, 0 or 1 ordering a relative to b. Unparseable
// versions order before any parseable version and fall back to lexical
// comparison among themselves.
func Compare(a, b string) int {
	av, aok := parse(a)
	bv, bok := parse(b)

	switch {
	case aok && bok:
		return av.Compare(bv)
	case aok:
		return 1
	case bok:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// parse coerces a raw version string into semver. Short forms like "1"
// and "1.2" are accepted by the underlying parser; date stamps with
// more than three dotted parts are truncated to their first three.
func parse(v string) (*semver.Version, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false
	}

	if parts := strings.Split(v, "."); len(parts) > 3 {
		v = strings.Join(parts[:3], ".")
	}

	sv, err := semver.NewVersion(v)
	if err != nil {
		return nil, false
	}
	return sv, true
}

// platformScore ranks a platform list by how specific it is. The
// wildcard contributes nothing, a bare OS name one point, and an
// arch-qualified name ("windows-x64", "linux-arm64") two.
func platformScore(platforms []string) int {
	score := 0
	for _, p := range platforms {
		switch {
		case p == "*":
		case strings.Contains(p, "-"):
			score += 2
		default:
			score++
		}
	}
	return score
}
