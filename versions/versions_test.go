package versions

import (
	"reflect"
	"testing"
)

type release struct {
	version   string
	platforms []string
}

func (r release) VersionString() string  { return r.version }
func (r release) PlatformList() []string { return r.platforms }

func versionsOf(releases []release) []string {
	out := make([]string, len(releases))
	for i, r := range releases {
		out[i] = r.version
	}
	return out
}

func TestSortReleasesDescending(t *testing.T) {
	releases := []release{
		{version: "1.2.0", platforms: []string{"*"}},
		{version: "2.0.1", platforms: []string{"*"}},
		{version: "1.10.0", platforms: []string{"*"}},
		{version: "2.0.0", platforms: []string{"*"}},
	}

	SortReleases(releases, true)

	want := []string{"2.0.1", "2.0.0", "1.10.0", "1.2.0"}
	if got := versionsOf(releases); !reflect.DeepEqual(got, want) {
		t.Errorf("SortReleases descending = %v, want %v", got, want)
	}
}

func TestSortReleasesRoundTrip(t *testing.T) {
	releases := []release{
		{version: "3.1.4", platforms: []string{"*"}},
		{version: "0.9.0", platforms: []string{"*"}},
		{version: "2.0.0", platforms: []string{"*"}},
		{version: "1.0.0", platforms: []string{"*"}},
	}

	descending := make([]release, len(releases))
	copy(descending, releases)
	SortReleases(descending, true)

	ascending := make([]release, len(releases))
	copy(ascending, releases)
	SortReleases(ascending, false)

	for i := range descending {
		if descending[i].version != ascending[len(ascending)-1-i].version {
			t.Fatalf("descending reversed != ascending: %v vs %v",
				versionsOf(descending), versionsOf(ascending))
		}
	}
}

func TestSortReleasesPlatformTieBreak(t *testing.T) {
	releases := []release{
		{version: "1.0.0", platforms: []string{"*"}},
		{version: "1.0.0", platforms: []string{"windows-x64"}},
		{version: "1.0.0", platforms: []string{"windows"}},
	}

	SortReleases(releases, true)

	want := [][]string{{"windows-x64"}, {"windows"}, {"*"}}
	for i, r := range releases {
		if !reflect.DeepEqual(r.platforms, want[i]) {
			t.Errorf("release %d platforms = %v, want %v", i, r.platforms, want[i])
		}
	}
}

func TestSortReleasesShortAndDatedVersions(t *testing.T) {
	releases := []release{
		{version: "2011.08.01.00.00.00", platforms: []string{"*"}},
		{version: "1.2", platforms: []string{"*"}},
		{version: "not-a-version", platforms: []string{"*"}},
	}

	SortReleases(releases, true)

	// Date stamps coerce to huge majors and outrank everything else;
	// unparseable versions sink to the end.
	want := []string{"2011.08.01.00.00.00", "1.2", "not-a-version"}
	if got := versionsOf(releases); !reflect.DeepEqual(got, want) {
		t.Errorf("SortReleases = %v, want %v", got, want)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.2", "1.2.0", 0},
		{"garbage", "1.0.0", -1},
		{"1.0.0", "garbage", 1},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
