package core

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	httpLocation = regexp.MustCompile(`(?i)^https?://`)
	schemePrefix = regexp.MustCompile(`(?i)^(https?:)//`)
)

// resolveRepository resolves one repository entry against the
// channel's own location. ok is false when the entry is disallowed:
// channels may not reference root-absolute filesystem paths as
// repositories, so those are skipped rather than treated as errors.
//
// Entries starting with "//" inherit the channel's scheme (https when
// the channel is a filesystem path). Entries starting with "./" or
// "../" resolve against the channel URL or against the directory
// containing the channel file. Everything else passes through.
func resolveRepository(entry, channelLocation string) (resolved string, ok bool) {
	scheme := schemePrefix.FindStringSubmatch(channelLocation)

	switch {
	case strings.HasPrefix(entry, "//"):
		if scheme != nil {
			return scheme[1] + entry, true
		}
		return "https:" + entry, true

	case strings.HasPrefix(entry, "/"):
		return "", false

	case strings.HasPrefix(entry, "./") || strings.HasPrefix(entry, "../"):
		if scheme != nil {
			base, err := url.Parse(channelLocation)
			if err != nil {
				return entry, true
			}
			ref, err := url.Parse(entry)
			if err != nil {
				return entry, true
			}
			return base.ResolveReference(ref).String(), true
		}
		return filepath.Join(filepath.Dir(channelLocation), entry), true

	default:
		return entry, true
	}
}
