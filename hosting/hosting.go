// Package hosting rewrites URLs that reference deprecated hosting
// endpoints to their current equivalents.
//
// Channel and repository documents in the wild still carry URLs minted
// a decade ago. GitHub retired raw.github.com and nodeload.github.com,
// moved zipball downloads to codeload, and the original channel host
// moved from wbond.net to packagecontrol.io. Update maps all of those
// onto the URLs that actually resolve today.
package hosting

import (
	"regexp"
	"strings"
)

var (
	githubZipball   = regexp.MustCompile(`^(https?://)github\.com/([^/#?]+/[^/#?]+)/zipball/(.+)$`)
	codeloadZipball = regexp.MustCompile(`^(https?://)codeload\.github\.com/([^/#?]+/[^/#?]+)/zipball/(.+)$`)
)

// Update rewrites a URL hosted on a deprecated endpoint to its current
// equivalent. URLs that reference no known legacy endpoint are returned
// unchanged, as are empty strings. Update is pure and performs no I/O.
func Update(url string) string {
	if url == "" {
		return url
	}

	url = strings.Replace(url, "://raw.github.com/", "://raw.githubusercontent.com/", 1)
	url = strings.Replace(url, "://nodeload.github.com/", "://codeload.github.com/", 1)

	if m := githubZipball.FindStringSubmatch(url); m != nil {
		url = m[1] + "codeload.github.com/" + m[2] + "/zip/" + m[3]
	} else if m := codeloadZipball.FindStringSubmatch(url); m != nil {
		url = m[1] + "codeload.github.com/" + m[2] + "/zip/" + m[3]
	}

	url = strings.Replace(url, "://wbond.net/sublime_packages/", "://packagecontrol.io/", 1)
	url = strings.Replace(url, "://sublime.wbond.net/", "://packagecontrol.io/", 1)

	return url
}
