package ikuuu

import (
	"regexp"
	"strings"
)

// cookiePattern captures the name and value of a Set-Cookie fragment; the
// value runs up to the first attribute separator.
var cookiePattern = regexp.MustCompile(`^\s*([^=;]+)=([^;]*)`)

// AssembleCookie normalizes raw Set-Cookie fragments into a single
// "name=value; ..." header string. Later fragments of the same name
// overwrite earlier ones; insertion order is first-seen. Fragments that do
// not parse are dropped. Returns "" when nothing parses — callers treat
// that as a failed extraction.
func AssembleCookie(fragments []string) string {
	values := make(map[string]string)
	var order []string

	for _, fragment := range fragments {
		m := cookiePattern.FindStringSubmatch(fragment)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = strings.TrimSpace(m[2])
	}

	pairs := make([]string, 0, len(order))
	for _, name := range order {
		pairs = append(pairs, name+"="+values[name])
	}
	return strings.Join(pairs, "; ")
}
