package lib

import (
	"fmt"
	"path"
	"strings"

	set "github.com/deckarep/golang-set/v2"
)

// GetFileExt gets file extension in lower case
func GetFileExt(name string) string {
	return strings.ToLower(path.Ext(name))
}

// ParseKeyValues parses "k1=v1,k2=v2" into a map. Keys are trimmed; values keep inner spaces.
func ParseKeyValues(s string) (map[string]string, error) {
	values := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return values, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, found := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !found || k == "" {
			return nil, fmt.Errorf("malformed option %q (expected key=value)", pair)
		}
		values[k] = v
	}
	return values, nil
}

// LineSeparatedStrToSet converts a line-separated string to a set, ignoring blank lines.
// firstFew holds up to three of the lines, for display.
func LineSeparatedStrToSet(lineSeparatedString string) (lines set.Set[string], firstFew []string) {
	lines = set.NewSetWithSize[string](20)
	firstFew = []string{}
	for _, e := range strings.Split(lineSeparatedString, "\n") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		lines.Add(e)
		if len(firstFew) < 3 {
			firstFew = append(firstFew, e)
		}
	}
	return
}
