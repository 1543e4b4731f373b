package fs

import (
	"strings"
	"time"
)

// objectKeys maps backend paths onto keys of a flat object store.
// Directories are zero-byte objects whose key ends with "/", plus whatever common prefixes exist.
type objectKeys struct {
	prefix string // "" or "some/prefix/"
}

func newObjectKeys(prefix string) objectKeys {
	prefix = strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/")
	if prefix != "" {
		prefix += "/"
	}
	return objectKeys{prefix: prefix}
}

// file returns the object key of a file
func (k objectKeys) file(p string) string {
	return k.prefix + strings.TrimPrefix(clean(p), "/")
}

// dir returns the key prefix of a directory, "" (or the bare prefix) for the root
func (k objectKeys) dir(p string) string {
	p = clean(p)
	if p == "/" {
		return k.prefix
	}
	return k.file(p) + "/"
}

// objectListing accumulates the result of one delimiter listing
type objectListing struct {
	dirKey  string
	entries []Entry
	seen    map[string]struct{}
	marker  bool // dirKey itself exists as an object
}

func newObjectListing(dirKey string) *objectListing {
	return &objectListing{dirKey: dirKey, seen: map[string]struct{}{}}
}

func (l *objectListing) addPrefix(prefix string) {
	name := strings.TrimSuffix(strings.TrimPrefix(prefix, l.dirKey), "/")
	if name == "" || strings.Contains(name, "/") {
		return
	}
	if _, dup := l.seen[name]; dup {
		return
	}
	l.seen[name] = struct{}{}
	l.entries = append(l.entries, Entry{Name: name, IsDir: true})
}

func (l *objectListing) addObject(key string, size int64, modTime time.Time) {
	if key == l.dirKey {
		l.marker = true
		return
	}
	if strings.HasSuffix(key, "/") {
		l.addPrefix(key)
		return
	}
	name := strings.TrimPrefix(key, l.dirKey)
	if name == "" || strings.Contains(name, "/") {
		return
	}
	l.entries = append(l.entries, Entry{Name: name, ModTime: modTime, Size: size})
}

// exists tells whether the listed directory is there at all
func (l *objectListing) exists(isRoot bool) bool {
	return isRoot || l.marker || len(l.entries) > 0
}
