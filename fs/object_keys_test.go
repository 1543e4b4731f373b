package fs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeys(t *testing.T) {
	bare := newObjectKeys("")
	assert.Equal(t, "", bare.dir("/"))
	assert.Equal(t, "a/b.txt", bare.file("/a/b.txt"))
	assert.Equal(t, "a/", bare.dir("/a"))

	prefixed := newObjectKeys(`/team\data/`)
	assert.Equal(t, "team/data/", prefixed.dir("/"))
	assert.Equal(t, "team/data/x", prefixed.file("x"))
	assert.Equal(t, "team/data/x/y/", prefixed.dir("/x//y/"))
}

func TestObjectListing(t *testing.T) {
	now := time.Now()
	l := newObjectListing("docs/")
	l.addObject("docs/", 0, now)
	l.addObject("docs/readme.md", 7, now)
	l.addObject("docs/img/", 0, now)
	l.addPrefix("docs/img/")
	l.addPrefix("docs/api/")

	assert.True(t, l.marker)
	assert.True(t, l.exists(false))
	assert.Equal(t, []string{"api", "img", "readme.md"}, names(sortEntries(l.entries)))

	empty := newObjectListing("nothing/")
	assert.False(t, empty.exists(false))
	assert.True(t, empty.exists(true))
}
