package vfs

import "time"

// Node is what directories and files have in common
type Node interface {
	Name() string
	VirtualPath() string
	RealPath() string
	LastModified() time.Time
	IsDirectory() bool
	Provider() *Provider
	Remove() error
}

var (
	_ Node = (*Directory)(nil)
	_ Node = (*File)(nil)
)

// SameNode tells whether a and b denote the same path of the same provider.
// Distinct wrapper instances of one node compare equal.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Provider() == b.Provider() && a.IsDirectory() == b.IsDirectory() && a.VirtualPath() == b.VirtualPath()
}
