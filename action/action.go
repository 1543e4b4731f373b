package action

import (
	"fmt"

	"github.com/m-manu/virtualpath/pathutil"
	"github.com/m-manu/virtualpath/vfs"
)

// Action is a single mutation across one or two providers.
// Actions are planned first and performed later, so they hold paths rather than nodes.
type Action interface {
	// Perform must perform the actual action
	Perform() error
	// Uniqueness should define a string that's unique with an action
	Uniqueness() string
	String() string
}

const cmdSeparator = "\u0001"

// address renders a path the way the CLI accepts it, "mount:/path"
func address(p *vfs.Provider, virtualPath string) string {
	return p.Name() + ":" + pathutil.Normalize(virtualPath, p.VirtualPathSeparator())
}

func requireFile(p *vfs.Provider, virtualPath string) (*vfs.File, error) {
	f, err := p.GetFile(virtualPath)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf(`file "%s" does not exist`, address(p, virtualPath))
	}
	return f, nil
}

// parentOf creates (if needed) the directory that will hold virtualPath and returns it with the leaf name
func parentOf(p *vfs.Provider, virtualPath string) (*vfs.Directory, string, error) {
	parentPath, name := pathutil.Split(virtualPath, p.VirtualPathSeparator())
	if name == "" {
		return nil, "", fmt.Errorf(`"%s" does not name a file`, address(p, virtualPath))
	}
	dir, err := p.CreateDirectory(parentPath)
	if err != nil {
		return nil, "", err
	}
	return dir, name, nil
}

// PerformAll runs actions in order and stops at the first failure
func PerformAll(actions []Action) (performed int, err error) {
	for _, a := range actions {
		if err := a.Perform(); err != nil {
			return performed, fmt.Errorf("couldn't %s: %w", a, err)
		}
		performed++
	}
	return performed, nil
}
