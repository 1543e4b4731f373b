package action

import (
	"fmt"

	"github.com/m-manu/virtualpath/vfs"
)

// MakeDirectoryAction creates a directory and any missing parent
type MakeDirectoryAction struct {
	Provider *vfs.Provider
	Path     string
}

// Perform the 'create directory' action
func (a MakeDirectoryAction) Perform() error {
	_, err := a.Provider.CreateDirectory(a.Path)
	return err
}

// Uniqueness generates unique string for directory creation
func (a MakeDirectoryAction) Uniqueness() string {
	return "Mkdir" + cmdSeparator + address(a.Provider, a.Path)
}

func (a MakeDirectoryAction) String() string {
	return fmt.Sprintf(`create directory "%s"`, address(a.Provider, a.Path))
}
