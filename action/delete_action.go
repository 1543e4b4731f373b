package action

import (
	"fmt"

	"github.com/m-manu/virtualpath/vfs"
)

// DeleteAction removes a file, or a directory with everything below it
type DeleteAction struct {
	Provider *vfs.Provider
	Path     string
}

func (a DeleteAction) Perform() error {
	return a.Provider.Delete(a.Path)
}

func (a DeleteAction) Uniqueness() string {
	return "rm" + cmdSeparator + address(a.Provider, a.Path)
}

func (a DeleteAction) String() string {
	return fmt.Sprintf(`delete "%s"`, address(a.Provider, a.Path))
}
