package action

import (
	"fmt"

	"github.com/m-manu/virtualpath/vfs"
)

// CopyFileAction copies a file, possibly to another provider.
// Missing parent directories at the destination are created.
type CopyFileAction struct {
	Source          *vfs.Provider
	SourcePath      string
	Destination     *vfs.Provider
	DestinationPath string
}

// Perform executes the copy action.
func (a CopyFileAction) Perform() error {
	f, err := requireFile(a.Source, a.SourcePath)
	if err != nil {
		return err
	}
	dir, name, err := parentOf(a.Destination, a.DestinationPath)
	if err != nil {
		return err
	}
	_, err = f.CopyTo(dir, name)
	return err
}

// Uniqueness generates unique string for file copy
func (a CopyFileAction) Uniqueness() string {
	return "cp" + cmdSeparator + address(a.Destination, a.DestinationPath)
}

func (a CopyFileAction) String() string {
	return fmt.Sprintf(`copy file "%s" to "%s"`, address(a.Source, a.SourcePath), address(a.Destination, a.DestinationPath))
}
