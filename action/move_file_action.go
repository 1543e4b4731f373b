package action

import (
	"fmt"

	"github.com/m-manu/virtualpath/vfs"
)

// MoveFileAction moves or renames a file, possibly to another provider
type MoveFileAction struct {
	Source          *vfs.Provider
	SourcePath      string
	Destination     *vfs.Provider
	DestinationPath string
}

// Perform 'file move/rename' action
func (a MoveFileAction) Perform() error {
	f, err := requireFile(a.Source, a.SourcePath)
	if err != nil {
		return err
	}
	dir, name, err := parentOf(a.Destination, a.DestinationPath)
	if err != nil {
		return err
	}
	_, err = f.MoveTo(dir, name)
	return err
}

// Uniqueness generates unique string for file renaming/movement
func (a MoveFileAction) Uniqueness() string {
	return "mv" + cmdSeparator + address(a.Source, a.SourcePath)
}

func (a MoveFileAction) String() string {
	return fmt.Sprintf(`rename/move file from "%s" to "%s"`, address(a.Source, a.SourcePath), address(a.Destination, a.DestinationPath))
}
