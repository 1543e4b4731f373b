package entity

import (
	"fmt"
	"time"
)

type FileMeta struct {
	Size     int64
	Modified time.Time
}

func (f FileMeta) String() string {
	return fmt.Sprintf("{size: %d, modified: %v}", f.Size, f.Modified.Format(time.RFC3339))
}
