package tree

import (
	"errors"
	"fmt"
)

// ErrRootUnreadable marks the one traversal failure that is fatal:
// the root itself could not be read.
var ErrRootUnreadable = errors.New("root directory is not readable")

// NodeError records a directory that could not be scanned during
// traversal. The node stays in the tree with no children so the
// failure is visible in place.
type NodeError struct {
	Path string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
