package walk

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check.
var (
	// ErrCycle is returned when a parent chain does not reach the root
	// within as many steps as there are registered folders.
	ErrCycle = errors.New("walk: parent chain does not terminate")

	// ErrNilListing is wrapped in a TransportError when a Lister returns
	// neither a listing nor an error.
	ErrNilListing = errors.New("walk: lister returned no listing")
)

// TransportError wraps a failed ListChildren call. The walk stops at the
// first one; retrying is the Lister's responsibility.
type TransportError struct {
	FolderID FolderID
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("walk: listing folder %d: %v", e.FolderID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnknownFolderError reports a path resolution that reached a folder id
// with no registered identity. Missing is the unregistered ancestor and
// From is the id whose path was requested.
type UnknownFolderError struct {
	From    FolderID
	Missing FolderID
}

func (e *UnknownFolderError) Error() string {
	if e.From == e.Missing {
		return fmt.Sprintf("walk: folder %d is not registered", e.Missing)
	}

	return fmt.Sprintf("walk: resolving folder %d: ancestor %d is not registered", e.From, e.Missing)
}

// DuplicateFolderError reports a folder id seen twice with conflicting
// identity: a different name or parent in the registry, or discovery under
// a second parent during traversal.
type DuplicateFolderError struct {
	ID       FolderID
	Existing Folder
	Conflict Folder
}

func (e *DuplicateFolderError) Error() string {
	return fmt.Sprintf("walk: folder %d already registered as %q (parent %d), got %q (parent %d)",
		e.ID, e.Existing.Name, e.Existing.ParentID, e.Conflict.Name, e.Conflict.ParentID)
}
