// Package walk discovers a remote folder hierarchy one listing at a time and
// yields every file it finds together with the folder path leading to it.
//
// The hierarchy is never materialized as a tree. A Registry keeps only the
// name and parent of each listed folder, which is enough to rebuild any
// file's path on demand, and a FIFO work-list drives the breadth-first
// discovery of folders that have not been listed yet.
package walk

import "context"

// FolderID identifies a folder in the remote store.
type FolderID int64

// FileID identifies a file in the remote store.
type FileID int64

// RootID is the id of the store's top-level folder.
const RootID FolderID = 0

// RootLabel is the first segment of every resolved path. It stands for the
// store's top level regardless of the name the store reports for it.
const RootLabel = "root"

// DirectoryContentType marks folder entries in a listing. Any other content
// type is a plain file.
const DirectoryContentType = "application/x-directory"

// Folder is the identity of a listed folder: its own name and the folder
// that contains it. HasParent is false only for the root.
type Folder struct {
	ID        FolderID
	Name      string
	ParentID  FolderID
	HasParent bool
}

// Entry is one direct child reported by a listing.
type Entry struct {
	ID          int64
	Name        string
	ParentID    FolderID
	ContentType string
	Size        int64
	CRC32       string // hex, empty when the store did not report one
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.ContentType == DirectoryContentType
}

// Listing is the full response for one folder: the folder's own identity
// and all of its direct children, in the order the store returned them.
type Listing struct {
	Parent Folder
	Files  []Entry
}

// Record is a discovered file. Path is the folder path from RootLabel down
// to the file's parent folder; it never includes Name.
type Record struct {
	Name  string
	Path  string
	ID    FileID
	Size  int64
	CRC32 string
}

// Lister returns every direct child of a folder in a single call. Stores
// that paginate must exhaust all pages before returning.
type Lister interface {
	ListChildren(ctx context.Context, id FolderID) (*Listing, error)
}

// ListerFunc adapts an ordinary function to the Lister interface.
type ListerFunc func(ctx context.Context, id FolderID) (*Listing, error)

// ListChildren calls f(ctx, id).
func (f ListerFunc) ListChildren(ctx context.Context, id FolderID) (*Listing, error) {
	return f(ctx, id)
}

// Observer is notified as a walk progresses. Implementations must not block.
type Observer interface {
	FolderListed(id FolderID, children int)
	RecordEmitted(r Record)
}

type nopObserver struct{}

func (nopObserver) FolderListed(FolderID, int) {}
func (nopObserver) RecordEmitted(Record)       {}
