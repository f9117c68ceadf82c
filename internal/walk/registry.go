package walk

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry maps folder ids to their name and parent. Entries are
// write-once: a folder's identity never changes after it is recorded.
// A Registry is not safe for concurrent use.
type Registry struct {
	folders map[FolderID]Folder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{folders: make(map[FolderID]Folder)}
}

// Insert records a folder's identity. Inserting identical data again is a
// no-op; inserting a different name or parent for a known id returns a
// *DuplicateFolderError and leaves the first entry in place.
func (r *Registry) Insert(f Folder) error {
	existing, ok := r.folders[f.ID]
	if !ok {
		r.folders[f.ID] = f
		return nil
	}

	if existing == f {
		return nil
	}

	return &DuplicateFolderError{ID: f.ID, Existing: existing, Conflict: f}
}

// Lookup returns the recorded identity of id.
func (r *Registry) Lookup(id FolderID) (Folder, bool) {
	f, ok := r.folders[id]
	return f, ok
}

// Len returns the number of registered folders.
func (r *Registry) Len() int {
	return len(r.folders)
}

// Resolve returns the path from the root to id, inclusive of id's own name.
// The root contributes RootLabel instead of its store name, so the root
// itself resolves to RootLabel. Segments are joined with the platform
// separator without cleaning, so names are preserved exactly.
func (r *Registry) Resolve(id FolderID) (string, error) {
	var names []string

	cur := id
	for steps := 0; ; steps++ {
		f, ok := r.folders[cur]
		if !ok {
			return "", &UnknownFolderError{From: id, Missing: cur}
		}

		if !f.HasParent {
			break
		}

		if steps >= len(r.folders) {
			return "", fmt.Errorf("walk: resolving folder %d: %w", id, ErrCycle)
		}

		names = append(names, f.Name)
		cur = f.ParentID
	}

	segments := make([]string, 0, len(names)+1)
	segments = append(segments, RootLabel)

	for i := len(names) - 1; i >= 0; i-- {
		segments = append(segments, names[i])
	}

	return strings.Join(segments, string(filepath.Separator)), nil
}
