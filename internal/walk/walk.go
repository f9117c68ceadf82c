package walk

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
)

// DuplicatePolicy decides what happens when a folder id is discovered under
// a second, different parent.
type DuplicatePolicy int

const (
	// DuplicateError stops the walk with a *DuplicateFolderError.
	DuplicateError DuplicatePolicy = iota
	// DuplicateKeepFirst keeps the first parent seen and logs a warning.
	DuplicateKeepFirst
)

// Config-file spellings of the duplicate policies.
const (
	duplicateErrorName     = "error"
	duplicateKeepFirstName = "keep_first"
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateError:
		return duplicateErrorName
	case DuplicateKeepFirst:
		return duplicateKeepFirstName
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy converts a config value ("error" or "keep_first").
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case duplicateErrorName, "":
		return DuplicateError, nil
	case duplicateKeepFirstName:
		return DuplicateKeepFirst, nil
	default:
		return DuplicateError, fmt.Errorf("walk: unknown duplicate policy %q (want %q or %q)",
			s, duplicateErrorName, duplicateKeepFirstName)
	}
}

// Walker traverses a remote hierarchy through a Lister. A Walker holds no
// traversal state, so it can serve any number of sequential or concurrent
// Walk calls.
type Walker struct {
	lister   Lister
	logger   *slog.Logger
	policy   DuplicatePolicy
	observer Observer
	known    []Folder
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDuplicatePolicy sets the policy for folders discovered under two
// different parents. The default is DuplicateError.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(w *Walker) {
		w.policy = p
	}
}

// WithObserver registers progress callbacks.
func WithObserver(o Observer) Option {
	return func(w *Walker) {
		if o != nil {
			w.observer = o
		}
	}
}

// WithKnownFolders pre-registers folder identities in every traversal.
// Walks that start below the top level pass the starting folder's
// ancestors here so paths still resolve up to the root.
func WithKnownFolders(folders ...Folder) Option {
	return func(w *Walker) {
		w.known = append(w.known, folders...)
	}
}

// New creates a Walker that lists folders through lister.
func New(lister Lister, opts ...Option) *Walker {
	w := &Walker{
		lister:   lister,
		logger:   slog.Default(),
		policy:   DuplicateError,
		observer: nopObserver{},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// traversal is the per-Walk state. It is created when the sequence starts
// and dropped when it ends.
type traversal struct {
	registry *Registry
	queue    []FolderID
	next     int

	// discoveredBy maps each queued folder to the parent it was found
	// under. The root maps to itself.
	discoveredBy map[FolderID]FolderID

	records int
}

func newTraversal(rootID FolderID) *traversal {
	return &traversal{
		registry:     NewRegistry(),
		queue:        []FolderID{rootID},
		discoveredBy: map[FolderID]FolderID{rootID: rootID},
	}
}

// Walk returns a lazy sequence of every file below rootID. Folders are
// listed breadth-first in discovery order, one ListChildren call at a time,
// and a listing is only fetched when the consumer pulls past the records
// of the previous one. Files within a listing keep the store's order.
//
// The first error ends the sequence: it is yielded once with a zero Record.
// Stopping the range loop early stops the walk without further listings.
// Each iteration of the returned sequence starts a fresh traversal.
func (w *Walker) Walk(ctx context.Context, rootID FolderID) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		t := newTraversal(rootID)

		for _, f := range w.known {
			if err := t.registry.Insert(f); err != nil {
				yield(Record{}, err)
				return
			}
		}

		w.logger.Info("walk started", slog.Int64("root_id", int64(rootID)))

		for t.next < len(t.queue) {
			if err := ctx.Err(); err != nil {
				yield(Record{}, fmt.Errorf("walk: canceled: %w", err))
				return
			}

			id := t.queue[t.next]
			t.next++

			if !w.visit(ctx, t, id, yield) {
				return
			}
		}

		w.logger.Info("walk complete",
			slog.Int64("root_id", int64(rootID)),
			slog.Int("folders", t.next),
			slog.Int("records", t.records),
		)
	}
}

// visit lists one folder, registers it, queues its subfolders and yields
// its files. It returns false when the sequence must end.
func (w *Walker) visit(ctx context.Context, t *traversal, id FolderID, yield func(Record, error) bool) bool {
	listing, err := w.lister.ListChildren(ctx, id)
	if err == nil && listing == nil {
		err = ErrNilListing
	}

	if err != nil {
		yield(Record{}, &TransportError{FolderID: id, Err: err})
		return false
	}

	if err := t.registry.Insert(listing.Parent); err != nil {
		yield(Record{}, err)
		return false
	}

	w.observer.FolderListed(id, len(listing.Files))

	queuedBefore := len(t.queue)

	for i := range listing.Files {
		entry := &listing.Files[i]

		if entry.IsFolder() {
			if err := w.enqueue(t, entry); err != nil {
				yield(Record{}, err)
				return false
			}

			continue
		}

		path, err := t.registry.Resolve(entry.ParentID)
		if err != nil {
			yield(Record{}, err)
			return false
		}

		rec := Record{
			Name:  entry.Name,
			Path:  path,
			ID:    FileID(entry.ID),
			Size:  entry.Size,
			CRC32: entry.CRC32,
		}

		t.records++
		w.observer.RecordEmitted(rec)

		if !yield(rec, nil) {
			w.logger.Debug("walk stopped by consumer",
				slog.Int64("folder_id", int64(id)),
				slog.Int("records", t.records),
			)

			return false
		}
	}

	w.logger.Debug("listed folder",
		slog.Int64("folder_id", int64(id)),
		slog.String("name", listing.Parent.Name),
		slog.Int("children", len(listing.Files)),
		slog.Int("queued", len(t.queue)-queuedBefore),
		slog.Int("pending", len(t.queue)-t.next),
	)

	return true
}

// enqueue appends a newly discovered folder to the work-list. A folder that
// is already queued is never queued again; if it shows up under a different
// parent the duplicate policy decides between failing and ignoring it.
func (w *Walker) enqueue(t *traversal, entry *Entry) error {
	id := FolderID(entry.ID)

	first, seen := t.discoveredBy[id]
	if !seen {
		t.discoveredBy[id] = entry.ParentID
		t.queue = append(t.queue, id)

		return nil
	}

	if first == entry.ParentID {
		return nil
	}

	if w.policy == DuplicateKeepFirst {
		w.logger.Warn("folder discovered under a second parent, keeping the first",
			slog.Int64("folder_id", int64(id)),
			slog.Int64("first_parent_id", int64(first)),
			slog.Int64("second_parent_id", int64(entry.ParentID)),
		)

		return nil
	}

	existing := Folder{ID: id, ParentID: first, HasParent: true}
	if f, ok := t.registry.Lookup(id); ok {
		existing = f
	}

	return &DuplicateFolderError{
		ID:       id,
		Existing: existing,
		Conflict: Folder{ID: id, Name: entry.Name, ParentID: entry.ParentID, HasParent: true},
	}
}

// Collect drains seq. It returns every record, or the records read so far
// together with the error that ended the sequence.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var records []Record

	for rec, err := range seq {
		if err != nil {
			return records, err
		}

		records = append(records, rec)
	}

	return records, nil
}
