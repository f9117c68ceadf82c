package putio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// Page sizes for files/list. put.io accepts up to 1000 entries per page.
const (
	defaultPerPage = 1000
	maxPerPage     = 1000
)

// maxAncestorDepth bounds Ancestors against a malformed parent chain.
const maxAncestorDepth = 256

// fileResponse mirrors the put.io file JSON object.
// Unexported; callers receive walk types via toEntry/toFolder.
type fileResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ParentID    *int64 `json:"parent_id"`
	ContentType string `json:"content_type"`
	FileType    string `json:"file_type"`
	Size        int64  `json:"size"`
	CRC32       string `json:"crc32"`
}

type listResponse struct {
	Files  []fileResponse `json:"files"`
	Parent fileResponse   `json:"parent"`
	Cursor string         `json:"cursor"`
	Total  int            `json:"total"`
}

type continueResponse struct {
	Files  []fileResponse `json:"files"`
	Cursor string         `json:"cursor"`
}

type getFileResponse struct {
	File fileResponse `json:"file"`
}

type fileURLResponse struct {
	URL string `json:"url"`
}

func (f *fileResponse) toFolder() walk.Folder {
	folder := walk.Folder{ID: walk.FolderID(f.ID), Name: f.Name}
	if f.ParentID != nil {
		folder.ParentID = walk.FolderID(*f.ParentID)
		folder.HasParent = true
	}

	return folder
}

func (f *fileResponse) toEntry() walk.Entry {
	e := walk.Entry{
		ID:          f.ID,
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		CRC32:       f.CRC32,
	}

	if f.ParentID != nil {
		e.ParentID = walk.FolderID(*f.ParentID)
	}

	return e
}

// ListChildren returns the folder's own identity and every direct child,
// following the listing cursor until put.io reports no more pages. Children
// keep the order of the pages. It implements walk.Lister.
func (c *Client) ListChildren(ctx context.Context, id walk.FolderID) (*walk.Listing, error) {
	q := url.Values{}
	q.Set("parent_id", strconv.FormatInt(int64(id), 10))
	q.Set("per_page", strconv.Itoa(c.perPage))

	var first listResponse
	if err := c.getJSON(ctx, "/files/list?"+q.Encode(), &first); err != nil {
		return nil, fmt.Errorf("putio: listing folder %d: %w", id, err)
	}

	listing := &walk.Listing{
		Parent: first.Parent.toFolder(),
		Files:  make([]walk.Entry, 0, max(first.Total, len(first.Files))),
	}

	for i := range first.Files {
		listing.Files = append(listing.Files, first.Files[i].toEntry())
	}

	cursor := first.Cursor
	page := 1

	for cursor != "" {
		page++

		form := url.Values{}
		form.Set("cursor", cursor)
		form.Set("per_page", strconv.Itoa(c.perPage))

		var next continueResponse
		if err := c.doJSON(ctx, http.MethodPost, "/files/list/continue", form, &next); err != nil {
			return nil, fmt.Errorf("putio: listing folder %d page %d: %w", id, page, err)
		}

		for i := range next.Files {
			listing.Files = append(listing.Files, next.Files[i].toEntry())
		}

		cursor = next.Cursor
	}

	c.logger.Debug("listed folder",
		slog.Int64("folder_id", int64(id)),
		slog.Int("children", len(listing.Files)),
		slog.Int("pages", page),
	)

	return listing, nil
}

// Ancestors returns the identities of every folder above id, root first,
// excluding id itself. Walks that start below the top level pass these to
// walk.WithKnownFolders so paths resolve up to the root.
func (c *Client) Ancestors(ctx context.Context, id walk.FolderID) ([]walk.Folder, error) {
	var chain []walk.Folder

	cur := int64(id)
	for depth := 0; ; depth++ {
		if depth > maxAncestorDepth {
			return nil, fmt.Errorf("putio: folder %d is nested deeper than %d levels", id, maxAncestorDepth)
		}

		var r getFileResponse
		if err := c.getJSON(ctx, "/files/"+strconv.FormatInt(cur, 10), &r); err != nil {
			return nil, fmt.Errorf("putio: resolving ancestors of %d: %w", id, err)
		}

		f := r.File.toFolder()
		if cur != int64(id) {
			chain = append(chain, f)
		}

		if !f.HasParent {
			break
		}

		cur = int64(f.ParentID)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain, nil
}

// FileURL returns a short-lived download URL for a file.
// The URL embeds credentials and must never be logged.
func (c *Client) FileURL(ctx context.Context, id walk.FileID) (string, error) {
	var r fileURLResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/files/%d/url", id), &r); err != nil {
		return "", fmt.Errorf("putio: getting download URL for %d: %w", id, err)
	}

	if r.URL == "" {
		return "", fmt.Errorf("putio: file %d: %w", id, ErrNoDownloadURL)
	}

	return r.URL, nil
}
