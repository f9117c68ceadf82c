package main

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/putiodown/internal/walk"
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List every file below a folder, breadth-first",
		Long: `List every file below a folder, breadth-first.

Each line is the file's path and id, separated by a tab. With --json each
line is a JSON object; with --tree the files are drawn as a tree.`,
		Args: cobra.NoArgs,
		RunE: runLs,
	}

	cmd.Flags().Int64("folder", int64(walk.RootID), "folder id to start from (0 = account root)")
	cmd.Flags().Bool("tree", false, "draw the listing as a tree")

	return cmd
}

func runLs(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx, stop := shutdownContext(cmd.Context(), cc.Logger)
	defer stop()

	folder, err := cmd.Flags().GetInt64("folder")
	if err != nil {
		return err
	}

	asTree, err := cmd.Flags().GetBool("tree")
	if err != nil {
		return err
	}

	if asTree && cc.Flags.JSON {
		return fmt.Errorf("--tree and --json are mutually exclusive")
	}

	session, err := NewSession(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	m := newRunMetrics(cc)
	defer finishRunMetrics(cc, m)

	w, err := newWalker(ctx, cc, session.Client, walk.FolderID(folder), m)
	if err != nil {
		return err
	}

	seq := w.Walk(ctx, walk.FolderID(folder))
	out := cmd.OutOrStdout()

	switch {
	case asTree:
		return printRecordTree(out, seq)
	case cc.Flags.JSON:
		return printRecordsJSON(out, seq)
	default:
		return printRecords(out, seq)
	}
}

// printRecords writes one "path<TAB>id" line per record as it arrives.
func printRecords(w io.Writer, seq iter.Seq2[walk.Record, error]) error {
	for rec, err := range seq {
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "%s\t%d\n", recordPath(rec), rec.ID); err != nil {
			return err
		}
	}

	return nil
}

// lsJSONRecord is the JSON output schema for a single record in ls output.
type lsJSONRecord struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	ID    int64  `json:"id"`
	Size  int64  `json:"size"`
	CRC32 string `json:"crc32,omitempty"`
}

// printRecordsJSON writes one JSON object per line.
func printRecordsJSON(w io.Writer, seq iter.Seq2[walk.Record, error]) error {
	enc := json.NewEncoder(w)

	for rec, err := range seq {
		if err != nil {
			return err
		}

		if err := enc.Encode(lsJSONRecord{
			Name:  rec.Name,
			Path:  rec.Path,
			ID:    int64(rec.ID),
			Size:  rec.Size,
			CRC32: rec.CRC32,
		}); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}
	}

	return nil
}

// printRecordTree collects the whole walk and draws it. Nothing is printed
// if the walk fails.
func printRecordTree(w io.Writer, seq iter.Seq2[walk.Record, error]) error {
	recs, err := walk.Collect(seq)
	if err != nil {
		return err
	}

	t := newRecordTree()
	for _, rec := range recs {
		t.insert(rec)
	}

	_, err = io.WriteString(w, t.render())

	return err
}

// recordTree renders records below a single root node. Folder nodes are
// created on first use and keyed by their full path.
type recordTree struct {
	root gotree.Tree
	dirs map[string]gotree.Tree
}

func newRecordTree() *recordTree {
	return &recordTree{root: gotree.New(walk.RootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t *recordTree) insert(rec walk.Record) {
	t.dir(rec.Path).Add(fmt.Sprintf("%s [%d]", rec.Name, rec.ID))
}

// dir returns the node for path, which starts with the root label.
func (t *recordTree) dir(path string) gotree.Tree {
	segments := strings.Split(path, string(filepath.Separator))

	node := t.root
	key := ""

	for _, s := range segments[1:] {
		key += string(filepath.Separator) + s

		child, ok := t.dirs[key]
		if !ok {
			child = node.Add(s + "/")
			t.dirs[key] = child
		}

		node = child
	}

	return node
}

func (t *recordTree) render() string {
	return t.root.Print()
}
