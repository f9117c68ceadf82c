// Package download turns a walk's record stream into local files. Records
// are pulled in order and handed to a bounded worker pool, so the walk only
// runs as far ahead of the transfers as the pool allows.
package download

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// Outcome labels passed to Observer.DownloadFinished.
const (
	StatusDownloaded = "downloaded"
	StatusSkipped    = "skipped"
	StatusPlanned    = "planned"
	StatusFailed     = "failed"
)

// partialSuffix marks a file that is still being written.
const partialSuffix = ".partial"

// Directory and file permissions for downloaded content.
const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// DefaultWorkers is used when Config.Workers is not positive.
const DefaultWorkers = 4

// ErrChecksumMismatch is returned when downloaded content does not match
// the CRC32 reported by the store.
var ErrChecksumMismatch = errors.New("download: crc32 mismatch")

// ErrTargetConflict is returned for a record whose local path was already
// claimed by an earlier record of the same run. Duplicate remote names and
// names that differ only before sanitizing or normalization both map to
// one path; the first record in walk order keeps it.
var ErrTargetConflict = errors.New("download: local path already claimed by another file")

// Fetcher streams a file's content.
type Fetcher interface {
	Download(ctx context.Context, id walk.FileID, w io.Writer) (int64, error)
}

// Ledger remembers completed downloads across runs.
type Ledger interface {
	Has(ctx context.Context, id walk.FileID) (bool, error)
	Record(ctx context.Context, runID string, rec walk.Record) error
}

// Observer is notified after every record is handled.
type Observer interface {
	DownloadFinished(rec walk.Record, status string, bytes int64)
}

// Config controls a Downloader.
type Config struct {
	Dir            string
	Workers        int
	VerifyCRC32    bool
	NormalizeNames bool // NFC-normalize path segments
	SkipExisting   bool // skip files already on disk with the expected size
	DryRun         bool

	// Ledger and RunID are optional. With a Ledger, files it already knows
	// are skipped and completed files are recorded under RunID.
	Ledger Ledger
	RunID  string

	Observer Observer

	// IsFatal marks per-file errors that must stop the whole run, such as
	// a revoked token. Context cancellation is always fatal.
	IsFatal func(error) bool
}

// FileError is a per-file failure that did not stop the run.
type FileError struct {
	Record walk.Record
	Err    error
}

// Report summarizes a run.
type Report struct {
	Downloaded int
	Skipped    int
	Planned    int // dry run only
	Failed     int
	Bytes      int64
	Errors     []FileError
}

// Downloader writes records below Config.Dir.
type Downloader struct {
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger
}

// New creates a Downloader.
func New(fetcher Fetcher, cfg Config, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	return &Downloader{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Run downloads every record of seq. It stops pulling at the first walk
// error or fatal download error and returns it after in-flight downloads
// finish. Per-file failures are collected in the report instead.
func (d *Downloader) Run(ctx context.Context, seq iter.Seq2[walk.Record, error]) (*Report, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	report := &Report{}

	var (
		mu      sync.Mutex
		walkErr error
	)

	// Only the pulling goroutine touches claimed.
	claimed := make(map[string]walk.FileID)

	d.logger.Info("download: starting",
		slog.String("dir", d.cfg.Dir),
		slog.Int("workers", d.cfg.Workers),
		slog.Bool("dry_run", d.cfg.DryRun),
	)

	for rec, err := range seq {
		if err != nil {
			walkErr = err
			break
		}

		if gctx.Err() != nil {
			break
		}

		target := LocalPath(d.cfg.Dir, rec, d.cfg.NormalizeNames)
		owner, taken := claimed[target]
		if !taken {
			claimed[target] = rec.ID
		}

		g.Go(func() error {
			var (
				status string
				n      int64
				err    error
			)

			if taken {
				err = fmt.Errorf("%w: %s (file %d)", ErrTargetConflict, target, owner)
			} else {
				status, n, err = d.handle(gctx, rec, target)
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if d.isFatal(gctx, err) {
					return err
				}

				report.Failed++
				report.Errors = append(report.Errors, FileError{Record: rec, Err: err})
				d.logger.Warn("download: file failed",
					slog.Int64("file_id", int64(rec.ID)),
					slog.String("path", rec.Path+string(filepath.Separator)+rec.Name),
					slog.String("error", err.Error()),
				)
				d.observe(rec, StatusFailed, 0)

				return nil
			}

			switch status {
			case StatusDownloaded:
				report.Downloaded++
				report.Bytes += n
			case StatusSkipped:
				report.Skipped++
			case StatusPlanned:
				report.Planned++
			}

			d.observe(rec, status, n)

			return nil
		})
	}

	poolErr := g.Wait()

	d.logger.Info("download: finished",
		slog.Int("downloaded", report.Downloaded),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int64("bytes", report.Bytes),
	)

	switch {
	case walkErr != nil && poolErr != nil:
		return report, errors.Join(walkErr, poolErr)
	case walkErr != nil:
		return report, walkErr
	case poolErr != nil:
		return report, poolErr
	default:
		return report, ctx.Err()
	}
}

func (d *Downloader) isFatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return true
	}

	return d.cfg.IsFatal != nil && d.cfg.IsFatal(err)
}

func (d *Downloader) observe(rec walk.Record, status string, n int64) {
	if d.cfg.Observer != nil {
		d.cfg.Observer.DownloadFinished(rec, status, n)
	}
}

// handle processes one record and returns its status and byte count.
func (d *Downloader) handle(ctx context.Context, rec walk.Record, target string) (string, int64, error) {
	if d.cfg.Ledger != nil {
		done, err := d.cfg.Ledger.Has(ctx, rec.ID)
		if err != nil {
			return "", 0, err
		}

		if done {
			d.logger.Debug("download: already in ledger", slog.Int64("file_id", int64(rec.ID)))
			return StatusSkipped, 0, nil
		}
	}

	if d.cfg.SkipExisting {
		if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() && info.Size() == rec.Size {
			d.logger.Debug("download: already on disk", slog.String("path", target))
			return StatusSkipped, 0, d.record(ctx, rec)
		}
	}

	if d.cfg.DryRun {
		d.logger.Info("download: would download",
			slog.Int64("file_id", int64(rec.ID)),
			slog.String("path", target),
			slog.Int64("size", rec.Size),
		)

		return StatusPlanned, 0, nil
	}

	n, err := d.fetch(ctx, rec, target)
	if err != nil {
		return "", n, err
	}

	return StatusDownloaded, n, d.record(ctx, rec)
}

func (d *Downloader) record(ctx context.Context, rec walk.Record) error {
	if d.cfg.Ledger == nil {
		return nil
	}

	return d.cfg.Ledger.Record(ctx, d.cfg.RunID, rec)
}

// fetch streams rec into target through a uniquely named .partial file in
// the same directory, verifying the CRC32 when configured, and renames it
// into place on success.
func (d *Downloader) fetch(ctx context.Context, rec walk.Record, target string) (n int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), dirPerms); err != nil {
		return 0, fmt.Errorf("download: creating directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*"+partialSuffix)
	if err != nil {
		return 0, fmt.Errorf("download: creating partial file for %s: %w", target, err)
	}

	partial := f.Name()

	if err := f.Chmod(filePerms); err != nil {
		f.Close()
		os.Remove(partial)

		return 0, fmt.Errorf("download: setting mode on %s: %w", partial, err)
	}

	defer func() {
		if err != nil {
			f.Close()
			os.Remove(partial)
		}
	}()

	verify := d.cfg.VerifyCRC32 && rec.CRC32 != ""
	crc := crc32.NewIEEE()

	var w io.Writer = f
	if verify {
		w = io.MultiWriter(f, crc)
	}

	n, err = d.fetcher.Download(ctx, rec.ID, w)
	if err != nil {
		return n, err
	}

	if verify {
		if got := fmt.Sprintf("%08x", crc.Sum32()); !strings.EqualFold(got, rec.CRC32) {
			return n, fmt.Errorf("%w: file %d: got %s, want %s", ErrChecksumMismatch, rec.ID, got, rec.CRC32)
		}
	}

	if err := f.Close(); err != nil {
		return n, fmt.Errorf("download: closing %s: %w", partial, err)
	}

	if err := os.Rename(partial, target); err != nil {
		return n, fmt.Errorf("download: renaming %s: %w", partial, err)
	}

	d.logger.Debug("download: file complete",
		slog.Int64("file_id", int64(rec.ID)),
		slog.String("path", target),
		slog.Int64("bytes", n),
	)

	return n, nil
}

// LocalPath maps a record to its location below dir. Every path segment
// is made safe for the local filesystem: "." and ".." become "_", and
// separators or NUL inside a name become "_". With normalize, segments are
// converted to Unicode NFC.
func LocalPath(dir string, rec walk.Record, normalize bool) string {
	segments := strings.Split(rec.Path, string(filepath.Separator))
	segments = append(segments, rec.Name)

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, dir)

	for _, s := range segments {
		parts = append(parts, safeSegment(s, normalize))
	}

	return filepath.Join(parts...)
}

func safeSegment(s string, normalize bool) string {
	if normalize {
		s = norm.NFC.String(s)
	}

	s = strings.Map(func(r rune) rune {
		if r == '/' || r == filepath.Separator || r == 0 {
			return '_'
		}

		return r
	}, s)

	if s == "" || s == "." || s == ".." {
		return "_"
	}

	return s
}
