package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/putiodown/internal/config"
	"github.com/tonimelisma/putiodown/internal/download"
	"github.com/tonimelisma/putiodown/internal/ledger"
	"github.com/tonimelisma/putiodown/internal/putio"
	"github.com/tonimelisma/putiodown/internal/walk"
)

// ledgerDirPerms restricts the data directory holding the token and ledger.
const ledgerDirPerms = 0o700

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Download every file below a folder",
		Long: `Download every file below a folder into the download directory.

Files land at <dest>/<path>/<name>, where path starts with "root". Files
recorded in the ledger by an earlier run are skipped.`,
		Args: cobra.NoArgs,
		RunE: runGet,
	}

	cmd.Flags().Int64("folder", int64(walk.RootID), "folder id to start from (0 = account root)")
	cmd.Flags().String("dest", "", "download directory (overrides download_dir)")
	cmd.Flags().Int("parallel", 0, "concurrent downloads (overrides parallel_downloads)")
	cmd.Flags().Bool("dry-run", false, "walk and report without downloading")
	cmd.Flags().Bool("no-ledger", false, "neither consult nor update the download ledger")

	return cmd
}

func runGet(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx, stop := shutdownContext(cmd.Context(), cc.Logger)
	defer stop()

	folderFlag, err := cmd.Flags().GetInt64("folder")
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")
	folder := walk.FolderID(folderFlag)

	session, err := NewSession(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	m := newRunMetrics(cc)
	defer finishRunMetrics(cc, m)

	w, err := newWalker(ctx, cc, session.Client, folder, m)
	if err != nil {
		return err
	}

	dlCfg := download.Config{
		Dir:            cc.Cfg.DownloadDir,
		Workers:        cc.Cfg.ParallelDownloads,
		VerifyCRC32:    cc.Cfg.VerifyCRC32,
		NormalizeNames: cc.Cfg.NormalizeNames,
		SkipExisting:   cc.Cfg.SkipExisting,
		DryRun:         dryRun,
		IsFatal:        isFatalDownloadError,
	}

	if m != nil {
		dlCfg.Observer = m
	}

	var lg *ledger.Ledger

	if !noLedger && !dryRun {
		lg, err = openLedger(ctx, config.DefaultLedgerPath(), cc.Logger)
		if err != nil {
			return err
		}
		defer lg.Close()

		runID, err := lg.BeginRun(ctx, folder)
		if err != nil {
			return err
		}

		dlCfg.Ledger = lg
		dlCfg.RunID = runID
	}

	report, runErr := download.New(session.Transfer, dlCfg, cc.Logger).Run(ctx, w.Walk(ctx, folder))

	if lg != nil {
		// The run row is stamped even after cancellation.
		if err := lg.FinishRun(context.WithoutCancel(ctx), dlCfg.RunID, runStatus(runErr, report)); err != nil {
			cc.Logger.Warn("recording run status", slog.String("error", err.Error()))
		}
	}

	if err := printReport(cmd.OutOrStdout(), cc, report, dryRun); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to download", report.Failed)
	}

	return nil
}

func openLedger(ctx context.Context, path string, logger *slog.Logger) (*ledger.Ledger, error) {
	if path == "" {
		return nil, errors.New("cannot determine ledger path")
	}

	if err := os.MkdirAll(filepath.Dir(path), ledgerDirPerms); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return ledger.Open(ctx, path, logger)
}

// isFatalDownloadError stops the whole run on errors every later file
// would hit too.
func isFatalDownloadError(err error) bool {
	return errors.Is(err, putio.ErrUnauthorized) || errors.Is(err, putio.ErrForbidden)
}

func runStatus(err error, report *download.Report) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ledger.StatusCanceled
	case err != nil || report.Failed > 0:
		return ledger.StatusFailed
	default:
		return ledger.StatusCompleted
	}
}

// getJSONReport is the JSON output schema for `get --json`.
type getJSONReport struct {
	Downloaded int             `json:"downloaded"`
	Skipped    int             `json:"skipped"`
	Planned    int             `json:"planned"`
	Failed     int             `json:"failed"`
	Bytes      int64           `json:"bytes"`
	Errors     []getJSONFailed `json:"errors,omitempty"`
}

type getJSONFailed struct {
	ID    int64  `json:"id"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

func printReport(w io.Writer, cc *CLIContext, report *download.Report, dryRun bool) error {
	if report == nil {
		return nil
	}

	if cc.Flags.JSON {
		out := getJSONReport{
			Downloaded: report.Downloaded,
			Skipped:    report.Skipped,
			Planned:    report.Planned,
			Failed:     report.Failed,
			Bytes:      report.Bytes,
		}

		for _, fe := range report.Errors {
			out.Errors = append(out.Errors, getJSONFailed{
				ID:    int64(fe.Record.ID),
				Path:  recordPath(fe.Record),
				Error: fe.Err.Error(),
			})
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	for _, fe := range report.Errors {
		cc.Statusf("failed: %s: %v\n", recordPath(fe.Record), fe.Err)
	}

	if dryRun {
		cc.Statusf("Would download %d file(s), %d already present.\n", report.Planned, report.Skipped)
		return nil
	}

	cc.Statusf("Downloaded %d file(s) (%s), skipped %d, failed %d.\n",
		report.Downloaded, formatSize(report.Bytes), report.Skipped, report.Failed)

	return nil
}
