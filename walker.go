package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tonimelisma/putiodown/internal/metrics"
	"github.com/tonimelisma/putiodown/internal/putio"
	"github.com/tonimelisma/putiodown/internal/walk"
)

// newWalker returns a walker over the session's account. For a folder
// other than the root, the folder's ancestors are fetched first so record
// paths still start at the account root.
func newWalker(
	ctx context.Context, cc *CLIContext, client *putio.Client, folder walk.FolderID, m *metrics.Run,
) (*walk.Walker, error) {
	opts := []walk.Option{
		walk.WithLogger(cc.Logger),
		walk.WithDuplicatePolicy(cc.Cfg.DuplicatePolicy()),
	}

	if m != nil {
		opts = append(opts, walk.WithObserver(m))
	}

	if folder != walk.RootID {
		ancestors, err := client.Ancestors(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("resolving folder %d: %w", folder, err)
		}

		cc.Logger.Debug("subtree walk",
			slog.Int64("folder_id", int64(folder)),
			slog.Int("ancestors", len(ancestors)),
		)

		opts = append(opts, walk.WithKnownFolders(ancestors...))
	}

	return walk.New(client, opts...), nil
}

// newRunMetrics returns a metrics collector when metrics_file is set.
func newRunMetrics(cc *CLIContext) *metrics.Run {
	if cc.Cfg.MetricsFile == "" {
		return nil
	}

	return metrics.New()
}

// finishRunMetrics writes the collected metrics. Failures are logged, not
// returned, so they never mask the command's own result.
func finishRunMetrics(cc *CLIContext, m *metrics.Run) {
	if m == nil {
		return
	}

	m.Finish()

	if err := m.WriteTextfile(cc.Cfg.MetricsFile); err != nil {
		cc.Logger.Warn("writing metrics", slog.String("error", err.Error()))
	}
}
