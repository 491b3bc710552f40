package main

import (
	"context"
	"errors"

	"github.com/desertthunder/livesync/internal/formatter"
	"github.com/desertthunder/livesync/internal/shared"
	"github.com/desertthunder/livesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SnapshotShow prints the summary of the most recent sync run.
func (r *Runner) SnapshotShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	repo, db, err := r.openSnapshots(config)
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := repo.Get(ctx, tasks.SnapshotKey)
	if errors.Is(err, shared.ErrSnapshotMissing) {
		return r.writePlain("No sync run recorded yet. Run 'livesync sync run' first.\n")
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return formatter.RenderJSON(r.output, summary, cmd.Bool("pretty"))
	}

	formatter.RenderSummary(r.output, summary, cmd.Bool("detail"))
	return nil
}
