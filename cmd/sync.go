package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/livesync/internal/formatter"
	"github.com/desertthunder/livesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun executes every task in the manifest once and reports the outcome.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.ValidateCredentials(); err != nil {
		return err
	}

	manifest, err := r.resolveManifest(cmd, config)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	quiet := cmd.Bool("json")

	engine := tasks.NewEngine(tasks.EngineOpts{
		Source:           r.buildSource(config),
		Logger:           r.logger,
		MutationInterval: config.Sync.MutationInterval(),
		DryRun:           dryRun,
	})

	// Dry runs never overwrite the latest snapshot.
	var snapshots tasks.SnapshotWriter
	if !dryRun {
		repo, db, err := r.openSnapshots(config)
		if err != nil {
			return err
		}
		defer db.Close()
		snapshots = repo
	}

	coordinator := tasks.NewCoordinator(engine, manifest, snapshots, r.logger)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.Discovering:
				r.writePlain("📡 [%s] %s\n", update.Task, update.Message)
			case tasks.Fetching:
				r.writePlain("📥 [%s] %s\n", update.Task, update.Message)
			case tasks.Reconciling:
				r.writePlain("🔍 [%s] %s\n", update.Task, update.Message)
			case tasks.Applying:
				r.writePlain("   [%s] (%d/%d) %s\n", update.Task, update.Step, update.Total, update.Message)
			case tasks.Failed:
				r.writePlain("✗ [%s] %s\n", update.Task, update.Message)
			}
		}
	}()

	summary, err := coordinator.Run(ctx, progressCh)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := formatter.RenderJSON(r.output, summary, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.writePlain("\n")
		formatter.RenderSummary(r.output, summary, cmd.Bool("detail"))
	}

	if !summary.Success {
		return fmt.Errorf("sync finished with %d errors", summary.Totals.Errors)
	}

	return nil
}
