// package tasks implements the playlist reconciliation engine.
//
// The core abstraction is Engine, which drives each sync task through a
// linear state machine (discover → fetch → reconcile → apply) and emits
// progress updates via channels for non-blocking status reporting.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/livesync/internal/services"
	"github.com/desertthunder/livesync/internal/shared"
	"golang.org/x/time/rate"
)

// SnapshotKey is the fixed identifier the latest run summary is stored under.
const SnapshotKey = "latest"

// ItemDetail identifies one item affected by a run.
type ItemDetail struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title,omitempty"`
}

// TaskResult is the structured outcome of reconciling one playlist.
type TaskResult struct {
	TaskName      string       `json:"task_name"`
	LiveFound     int          `json:"live_found"`
	Added         int          `json:"added"`
	Removed       int          `json:"removed"`
	Errors        []string     `json:"errors,omitempty"`
	AddedDetail   []ItemDetail `json:"added_detail,omitempty"`
	RemovedDetail []ItemDetail `json:"removed_detail,omitempty"`
}

// RunTotals aggregates counts across all tasks of a run.
type RunTotals struct {
	Found   int `json:"found"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Errors  int `json:"errors"`
}

// RunSummary is the complete outcome of one sync run. One is always
// produced, even when every task fails.
type RunSummary struct {
	RunID           string       `json:"run_id"`
	Success         bool         `json:"success"`
	DryRun          bool         `json:"dry_run,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	TotalTasks      int          `json:"total_tasks"`
	Results         []TaskResult `json:"results"`
	Totals          RunTotals    `json:"totals"`
}

// Engine reconciles target playlists against the live state of their channels.
//
// Tasks run strictly sequentially to keep outbound call volume predictable;
// failures are contained at the smallest possible granularity (item > source
// > task) so one bad unit never aborts the run.
type Engine struct {
	source  services.Source
	logger  *log.Logger
	limiter *rate.Limiter
	dryRun  bool
	now     func() time.Time
}

// EngineOpts contains configuration options for creating an Engine.
type EngineOpts struct {
	Source services.Source
	Logger *log.Logger

	// MutationInterval is the courtesy pause between playlist mutations.
	// Zero selects the 200ms default; a negative value disables the pause.
	MutationInterval time.Duration

	// DryRun computes plans without applying them.
	DryRun bool
}

// NewEngine creates an Engine with the provided options.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MutationInterval == 0 {
		opts.MutationInterval = 200 * time.Millisecond
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MutationInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MutationInterval), 1)
	}

	return &Engine{
		source:  opts.Source,
		logger:  opts.Logger,
		limiter: limiter,
		dryRun:  opts.DryRun,
		now:     time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RunAll reconciles every task in the manifest and always returns a summary.
//
// A task that fails outright is recorded as a zero-count result with one
// error string; the run proceeds to the next task. Results preserve input
// task order.
func (e *Engine) RunAll(ctx context.Context, progress chan<- ProgressUpdate, manifest *shared.Manifest) *RunSummary {
	start := e.now()
	summary := &RunSummary{
		RunID:      shared.GenerateID(),
		DryRun:     e.dryRun,
		StartedAt:  start,
		TotalTasks: len(manifest.Tasks),
		Results:    make([]TaskResult, 0, len(manifest.Tasks)),
	}

	e.logger.Info("starting sync run", "run_id", summary.RunID, "tasks", len(manifest.Tasks), "dry_run", e.dryRun)

	for _, task := range manifest.Tasks {
		result, err := e.runTask(ctx, progress, task)
		if err != nil {
			e.logger.Error("task failed", "task", task.Name, "err", err)
			e.sendProgress(progress, failedUpdate(task.Name, err))
			result = TaskResult{TaskName: task.Name, Errors: []string{err.Error()}}
		}
		summary.Results = append(summary.Results, result)
	}

	for _, r := range summary.Results {
		summary.Totals.Found += r.LiveFound
		summary.Totals.Added += r.Added
		summary.Totals.Removed += r.Removed
		summary.Totals.Errors += len(r.Errors)
	}
	summary.Success = summary.Totals.Errors == 0
	summary.ExecutionTimeMs = e.now().Sub(start).Milliseconds()

	e.logger.Info("sync run finished", "run_id", summary.RunID, "success", summary.Success,
		"found", summary.Totals.Found, "added", summary.Totals.Added,
		"removed", summary.Totals.Removed, "errors", summary.Totals.Errors)

	return summary
}

// runTask drives one task through the discover → fetch → reconcile → apply
// state machine. The returned error marks a task-level failure; contained
// source-level and item-level failures are recorded on the result instead.
func (e *Engine) runTask(ctx context.Context, progress chan<- ProgressUpdate, task shared.Task) (TaskResult, error) {
	result := TaskResult{TaskName: task.Name}
	logger := shared.WithLogger(e.logger, "task", task.Name)

	var discovered []services.LiveItem
	for i, ch := range task.Channels {
		e.sendProgress(progress, discoveringUpdate(task.Name, i+1, len(task.Channels), ch.DisplayName()))

		items, err := e.source.DiscoverLive(ctx, ch.ID)
		if err != nil {
			// Contained at source granularity: zero items, task continues.
			logger.Error("discovery failed", "channel", ch.DisplayName(), "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("discover %s: %v", ch.DisplayName(), err))
			continue
		}

		if ch.Label != "" {
			for j := range items {
				items[j].ChannelLabel = ch.Label
			}
		}
		discovered = append(discovered, items...)
	}

	desired := dedupeLive(discovered)
	result.LiveFound = len(desired)

	e.sendProgress(progress, fetchingUpdate(task.Name))
	current, err := e.source.ListMembers(ctx, task.PlaylistID)
	if err != nil {
		return result, fmt.Errorf("failed to list members of %s: %w", task.PlaylistID, err)
	}

	plan := BuildPlan(current, desired)
	e.sendProgress(progress, reconcilingUpdate(task.Name, len(plan.ToAdd), len(plan.ToRemove)))
	logger.Info("reconciliation plan", "live", len(desired), "members", len(current),
		"to_add", len(plan.ToAdd), "to_remove", len(plan.ToRemove))

	if e.dryRun {
		for _, item := range plan.ToAdd {
			result.AddedDetail = append(result.AddedDetail, ItemDetail{VideoID: item.VideoID, Title: item.Title})
		}
		for _, m := range plan.ToRemove {
			result.RemovedDetail = append(result.RemovedDetail, ItemDetail{VideoID: m.VideoID})
		}
		e.sendProgress(progress, doneUpdate(task.Name, 0, 0))
		return result, nil
	}

	applyTotal := len(plan.ToAdd) + len(plan.ToRemove)
	step := 0

	// Additions are attempted before removals; the order is fixed.
	for _, item := range plan.ToAdd {
		step++
		e.sendProgress(progress, applyingUpdate(task.Name, step, applyTotal, fmt.Sprintf("Adding %s", item.VideoID)))

		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := e.source.AddMember(ctx, task.PlaylistID, item.VideoID); err != nil {
			logger.Error("failed to add item", "video", item.VideoID, "title", item.Title, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("add %s: %v", item.VideoID, err))
			continue
		}

		result.Added++
		result.AddedDetail = append(result.AddedDetail, ItemDetail{VideoID: item.VideoID, Title: item.Title})
	}

	for _, m := range plan.ToRemove {
		step++
		e.sendProgress(progress, applyingUpdate(task.Name, step, applyTotal, fmt.Sprintf("Removing %s", m.VideoID)))

		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := e.source.RemoveMember(ctx, m.ID); err != nil {
			logger.Error("failed to remove item", "video", m.VideoID, "handle", m.ID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("remove %s: %v", m.VideoID, err))
			continue
		}

		result.Removed++
		result.RemovedDetail = append(result.RemovedDetail, ItemDetail{VideoID: m.VideoID})
	}

	e.sendProgress(progress, doneUpdate(task.Name, result.Added, result.Removed))
	return result, nil
}

// SnapshotWriter persists the outcome of a run for the status surface.
type SnapshotWriter interface {
	Save(ctx context.Context, key string, summary *RunSummary) error
}

// Coordinator binds the engine to its manifest and snapshot store and
// exposes the single "run now" entry point. Safe to invoke repeatedly;
// concurrent invocations are not deduplicated.
type Coordinator struct {
	engine    *Engine
	manifest  *shared.Manifest
	snapshots SnapshotWriter
	logger    *log.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(engine *Engine, manifest *shared.Manifest, snapshots SnapshotWriter, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator{engine: engine, manifest: manifest, snapshots: snapshots, logger: logger}
}

// RunOnce executes one full reconciliation run and externalizes the summary.
func (c *Coordinator) RunOnce(ctx context.Context) (*RunSummary, error) {
	return c.Run(ctx, nil)
}

// Run is RunOnce with live progress reporting.
//
// The snapshot is a derived side effect: a failed write is logged and the
// summary still returned.
func (c *Coordinator) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunSummary, error) {
	summary := c.engine.RunAll(ctx, progress, c.manifest)

	if c.snapshots != nil {
		if err := c.snapshots.Save(ctx, SnapshotKey, summary); err != nil {
			c.logger.Warn("failed to persist run snapshot", "err", err)
		}
	}

	return summary, nil
}
