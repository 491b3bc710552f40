package tasks

import "fmt"

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Task phase
	Task    string // Task name
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Phase enumerates the states of the per-task reconciliation state machine.
//
// Each task moves linearly Discovering → Fetching → Reconciling → Applying
// and terminates in Done or Failed.
type Phase int

const (
	Discovering Phase = iota
	Fetching
	Reconciling
	Applying
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Discovering:
		return "discovering"
	case Fetching:
		return "fetching"
	case Reconciling:
		return "reconciling"
	case Applying:
		return "applying"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func discoveringUpdate(task string, step, total int, channel string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discovering,
		Task:    task,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Checking %s for live broadcasts...", channel),
	}
}

func fetchingUpdate(task string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Task:    task,
		Step:    1,
		Total:   1,
		Message: "Fetching current playlist members...",
	}
}

func reconcilingUpdate(task string, adds, removes int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconciling,
		Task:    task,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Plan: %d to add, %d to remove", adds, removes),
	}
}

func applyingUpdate(task string, step, total int, action string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Applying,
		Task:    task,
		Step:    step,
		Total:   total,
		Message: action,
	}
}

func doneUpdate(task string, added, removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Task:    task,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Done: %d added, %d removed", added, removed),
	}
}

func failedUpdate(task string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Task:    task,
		Step:    1,
		Total:   1,
		Message: err.Error(),
	}
}
