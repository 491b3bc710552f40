package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/livesync/internal/shared"
	"github.com/desertthunder/livesync/internal/tasks"
)

// Trigger starts a full sync run and returns its summary.
type Trigger interface {
	RunOnce(ctx context.Context) (*tasks.RunSummary, error)
}

// SnapshotReader reads persisted run summaries.
type SnapshotReader interface {
	Get(ctx context.Context, key string) (*tasks.RunSummary, error)
}

// SyncHandler exposes the sync service over HTTP.
//
// POST /run triggers a run and responds with its summary; GET /status
// returns the snapshot of the most recent run; GET /health reports liveness.
type SyncHandler struct {
	trigger   Trigger
	snapshots SnapshotReader
	logger    *log.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(trigger Trigger, snapshots SnapshotReader, logger *log.Logger) *SyncHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncHandler{trigger: trigger, snapshots: snapshots, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SyncHandler) Routes() []string {
	return []string{"/run", "/status", "/health"}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/run":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleRun(w, r)
	case "/status":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleStatus(w, r)
	case "/health":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		http.NotFound(w, r)
	}
}

// handleRun executes one sync run synchronously and returns the summary.
//
// Runs are not deduplicated; overlapping requests each get their own run.
func (h *SyncHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.trigger.RunOnce(r.Context())
	if err != nil {
		h.logger.Error("run failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// handleStatus returns the most recent run summary.
func (h *SyncHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.snapshots.Get(r.Context(), tasks.SnapshotKey)
	if errors.Is(err, shared.ErrSnapshotMissing) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run recorded yet"})
		return
	}
	if err != nil {
		h.logger.Error("failed to read snapshot", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *SyncHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "err", err)
	}
}
