package httpapi

import (
	"context"
	"errors"
	"net/http"

	"jobsearch-engine/internal/ingest"
	"jobsearch-engine/internal/scheduler"
)

// CycleHandler starts a guarded cycle on demand and reports its status.
type CycleHandler struct {
	Name  string
	Cycle Cycle

	// Override, when set, reads an optional {"query","location"} body.
	Override bool
}

func (h CycleHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.Cycle == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "cycle_disabled", h.Name+" is not configured")
		return
	}
	writeJSON(w, h.Cycle.Status())
}

func (h CycleHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Cycle == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "cycle_disabled", h.Name+" is not configured")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	if h.Override {
		var o ingest.Override
		if err := decodeBody(r, &o, true); err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		ctx = ingest.WithOverride(ctx, o)
	}

	err := h.Cycle.TriggerAsync(ctx)
	switch {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		WriteError(w, r, http.StatusConflict, "already_running", h.Name+" is already running")
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	default:
		WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "cycle": h.Name})
	}
}
