package httpapi

import (
	"net/http"
	"strings"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/store"
)

type JobsHandler struct {
	Deps
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minScore, ok := queryInt(r, "min_score")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_param", "min_score must be a non-negative integer")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_param", "limit must be a non-negative integer")
		return
	}

	f := store.QueryFilter{MinScore: minScore, Location: q.Get("location"), Limit: limit}
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		st, err := domain.ParseStatus(s)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		f.Status = st
	}

	jobs, err := h.Store.Query(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, jobs)
}

func (h JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid job id")
		return
	}
	j, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, j)
}

type statusReq struct {
	Status string `json:"status"`
}

func (h JobsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid job id")
		return
	}
	var req statusReq
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	j, err := h.Store.UpdateStatus(r.Context(), id, to, h.now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.Bus.Emit(r.Context(), RequestIDFrom(r.Context()), events.TypeJobStatusChanged, map[string]any{"id": j.ID, "status": j.Status})
	writeJSON(w, j)
}

type notesReq struct {
	Notes string `json:"notes"`
}

func (h JobsHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid job id")
		return
	}
	var req notesReq
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.Store.SetNotes(r.Context(), id, req.Notes); err != nil {
		writeDomainError(w, r, err)
		return
	}
	j, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, j)
}

// Stats serves aggregate counts; window_days defaults to 7.
func (h JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "window_days")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_param", "window_days must be a non-negative integer")
		return
	}
	st, err := h.Store.Stats(r.Context(), h.now(), days)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, st)
}
