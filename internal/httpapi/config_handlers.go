package httpapi

import (
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/events"
)

type ConfigHandler struct {
	Deps
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.config())
}

// Put validates, saves and swaps the live config. Secrets are never read
// from the body (json:"-"); the current ones are carried over.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := decodeBody(r, &incoming, false); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	cur := h.config()
	incoming.Store.DSN = cur.Store.DSN
	incoming.Generation.APIKey = cur.Generation.APIKey
	incoming.Email.Password = cur.Email.Password
	incoming.Events.RedisURL = cur.Events.RedisURL

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		// structured errors so a UI can show them
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	saved := normalized
	if h.LoadCfg != nil {
		var err error
		if saved, err = h.LoadCfg(); err != nil {
			WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
			return
		}
	}
	h.CfgVal.Store(saved)
	if h.Log != nil {
		h.Log.Info("config updated", zap.String("path", h.UserCfgPath))
	}
	h.Bus.Emit(r.Context(), RequestIDFrom(r.Context()), events.TypeConfigUpdated, nil)
	writeJSON(w, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.config())
	writeJSON(w, vr)
}
