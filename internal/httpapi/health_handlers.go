package httpapi

import (
	"net/http"
)

type HealthHandler struct {
	Version string
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":      true,
		"version": h.Version,
	})
}
