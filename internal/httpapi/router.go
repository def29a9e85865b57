package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{Version: d.Version}.Health,
	}))

	// Jobs
	jh := JobsHandler{Deps: d}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/{id}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Get,
	}))
	mux.HandleFunc("/jobs/{id}/status", methodMux(map[string]http.HandlerFunc{
		http.MethodPut: jh.UpdateStatus,
	}))
	mux.HandleFunc("/jobs/{id}/notes", methodMux(map[string]http.HandlerFunc{
		http.MethodPut: jh.SetNotes,
	}))
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Stats,
	}))

	// Cycles
	ih := CycleHandler{Name: "ingest", Cycle: d.Ingest, Override: true}
	mux.HandleFunc("/ingest/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Run,
	}))
	mux.HandleFunc("/ingest/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.Status,
	}))
	mh := CycleHandler{Name: "maintenance", Cycle: d.Maintenance}
	mux.HandleFunc("/maintenance/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: mh.Run,
	}))
	mux.HandleFunc("/maintenance/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Status,
	}))

	// Config
	ch := ConfigHandler{Deps: d}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets
	sh := SecretsHandler{Deps: d}
	mux.HandleFunc("/secrets/{name}", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Set,
	}))

	// SSE events
	var eh EventsHandler
	if d.Bus != nil {
		eh.Hub = d.Bus.Hub
	}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Maintenance of the sqlite file
	dh := DBHandler{Store: d.Store}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	return mux
}

// Wrap applies the standard middleware stack.
func Wrap(h http.Handler, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return Chain(h, RequestID, Recover(log), AccessLog(log.Named("http")), Cors)
}
