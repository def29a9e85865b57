package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/httpapi"
)

const shutdownTokenFile = "shutdown.token"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// writeShutdownToken stores the token next to the config so a supervising
// process on the same machine can stop the server.
func writeShutdownToken(dataDir, token string) (string, error) {
	path := filepath.Join(dataDir, shutdownTokenFile)
	return path, os.WriteFile(path, []byte(token+"\n"), 0o600)
}

func shutdownHandler(token string, stop context.CancelFunc, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpapi.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		// local-only guard
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
			httpapi.WriteError(w, r, http.StatusForbidden, "forbidden", "shutdown is only allowed from localhost")
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			httpapi.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "bad shutdown token")
			return
		}

		log.Info("shutdown requested", zap.String("request_id", httpapi.RequestIDFrom(r.Context())))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		// respond first, then let serve drain
		go func() {
			time.Sleep(50 * time.Millisecond)
			stop()
		}()
	}
}
