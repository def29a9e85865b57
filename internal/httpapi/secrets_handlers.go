package httpapi

import (
	"net/http"
	"strings"

	"jobsearch-engine/internal/secrets"
)

type SecretsHandler struct {
	Deps
}

type setSecretReq struct {
	Value string `json:"value"`
}

// Set stores a known secret (gemini, imap) in the OS keychain.
func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(r.PathValue("name"))

	var account string
	switch name {
	case secrets.NameGemini:
		account = secrets.GeminiAccount()
	case secrets.NameIMAP:
		cfg := h.config()
		if cfg.Email.Username == "" || cfg.Email.IMAPHost == "" {
			WriteError(w, r, http.StatusBadRequest, "email_not_configured", "set email.username and email.imap_host first")
			return
		}
		account = secrets.IMAPAccount(cfg.Email.Username, cfg.Email.IMAPHost)
	default:
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret "+name)
		return
	}

	var req setSecretReq
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		WriteError(w, r, http.StatusBadRequest, "empty_secret", "value is required")
		return
	}

	set := h.SetSecret
	if set == nil {
		set = secrets.Set
	}
	if err := set(account, req.Value); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keyring_error", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
