// Package secrets resolves credentials (the Gemini API key, the IMAP
// password) from a file, an inline value, the OS keychain or the environment,
// in that order.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the app's secrets in the OS keychain.
const KeyringService = "jobsearch"

// Known secret names, usable with Set/Delete and the /secrets endpoint.
const (
	NameGemini = "gemini"
	NameIMAP   = "imap"
)

var ErrNotConfigured = errors.New("secret not configured")

// Source describes where a secret may come from. Empty fields are skipped.
type Source struct {
	Name           string
	File           string
	Value          string
	KeyringAccount string
	Env            string
}

// Load returns the first non-empty secret, trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			return s, nil
		}
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}

	if s := strings.TrimSpace(src.Value); s != "" {
		return s, nil
	}

	if acct := strings.TrimSpace(src.KeyringAccount); acct != "" {
		pw, err := keyring.Get(KeyringService, acct)
		if err == nil && strings.TrimSpace(pw) != "" {
			return strings.TrimSpace(pw), nil
		}
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if s := strings.TrimSpace(os.Getenv(env)); s != "" {
			return s, nil
		}
	}

	return "", fmt.Errorf("%s: %w (set it in the keychain, a file or %s)", name, ErrNotConfigured, orDash(src.Env))
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func IMAPAccount(username, host string) string {
	return fmt.Sprintf("jobsearch:imap:%s@%s", username, host)
}

func GeminiAccount() string { return "jobsearch:gemini" }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
