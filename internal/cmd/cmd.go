// Package cmd implements the top-level operations the CLI entry point
// dispatches to: credential login, registration, provider sign-in, password
// reset, and session inspection.
package cmd

import (
	"fmt"
	"time"

	"github.com/upwatch/upwatch-cli/internal/api"
	"github.com/upwatch/upwatch-cli/internal/config"
	"github.com/upwatch/upwatch-cli/internal/session"
)

// LoginOptions contains options for the login processes.
type LoginOptions struct {
	// Email and Password skip the interactive form when both are set.
	Email    string
	Password string

	// RememberMe asks the backend for a long-lived session.
	RememberMe bool

	// NoBrowser prints the authorization URL instead of opening a browser.
	NoBrowser bool

	// CallbackPort overrides the local OAuth callback port when set (>0).
	CallbackPort int
}

// newAPIClient builds the backend client every operation shares.
func newAPIClient(cfg *config.Config, store session.Store) (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:    cfg.BaseURL,
		Store:      store,
		ProxyURL:   cfg.ProxyURL,
		RequestLog: cfg.RequestLog,
		Timeout:    30 * time.Second,
		OnSessionExpired: func() {
			fmt.Println("Your session has expired. Please log in again.")
		},
	})
}
