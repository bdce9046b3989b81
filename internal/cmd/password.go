package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/upwatch/upwatch-cli/internal/config"
	"github.com/upwatch/upwatch-cli/internal/session"
)

// DoForgotPassword asks the backend to send a reset link to the given address.
func DoForgotPassword(cfg *config.Config, store session.Store, email string) {
	client, err := newAPIClient(cfg, store)
	if err != nil {
		log.Errorf("failed to build API client: %v", err)
		return
	}

	if err = client.RequestPasswordReset(context.Background(), email); err != nil {
		fmt.Printf("Password reset request failed: %v\n", err)
		return
	}
	fmt.Printf("If an account exists for %s, a reset link is on its way.\n", email)
}

// DoResetPassword completes a password reset using the uid and token from the
// emailed link, prompting for the new password.
//
// Parameters:
//   - cfg: The application configuration
//   - store: The session store (unused by the reset itself, required by the client)
//   - uid: The user identifier from the reset link
//   - token: The one-time token from the reset link
//   - newPassword: The replacement password
func DoResetPassword(cfg *config.Config, store session.Store, uid, token, newPassword string) {
	if newPassword == "" {
		fmt.Println("A new password is required.")
		return
	}

	client, err := newAPIClient(cfg, store)
	if err != nil {
		log.Errorf("failed to build API client: %v", err)
		return
	}

	if err = client.ConfirmPasswordReset(context.Background(), uid, token, newPassword); err != nil {
		fmt.Printf("Password reset failed: %v\n", err)
		return
	}
	fmt.Println("Password updated. You can now log in with the new password.")
}
