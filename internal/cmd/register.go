package cmd

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/upwatch/upwatch-cli/internal/config"
	"github.com/upwatch/upwatch-cli/internal/session"
	"github.com/upwatch/upwatch-cli/internal/tui"
)

// DoRegister creates a new account through the interactive form and persists
// the session the backend returns.
func DoRegister(cfg *config.Config, store session.Store) {
	reg, err := tui.RunRegisterForm()
	if err != nil {
		if errors.Is(err, tui.ErrFormCancelled) {
			fmt.Println("Registration cancelled.")
			return
		}
		log.Errorf("registration form failed: %v", err)
		return
	}

	client, err := newAPIClient(cfg, store)
	if err != nil {
		log.Errorf("failed to build API client: %v", err)
		return
	}

	ctx := context.Background()
	sess, err := client.Register(ctx, reg.FullName, reg.Email, reg.Password)
	if err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		return
	}
	if err = store.Save(ctx, sess); err != nil {
		log.Errorf("failed to persist session: %v", err)
		return
	}
	fmt.Println("Account created. You are now logged in!")
}
