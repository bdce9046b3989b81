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

// DoLogin signs the user in with email and password and persists the session.
// Credentials come from options when both are set, otherwise from the
// interactive form.
//
// Parameters:
//   - cfg: The application configuration
//   - store: The session store to persist the resulting tokens in
//   - options: Login options including pre-supplied credentials
func DoLogin(cfg *config.Config, store session.Store, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}

	email := options.Email
	password := options.Password
	rememberMe := options.RememberMe
	if email == "" || password == "" {
		creds, err := tui.RunLoginForm()
		if err != nil {
			if errors.Is(err, tui.ErrFormCancelled) {
				fmt.Println("Login cancelled.")
				return
			}
			log.Errorf("login form failed: %v", err)
			return
		}
		email = creds.Email
		password = creds.Password
		rememberMe = creds.RememberMe
	}

	client, err := newAPIClient(cfg, store)
	if err != nil {
		log.Errorf("failed to build API client: %v", err)
		return
	}

	ctx := context.Background()
	sess, err := client.Login(ctx, email, password, rememberMe)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	if err = store.Save(ctx, sess); err != nil {
		log.Errorf("failed to persist session: %v", err)
		return
	}
	fmt.Println("Login successful!")
}

// DoLogout clears the persisted session.
func DoLogout(cfg *config.Config, store session.Store) {
	ctx := context.Background()
	if !session.IsLoggedIn(ctx, store) {
		fmt.Println("Not logged in.")
		return
	}
	if err := store.Clear(ctx); err != nil {
		log.Errorf("failed to clear session: %v", err)
		return
	}
	fmt.Println("Logged out.")
}

// DoWhoami prints the authenticated user's profile, exercising the full
// bearer-and-refresh pipeline along the way.
func DoWhoami(cfg *config.Config, store session.Store) {
	ctx := context.Background()
	if !session.IsLoggedIn(ctx, store) {
		fmt.Println("Not logged in. Run with -login first.")
		return
	}

	client, err := newAPIClient(cfg, store)
	if err != nil {
		log.Errorf("failed to build API client: %v", err)
		return
	}

	profile, err := client.GetProfile(ctx)
	if err != nil {
		fmt.Printf("Failed to fetch profile: %v\n", err)
		return
	}
	fmt.Printf("Logged in as %s <%s>\n", profile.FullName, profile.Email)

	websites, err := client.ListWebsites(ctx)
	if err != nil {
		log.Debugf("failed to list websites: %v", err)
		return
	}
	fmt.Printf("Monitoring %d website(s)\n", len(websites))
}
