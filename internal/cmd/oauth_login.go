package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/upwatch/upwatch-cli/internal/config"
	"github.com/upwatch/upwatch-cli/internal/oauth"
	"github.com/upwatch/upwatch-cli/internal/session"
)

// DoOAuthLogin runs the full provider sign-in: browser authorization against
// the provider, then a token exchange against the backend, then session
// persistence.
//
// Parameters:
//   - cfg: The application configuration
//   - store: The session store to persist the resulting tokens in
//   - provider: Which identity provider to sign in with
//   - options: Login options including browser behavior and callback port
func DoOAuthLogin(cfg *config.Config, store session.Store, provider oauth.Provider, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}

	bridge := oauth.NewBridge(&cfg.OAuth, &oauth.BridgeOptions{
		NoBrowser:    options.NoBrowser,
		CallbackPort: options.CallbackPort,
	})

	ctx := context.Background()
	result, err := bridge.SignInWith(ctx, provider)
	if err != nil {
		switch {
		case oauth.IsFlowError(err, oauth.ErrProviderNotConfigured):
			fmt.Printf("%s sign-in is not configured. Set the provider client ID in the config file or environment.\n", provider)
		case oauth.IsFlowError(err, oauth.ErrPortInUse):
			fmt.Printf("Callback port is already in use: %v\n", err)
			os.Exit(1)
		case oauth.IsFlowError(err, oauth.ErrCancelled):
			fmt.Println("Sign-in cancelled.")
		case oauth.IsFlowError(err, oauth.ErrCallbackTimeout):
			fmt.Println("Timed out waiting for the provider to respond.")
		default:
			fmt.Printf("%s sign-in failed: %v\n", provider, err)
		}
		return
	}

	client, err := newAPIClient(cfg, store)
	if err != nil {
		log.Errorf("failed to build API client: %v", err)
		return
	}

	sess, err := client.SocialAuthExchange(ctx, string(result.Provider), result.Token)
	if err != nil {
		fmt.Printf("Authentication failed: %v\n", err)
		return
	}
	if err = store.Save(ctx, sess); err != nil {
		log.Errorf("failed to persist session: %v", err)
		return
	}
	fmt.Printf("%s sign-in successful!\n", result.Provider)
}
