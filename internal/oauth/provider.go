// Package oauth implements the third-party sign-in bridge. It opens a
// secondary browsing context at a provider's authorize endpoint, receives the
// provider's redirect on a local callback receiver, and hands the resulting
// token or code back to the caller as the outcome of a single cancellable
// operation.
package oauth

import (
	"fmt"

	"github.com/upwatch/upwatch-cli/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Provider identifies a supported sign-in provider. The set is closed: every
// provider carries its own authorize endpoint, scopes, and response-parsing
// strategy in the lookup table below, so no string dispatch happens anywhere
// else.
type Provider string

const (
	// Google uses the implicit flow: the provider returns an access token in
	// the redirect URL fragment.
	Google Provider = "google"
	// GitHub uses the authorization-code flow: the provider returns a code in
	// the redirect URL query.
	GitHub Provider = "github"
)

// ResponseMode describes where in the redirect URL a provider delivers its
// result.
type ResponseMode int

const (
	// ResponseModeFragment delivers the token in the URL fragment (implicit flow).
	ResponseModeFragment ResponseMode = iota
	// ResponseModeQuery delivers the code in the URL query (authorization-code flow).
	ResponseModeQuery
)

type providerSpec struct {
	endpoint     oauth2.Endpoint
	scopes       []string
	responseMode ResponseMode
	authOptions  []oauth2.AuthCodeOption
	clientID     func(cfg *config.OAuthConfig) string
}

var providerSpecs = map[Provider]providerSpec{
	Google: {
		endpoint:     endpoints.Google,
		scopes:       []string{"email", "profile"},
		responseMode: ResponseModeFragment,
		authOptions: []oauth2.AuthCodeOption{
			oauth2.SetAuthURLParam("response_type", "token"),
			oauth2.SetAuthURLParam("prompt", "select_account"),
		},
		clientID: func(cfg *config.OAuthConfig) string { return cfg.GoogleClientID },
	},
	GitHub: {
		endpoint:     endpoints.GitHub,
		scopes:       []string{"user:email"},
		responseMode: ResponseModeQuery,
		clientID:     func(cfg *config.OAuthConfig) string { return cfg.GitHubClientID },
	},
}

// ParseProvider validates a user-supplied provider name.
func ParseProvider(name string) (Provider, error) {
	p := Provider(name)
	if _, ok := providerSpecs[p]; !ok {
		return "", fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// AuthorizeURL builds the provider's authorize URL with the given state and
// redirect target embedded.
func (p Provider) AuthorizeURL(clientID, redirectURL, state string) string {
	spec := providerSpecs[p]
	conf := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Scopes:      spec.scopes,
		Endpoint:    spec.endpoint,
	}
	return conf.AuthCodeURL(state, spec.authOptions...)
}

// Mode returns where the provider delivers its redirect result.
func (p Provider) Mode() ResponseMode {
	return providerSpecs[p].responseMode
}
