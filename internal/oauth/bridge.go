package oauth

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/upwatch/upwatch-cli/internal/config"
)

// defaultPollInterval is how often the bridge checks whether the secondary
// context was closed without delivering a message.
const defaultPollInterval = time.Second

// Result is the outcome of a completed sign-in: the provider token (implicit
// flow) or authorization code (code flow), plus the provider that issued it.
// It is not an application session; the caller exchanges it through the
// backend's social-auth endpoint.
type Result struct {
	Token    string
	Provider Provider
}

// BridgeOptions customizes a sign-in attempt.
type BridgeOptions struct {
	// NoBrowser prints the authorize URL instead of opening a browser.
	NoBrowser bool
	// CallbackPort overrides the configured receiver port.
	CallbackPort int
	// Timeout bounds the wait for the flow to settle. Zero waits until a
	// terminal event occurs, matching the browser behavior where only closing
	// the popup cancels the attempt.
	Timeout time.Duration
}

// Bridge coordinates a sign-in attempt between the main process and the
// secondary browsing context. Exactly one terminal outcome fires per
// invocation, and the listener, liveness poll, and secondary context are all
// released on every path.
type Bridge struct {
	cfg          *config.OAuthConfig
	newPopup     popupFactory
	pollInterval time.Duration
	timeout      time.Duration
}

// NewBridge builds a bridge over the configured providers.
func NewBridge(cfg *config.OAuthConfig, opts *BridgeOptions) *Bridge {
	if opts == nil {
		opts = &BridgeOptions{}
	}
	port := cfg.CallbackPort
	if opts.CallbackPort > 0 {
		port = opts.CallbackPort
	}
	timeout := opts.Timeout
	if timeout == 0 && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Bridge{
		cfg:          cfg,
		newPopup:     newBrowserPopupFactory(port, opts.NoBrowser),
		pollInterval: defaultPollInterval,
		timeout:      timeout,
	}
}

// SignInWith runs one complete sign-in attempt against the given provider and
// suspends the caller until the flow settles. The attempt ends in exactly one
// of: a success message, an error message, the secondary context closing with
// no message (cancellation), the optional timeout, or ctx cancellation.
func (b *Bridge) SignInWith(ctx context.Context, provider Provider) (*Result, error) {
	spec, ok := providerSpecs[provider]
	if !ok {
		return nil, providerError("unknown provider " + string(provider))
	}

	clientID := strings.TrimSpace(spec.clientID(b.cfg))
	if clientID == "" {
		return nil, ErrProviderNotConfigured
	}

	state := NewState(provider).Encode()

	popup, messages, origin, callbackURL, err := b.newPopup()
	if err != nil {
		return nil, err
	}
	defer popup.Close()

	authURL := provider.AuthorizeURL(clientID, callbackURL, state)
	if err = popup.Open(authURL); err != nil {
		return nil, flowError(ErrPopupBlocked, err)
	}

	poll := time.NewTicker(b.pollInterval)
	defer poll.Stop()

	var timeoutCh <-chan time.Time
	if b.timeout > 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	log.Debugf("waiting for %s sign-in to complete", provider)
	for {
		select {
		case msg := <-messages:
			if msg.Origin != origin {
				// Cross-origin messages are dropped, not treated as errors.
				log.Debugf("ignoring message from foreign origin %q", msg.Origin)
				continue
			}
			switch msg.Type {
			case MessageTypeSuccess:
				return &Result{Token: msg.AccessToken, Provider: msg.Provider}, nil
			case MessageTypeError:
				return nil, providerError(msg.Error)
			default:
				log.Debugf("ignoring message of unknown type %q", msg.Type)
			}
		case <-poll.C:
			if popup.Closed() {
				// Drain a message that raced the final poll tick; the
				// receiver may have posted just before closing.
				select {
				case msg := <-messages:
					if msg.Origin == origin && msg.Type == MessageTypeSuccess {
						return &Result{Token: msg.AccessToken, Provider: msg.Provider}, nil
					}
					if msg.Origin == origin && msg.Type == MessageTypeError {
						return nil, providerError(msg.Error)
					}
				default:
				}
				return nil, ErrCancelled
			}
		case <-timeoutCh:
			return nil, ErrCallbackTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
