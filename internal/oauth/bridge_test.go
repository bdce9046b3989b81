package oauth

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/upwatch/upwatch-cli/internal/config"
)

const testOrigin = "http://localhost:53682"

type fakePopup struct {
	openedURL  string
	openErr    error
	closed     atomic.Bool
	closeCalls atomic.Int64
}

func (p *fakePopup) Open(url string) error {
	p.openedURL = url
	return p.openErr
}

func (p *fakePopup) Closed() bool { return p.closed.Load() }

func (p *fakePopup) Close() { p.closeCalls.Add(1) }

// newTestBridge wires a bridge to a fake secondary context. The returned
// channel feeds messages to the bridge as if the callback receiver had posted
// them.
func newTestBridge(cfg *config.OAuthConfig, popup *fakePopup, factoryCalls *atomic.Int64) (*Bridge, chan Message) {
	messages := make(chan Message, 4)
	b := &Bridge{
		cfg: cfg,
		newPopup: func() (Popup, <-chan Message, string, string, error) {
			if factoryCalls != nil {
				factoryCalls.Add(1)
			}
			return popup, messages, testOrigin, testOrigin + "/oauth/callback", nil
		},
		pollInterval: 10 * time.Millisecond,
	}
	return b, messages
}

func testOAuthConfig() *config.OAuthConfig {
	return &config.OAuthConfig{
		GoogleClientID: "google-client",
		GitHubClientID: "github-client",
		CallbackPort:   53682,
	}
}

func TestSignInWithResolvesOnSuccessMessage(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	bridge, messages := newTestBridge(testOAuthConfig(), popup, nil)

	messages <- Message{
		Type:        MessageTypeSuccess,
		Origin:      testOrigin,
		AccessToken: "T1",
		Provider:    Google,
	}

	result, err := bridge.SignInWith(context.Background(), Google)
	if err != nil {
		t.Fatalf("SignInWith() failed: %v", err)
	}
	if result.Token != "T1" || result.Provider != Google {
		t.Errorf("SignInWith() = %+v, want token T1 from google", result)
	}
	if got := popup.closeCalls.Load(); got != 1 {
		t.Errorf("popup close calls = %d, want 1 (cleanup on success path)", got)
	}
	if !strings.Contains(popup.openedURL, "client_id=google-client") {
		t.Errorf("authorize URL = %q, want google client id embedded", popup.openedURL)
	}
	if !strings.Contains(popup.openedURL, "response_type=token") {
		t.Errorf("authorize URL = %q, want implicit-flow response type", popup.openedURL)
	}
}

func TestSignInWithRejectsOnErrorMessage(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	bridge, messages := newTestBridge(testOAuthConfig(), popup, nil)

	messages <- Message{
		Type:     MessageTypeError,
		Origin:   testOrigin,
		Provider: Google,
		Error:    "access_denied",
	}

	_, err := bridge.SignInWith(context.Background(), Google)
	if err == nil || !strings.Contains(err.Error(), "access_denied") {
		t.Fatalf("SignInWith() error = %v, want provider error", err)
	}
	if got := popup.closeCalls.Load(); got != 1 {
		t.Errorf("popup close calls = %d, want 1 (cleanup on error path)", got)
	}
}

func TestSignInWithRejectsWhenPopupClosesSilently(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	popup.closed.Store(true)
	bridge, _ := newTestBridge(testOAuthConfig(), popup, nil)

	_, err := bridge.SignInWith(context.Background(), GitHub)
	if !IsFlowError(err, ErrCancelled) {
		t.Fatalf("SignInWith() error = %v, want cancellation", err)
	}
	if got := popup.closeCalls.Load(); got != 1 {
		t.Errorf("popup close calls = %d, want 1 (cleanup on cancel path)", got)
	}
	if !strings.Contains(popup.openedURL, "client_id=github-client") {
		t.Errorf("authorize URL = %q, want github client id embedded", popup.openedURL)
	}
}

func TestSignInWithIgnoresForeignOriginMessages(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	bridge, messages := newTestBridge(testOAuthConfig(), popup, nil)

	// A spoofed message from a foreign origin must leave the operation
	// pending; only the legitimate message after it settles the flow.
	messages <- Message{
		Type:        MessageTypeSuccess,
		Origin:      "http://evil.example.com",
		AccessToken: "stolen",
		Provider:    Google,
	}
	messages <- Message{
		Type:        MessageTypeSuccess,
		Origin:      testOrigin,
		AccessToken: "legit",
		Provider:    Google,
	}

	result, err := bridge.SignInWith(context.Background(), Google)
	if err != nil {
		t.Fatalf("SignInWith() failed: %v", err)
	}
	if result.Token != "legit" {
		t.Errorf("SignInWith() token = %q, want the legitimate message to win", result.Token)
	}
}

func TestSignInWithForeignMessageThenClose(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	bridge, messages := newTestBridge(testOAuthConfig(), popup, nil)

	messages <- Message{
		Type:        MessageTypeSuccess,
		Origin:      "http://evil.example.com",
		AccessToken: "stolen",
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		popup.closed.Store(true)
	}()

	_, err := bridge.SignInWith(context.Background(), Google)
	if !IsFlowError(err, ErrCancelled) {
		t.Fatalf("SignInWith() error = %v, want cancellation after spoofed message was dropped", err)
	}
}

func TestSignInWithFailsFastWithoutClientID(t *testing.T) {
	t.Parallel()

	var factoryCalls atomic.Int64
	popup := &fakePopup{}
	bridge, _ := newTestBridge(&config.OAuthConfig{}, popup, &factoryCalls)

	_, err := bridge.SignInWith(context.Background(), Google)
	if !IsFlowError(err, ErrProviderNotConfigured) {
		t.Fatalf("SignInWith() error = %v, want configuration error", err)
	}
	// Nothing may be opened on a configuration failure.
	if got := factoryCalls.Load(); got != 0 {
		t.Errorf("popup factory calls = %d, want 0", got)
	}
}

func TestSignInWithPopupBlocked(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{openErr: errors.New("no browser available")}
	bridge, _ := newTestBridge(testOAuthConfig(), popup, nil)

	_, err := bridge.SignInWith(context.Background(), Google)
	if !IsFlowError(err, ErrPopupBlocked) {
		t.Fatalf("SignInWith() error = %v, want popup-blocked error", err)
	}
	if got := popup.closeCalls.Load(); got != 1 {
		t.Errorf("popup close calls = %d, want 1 (cleanup even when open fails)", got)
	}
}

func TestSignInWithTimeout(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	bridge, _ := newTestBridge(testOAuthConfig(), popup, nil)
	bridge.timeout = 30 * time.Millisecond

	_, err := bridge.SignInWith(context.Background(), Google)
	if !IsFlowError(err, ErrCallbackTimeout) {
		t.Fatalf("SignInWith() error = %v, want timeout", err)
	}
}

func TestSignInWithContextCancellation(t *testing.T) {
	t.Parallel()

	popup := &fakePopup{}
	bridge, _ := newTestBridge(testOAuthConfig(), popup, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := bridge.SignInWith(ctx, Google)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SignInWith() error = %v, want context cancellation", err)
	}
	if got := popup.closeCalls.Load(); got != 1 {
		t.Errorf("popup close calls = %d, want 1 (cleanup on ctx cancel)", got)
	}
}
