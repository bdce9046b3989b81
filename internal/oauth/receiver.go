package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// defaultCloseDelay gives the final page time to render before the receiver
// tears itself down.
const defaultCloseDelay = 500 * time.Millisecond

// CallbackReceiver is the code that runs in the secondary context's half of
// the flow: a loopback HTTP server the provider redirects back to. It parses
// the redirect (fragment or query, depending on the provider's flow), recovers
// the initiating provider from the state parameter, and posts the outcome to
// the bridge as a Message. It never navigates the user anywhere; after
// posting it shuts itself down.
type CallbackReceiver struct {
	port       int
	closeDelay time.Duration
	server     *http.Server
	messages   chan Message

	mu       sync.Mutex
	running  bool
	finished atomic.Bool
}

// NewCallbackReceiver creates a receiver listening on the given loopback port.
func NewCallbackReceiver(port int) *CallbackReceiver {
	return &CallbackReceiver{
		port:       port,
		closeDelay: defaultCloseDelay,
		messages:   make(chan Message, 4),
	}
}

// Origin is the receiver's own origin. Outbound messages carry it, and the
// bridge accepts only messages that match it.
func (r *CallbackReceiver) Origin() string {
	return fmt.Sprintf("http://localhost:%d", r.port)
}

// CallbackURL is the redirect target registered with the providers.
func (r *CallbackReceiver) CallbackURL() string {
	return r.Origin() + "/oauth/callback"
}

// Messages returns the channel the receiver posts outcomes on.
func (r *CallbackReceiver) Messages() <-chan Message {
	return r.messages
}

// Start begins listening. It fails fast when the port is taken.
func (r *CallbackReceiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("callback receiver is already running")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", r.port))
	if err != nil {
		return flowError(ErrPortInUse, err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/oauth/callback", r.handleCallback)

	server := &http.Server{
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	r.server = server
	r.running = true

	go func() {
		if errServe := server.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Errorf("callback receiver failed: %v", errServe)
		}
	}()

	log.Debugf("callback receiver listening on %s", r.Origin())
	return nil
}

// Stop shuts the receiver down gracefully.
func (r *CallbackReceiver) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || r.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.server.Shutdown(shutdownCtx)
	r.running = false
	r.server = nil
	return err
}

// Finished reports whether the receiver has delivered a terminal message and
// begun tearing down.
func (r *CallbackReceiver) Finished() bool {
	return r.finished.Load()
}

// handleCallback processes the provider redirect. The first visit from an
// implicit-flow provider carries the result in the fragment, which never
// reaches the server, so it is answered with a relay page that reposts the
// fragment as query parameters.
func (r *CallbackReceiver) handleCallback(c *gin.Context) {
	query := c.Request.URL.Query()

	if len(query) == 0 {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(relayHTML))
		return
	}

	token := query.Get("access_token")
	code := query.Get("code")
	errorParam := query.Get("error")

	provider := r.recoverProvider(query.Get("state"))

	switch {
	case errorParam != "":
		log.Debugf("provider reported error: %s", errorParam)
		r.post(Message{Type: MessageTypeError, Origin: r.Origin(), Provider: provider, Error: errorParam})
		r.renderFailure(c, errorParam)
	case token != "" || code != "":
		result := token
		if result == "" {
			result = code
		}
		r.post(Message{Type: MessageTypeSuccess, Origin: r.Origin(), Provider: provider, AccessToken: result})
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(successHTML))
	default:
		r.post(Message{Type: MessageTypeError, Origin: r.Origin(), Provider: provider, Error: "No access token received"})
		r.renderFailure(c, "No access token received")
	}

	r.finishAfterDelay()
}

// recoverProvider decodes the state parameter. A state that fails to decode
// falls back to Google so the flow can still complete.
// TODO: fail the flow on an undecodable state instead of assuming Google.
func (r *CallbackReceiver) recoverProvider(stateParam string) Provider {
	state, err := DecodeState(stateParam)
	if err != nil {
		log.Warnf("failed to decode state parameter, assuming google: %v", err)
		return Google
	}
	return state.Provider
}

func (r *CallbackReceiver) renderFailure(c *gin.Context, reason string) {
	page := strings.Replace(failureHTML, "{{REASON}}", reason, 1)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// post delivers a message without blocking the HTTP handler.
func (r *CallbackReceiver) post(msg Message) {
	select {
	case r.messages <- msg:
	default:
		log.Warn("callback message channel is full, message dropped")
	}
}

// finishAfterDelay marks the flow settled and schedules the shutdown, leaving
// the response time to reach the browser.
func (r *CallbackReceiver) finishAfterDelay() {
	if r.finished.Swap(true) {
		return
	}
	time.AfterFunc(r.closeDelay, func() {
		if err := r.Stop(context.Background()); err != nil {
			log.Debugf("callback receiver shutdown: %v", err)
		}
	})
}
