package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// serveCallback drives the receiver's callback handler with the given query
// string without opening a real listener.
func serveCallback(t *testing.T, r *CallbackReceiver, rawQuery string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)
	req.URL.RawQuery = rawQuery
	c.Request = req

	r.handleCallback(c)
	return w
}

func drainMessage(t *testing.T, r *CallbackReceiver) Message {
	t.Helper()
	select {
	case msg := <-r.Messages():
		return msg
	default:
		t.Fatal("receiver posted no message")
		return Message{}
	}
}

func TestReceiverServesFragmentRelayOnBareVisit(t *testing.T) {
	t.Parallel()

	r := NewCallbackReceiver(53682)
	w := serveCallback(t, r, "")

	if !strings.Contains(w.Body.String(), "location.hash") {
		t.Error("bare visit did not serve the fragment relay page")
	}
	select {
	case msg := <-r.Messages():
		t.Errorf("relay visit posted message %+v, want none", msg)
	default:
	}
	if r.Finished() {
		t.Error("receiver finished before any result arrived")
	}
}

func TestReceiverPostsSuccessForImplicitFlowToken(t *testing.T) {
	t.Parallel()

	r := NewCallbackReceiver(53682)
	state := url.QueryEscape(NewState(Google).Encode())
	serveCallback(t, r, "access_token=tok-google&state="+state)

	msg := drainMessage(t, r)
	if msg.Type != MessageTypeSuccess {
		t.Fatalf("message type = %q, want success", msg.Type)
	}
	if msg.AccessToken != "tok-google" || msg.Provider != Google {
		t.Errorf("message = %+v, want google token", msg)
	}
	if msg.Origin != r.Origin() {
		t.Errorf("message origin = %q, want receiver's own origin %q", msg.Origin, r.Origin())
	}
	if !r.Finished() {
		t.Error("receiver not finished after delivering a result")
	}
}

func TestReceiverPostsSuccessForAuthorizationCode(t *testing.T) {
	t.Parallel()

	r := NewCallbackReceiver(53682)
	state := url.QueryEscape(NewState(GitHub).Encode())
	serveCallback(t, r, "code=code-123&state="+state)

	msg := drainMessage(t, r)
	if msg.Type != MessageTypeSuccess {
		t.Fatalf("message type = %q, want success", msg.Type)
	}
	if msg.AccessToken != "code-123" || msg.Provider != GitHub {
		t.Errorf("message = %+v, want github code", msg)
	}
}

func TestReceiverPostsProviderError(t *testing.T) {
	t.Parallel()

	r := NewCallbackReceiver(53682)
	serveCallback(t, r, "error=access_denied")

	msg := drainMessage(t, r)
	if msg.Type != MessageTypeError || msg.Error != "access_denied" {
		t.Errorf("message = %+v, want provider error", msg)
	}
}

func TestReceiverPostsErrorWhenNothingArrives(t *testing.T) {
	t.Parallel()

	r := NewCallbackReceiver(53682)
	serveCallback(t, r, "relay=done")

	msg := drainMessage(t, r)
	if msg.Type != MessageTypeError {
		t.Fatalf("message type = %q, want error", msg.Type)
	}
	if msg.Error != "No access token received" {
		t.Errorf("message error = %q", msg.Error)
	}
}

func TestReceiverFallsBackToGoogleOnBadState(t *testing.T) {
	t.Parallel()

	r := NewCallbackReceiver(53682)
	serveCallback(t, r, "access_token=tok&state=not-json")

	msg := drainMessage(t, r)
	if msg.Provider != Google {
		t.Errorf("recovered provider = %q, want google fallback", msg.Provider)
	}
}

func TestReceiverPortConflict(t *testing.T) {
	t.Parallel()

	first := NewCallbackReceiver(53690)
	if err := first.Start(); err != nil {
		t.Skipf("cannot bind test port: %v", err)
	}
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	second := NewCallbackReceiver(53690)
	err := second.Start()
	if !IsFlowError(err, ErrPortInUse) {
		t.Errorf("Start() on taken port = %v, want port-in-use error", err)
	}
}
