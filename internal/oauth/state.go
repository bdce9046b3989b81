package oauth

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// State is the opaque value round-tripped through the provider's standard
// `state` parameter. Its job is to tell the callback receiver, which
// otherwise has no idea which provider redirected to it, who initiated the
// flow. The nonce makes each attempt's state unique.
type State struct {
	Provider Provider `json:"provider"`
	Nonce    string   `json:"nonce,omitempty"`
}

// NewState creates a state value for one sign-in attempt.
func NewState(p Provider) State {
	return State{Provider: p, Nonce: uuid.NewString()}
}

// Encode serializes the state as JSON. URL escaping is left to whoever embeds
// it in a URL; providers echo the parameter back verbatim.
func (s State) Encode() string {
	raw, err := json.Marshal(s)
	if err != nil {
		// Session state is two plain strings; marshal cannot realistically fail.
		return fmt.Sprintf(`{"provider":%q}`, s.Provider)
	}
	return string(raw)
}

// DecodeState parses a state parameter recovered from a redirect URL. Some
// providers hand the parameter back percent-escaped, so an escaped form is
// tolerated.
func DecodeState(raw string) (State, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return State{}, fmt.Errorf("state parameter is empty")
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		unescaped, errUnescape := url.QueryUnescape(raw)
		if errUnescape != nil {
			return State{}, fmt.Errorf("decode state: %w", err)
		}
		if errRetry := json.Unmarshal([]byte(unescaped), &s); errRetry != nil {
			return State{}, fmt.Errorf("decode state: %w", errRetry)
		}
	}

	if _, err := ParseProvider(string(s.Provider)); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}
