package oauth

import (
	"net/url"
	"testing"
)

func TestStateRoundTripThroughURLParameter(t *testing.T) {
	t.Parallel()

	for _, provider := range []Provider{Google, GitHub} {
		provider := provider
		t.Run(string(provider), func(t *testing.T) {
			t.Parallel()

			encoded := NewState(provider).Encode()

			// Embed in a URL the way a provider echoes it back, then recover
			// it the way the callback receiver does.
			values := url.Values{"state": {encoded}}
			parsed, err := url.ParseQuery(values.Encode())
			if err != nil {
				t.Fatalf("ParseQuery() failed: %v", err)
			}

			state, err := DecodeState(parsed.Get("state"))
			if err != nil {
				t.Fatalf("DecodeState() failed: %v", err)
			}
			if state.Provider != provider {
				t.Errorf("decoded provider = %q, want %q", state.Provider, provider)
			}
			if state.Nonce == "" {
				t.Error("decoded state carries no nonce")
			}
		})
	}
}

func TestDecodeStateToleratesPercentEscapedForm(t *testing.T) {
	t.Parallel()

	encoded := url.QueryEscape(NewState(GitHub).Encode())
	state, err := DecodeState(encoded)
	if err != nil {
		t.Fatalf("DecodeState() failed: %v", err)
	}
	if state.Provider != GitHub {
		t.Errorf("decoded provider = %q, want github", state.Provider)
	}
}

func TestDecodeStateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not JSON", "gibberish"},
		{"unknown provider", `{"provider":"gitlab"}`},
		{"missing provider", `{"nonce":"abc"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeState(tt.raw); err == nil {
				t.Errorf("DecodeState(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestStatesAreUniquePerAttempt(t *testing.T) {
	t.Parallel()

	if NewState(Google).Encode() == NewState(Google).Encode() {
		t.Error("two attempts produced identical state values")
	}
}
