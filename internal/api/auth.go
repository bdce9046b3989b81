package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/upwatch/upwatch-cli/internal/session"
)

// parseSession extracts the access/refresh token pair issued by the backend.
func parseSession(body []byte) (*session.Session, error) {
	access := gjson.GetBytes(body, "access").String()
	refresh := gjson.GetBytes(body, "refresh").String()
	if access == "" || refresh == "" {
		return nil, fmt.Errorf("backend response carried no token pair")
	}
	return &session.Session{Access: access, Refresh: refresh}, nil
}

// Login exchanges email and password for a session. It stores nothing itself;
// the caller decides whether and where to persist the returned session.
// Failures carry a single human-readable message chosen by the translation
// priority in translateAuthError.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (*session.Session, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	body, _ := sjson.SetBytes([]byte(`{}`), "email", email)
	body, _ = sjson.SetBytes(body, "password", password)
	body, _ = sjson.SetBytes(body, "remember_me", rememberMe)

	status, raw, err := c.postJSON(ctx, "login/", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, translateAuthError(raw, []string{"email", "password"}, "Login failed. Please try again.")
	}
	return parseSession(raw)
}

// Register creates an account and returns its initial session. Contract and
// error translation match Login.
func (c *Client) Register(ctx context.Context, name, email, password string) (*session.Session, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	body, _ := sjson.SetBytes([]byte(`{}`), "full_name", name)
	body, _ = sjson.SetBytes(body, "email", email)
	body, _ = sjson.SetBytes(body, "password", password)

	status, raw, err := c.postJSON(ctx, "register/", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, translateAuthError(raw, []string{"full_name", "email", "password"}, "Registration failed. Please try again.")
	}
	return parseSession(raw)
}

// RequestPasswordReset asks the backend to email a reset link. No session
// side effects.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "email", email)

	status, raw, err := c.postJSON(ctx, "forgot-password/", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return translateSimpleError(raw, "Password reset request failed")
	}
	return nil
}

// ConfirmPasswordReset exchanges a reset token for a new password. No session
// side effects.
func (c *Client) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "uid", uid)
	body, _ = sjson.SetBytes(body, "token", token)
	body, _ = sjson.SetBytes(body, "new_password", newPassword)

	status, raw, err := c.postJSON(ctx, "reset-password/", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return translateSimpleError(raw, "Password reset failed")
	}
	return nil
}

// SocialAuthExchange trades a provider-issued token or code for this
// application's own session. It is the only place a third-party credential
// ever becomes a session.
func (c *Client) SocialAuthExchange(ctx context.Context, provider, providerToken string) (*session.Session, error) {
	body, _ := sjson.SetBytes([]byte(`{}`), "provider", provider)
	body, _ = sjson.SetBytes(body, "access_token", providerToken)

	status, raw, err := c.postJSON(ctx, "auth/social/", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, translateAuthError(raw, nil, "Social authentication failed")
	}
	return parseSession(raw)
}

// Logout clears the persisted session. The backend holds no client-visible
// session state, so this is purely local.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}
