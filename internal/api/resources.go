package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Profile is the authenticated user's account summary.
type Profile struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Monitor is a website or heartbeat monitor owned by the user. Only the
// fields the CLI displays are decoded.
type Monitor struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

func detailError(body []byte, fallback string) error {
	if msg := strings.TrimSpace(gjson.GetBytes(body, "detail").String()); msg != "" {
		return errors.New(msg)
	}
	return errors.New(fallback)
}

// GetProfile fetches the authenticated user's profile. It rides the full
// authenticated pipeline, including silent refresh.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	status, raw, err := c.getJSON(ctx, "user/profile/")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, detailError(raw, "Failed to fetch user profile")
	}
	return &Profile{
		Email:    gjson.GetBytes(raw, "email").String(),
		FullName: gjson.GetBytes(raw, "full_name").String(),
	}, nil
}

// ListWebsites returns the user's website monitors.
func (c *Client) ListWebsites(ctx context.Context) ([]Monitor, error) {
	return c.listMonitors(ctx, "websites/", "Failed to fetch websites")
}

// ListHeartbeats returns the user's heartbeat monitors.
func (c *Client) ListHeartbeats(ctx context.Context) ([]Monitor, error) {
	return c.listMonitors(ctx, "heartbeats/", "Failed to fetch heartbeats")
}

func (c *Client) listMonitors(ctx context.Context, endpoint, fallback string) ([]Monitor, error) {
	status, raw, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, detailError(raw, fallback)
	}

	var monitors []Monitor
	for _, item := range gjson.ParseBytes(raw).Array() {
		monitors = append(monitors, Monitor{
			ID:     item.Get("id").Int(),
			Name:   item.Get("name").String(),
			URL:    item.Get("url").String(),
			Status: item.Get("status").String(),
		})
	}
	return monitors, nil
}
