package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/upwatch/upwatch-cli/internal/session"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/singleflight"
)

// authTransport is the request pipeline every outbound call passes through.
// The request stage attaches the stored access token as a bearer credential;
// the response stage intercepts authorization failures and performs a
// single-attempt refresh-and-retry. The replayed request is sent straight to
// the base transport, so the interceptor can never recurse for the same
// request.
type authTransport struct {
	base             http.RoundTripper
	store            session.Store
	refreshURL       string
	refreshGroup     singleflight.Group
	onSessionExpired func()
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	sess, err := t.store.Load(ctx)
	if err != nil {
		log.Warnf("session load failed, request proceeds unauthenticated: %v", err)
		sess = nil
	}

	outReq := req.Clone(ctx)
	if sess != nil && strings.TrimSpace(sess.Access) != "" {
		outReq.Header.Set("Authorization", "Bearer "+sess.Access)
	}

	resp, err := t.base.RoundTrip(outReq)
	if err != nil {
		return nil, err
	}

	// Only an authorization failure on a request that owned a refreshable
	// session is recoverable here. Anything else passes through unmodified.
	if resp.StatusCode != http.StatusUnauthorized || sess == nil || strings.TrimSpace(sess.Refresh) == "" {
		return resp, nil
	}

	// The original response is consumed; its body is replaced either by the
	// replayed response or by the refresh error.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	access, err := t.refreshAccessToken(ctx, sess.Refresh)
	if err != nil {
		return nil, err
	}

	retryReq, err := rewindRequest(req)
	if err != nil {
		return nil, fmt.Errorf("replay request after refresh: %w", err)
	}
	retryReq.Header.Set("Authorization", "Bearer "+access)

	log.Debugf("replaying %s %s after token refresh", retryReq.Method, retryReq.URL.Path)
	return t.base.RoundTrip(retryReq)
}

// refreshAccessToken exchanges the refresh token for a new access token and
// persists it. Concurrent callers share a single in-flight refresh; the
// backend sees one refresh call no matter how many requests expired at once.
// A rejected refresh is session-fatal: the store is cleared and the expiry
// hook fires.
func (t *authTransport) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	access, err, _ := t.refreshGroup.Do("refresh", func() (interface{}, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "refresh", refreshToken)
		refreshReq, errReq := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(body))
		if errReq != nil {
			return "", errReq
		}
		refreshReq.Header.Set("Content-Type", "application/json")

		resp, errDo := t.base.RoundTrip(refreshReq)
		if errDo != nil {
			return "", fmt.Errorf("token refresh request failed: %w", errDo)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		raw, errRead := io.ReadAll(resp.Body)
		if errRead != nil {
			return "", fmt.Errorf("read refresh response: %w", errRead)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("token refresh rejected with status %d", resp.StatusCode)
		}

		newAccess := gjson.GetBytes(raw, "access").String()
		if newAccess == "" {
			return "", fmt.Errorf("refresh response carried no access token")
		}

		if errSave := t.store.Save(ctx, &session.Session{Access: newAccess, Refresh: refreshToken}); errSave != nil {
			return "", fmt.Errorf("persist refreshed session: %w", errSave)
		}
		log.Debug("access token refreshed")
		return newAccess, nil
	})
	if err != nil {
		log.Warnf("token refresh failed, clearing session: %v", err)
		if errClear := t.store.Clear(ctx); errClear != nil {
			log.Errorf("failed to clear session after refresh failure: %v", errClear)
		}
		if t.onSessionExpired != nil {
			t.onSessionExpired()
		}
		return "", err
	}
	return access.(string), nil
}

// rewindRequest produces a replayable copy of req with its body reset to the
// beginning.
func rewindRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}

// buildBaseTransport returns the underlying transport, honoring an optional
// HTTP, HTTPS, or SOCKS5 proxy URL.
func buildBaseTransport(proxyURLStr string) (http.RoundTripper, error) {
	proxyURLStr = strings.TrimSpace(proxyURLStr)
	if proxyURLStr == "" {
		return http.DefaultTransport, nil
	}

	proxyURL, err := url.Parse(proxyURLStr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy URL: %w", err)
	}

	switch proxyURL.Scheme {
	case "socks5":
		username := proxyURL.User.Username()
		password, _ := proxyURL.User.Password()
		var auth *proxy.Auth
		if username != "" {
			auth = &proxy.Auth{User: username, Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
		if errSOCKS5 != nil {
			return nil, fmt.Errorf("create SOCKS5 dialer: %w", errSOCKS5)
		}
		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}, nil
	case "http", "https":
		return &http.Transport{Proxy: http.ProxyURL(proxyURL)}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
}
