package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

// maxLoggedBody caps how much of a body is written to the log.
const maxLoggedBody = 8 * 1024

// loggingTransport logs each request/response pair at debug level when
// request logging is enabled. Credentials are redacted and compressed
// response bodies are decompressed before logging; the wire payload handed
// back to the caller is untouched.
type loggingTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.GetBody != nil {
		if rc, err := req.GetBody(); err == nil {
			reqBody, _ = io.ReadAll(io.LimitReader(rc, maxLoggedBody))
			_ = rc.Close()
		}
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Debugf("%s %s failed after %s: %v", req.Method, req.URL, elapsed.Round(time.Millisecond), err)
		return nil, err
	}

	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	logged := respBody
	if decoded, decErr := decompressBody(resp.Header.Get("Content-Encoding"), respBody); decErr == nil {
		logged = decoded
	} else {
		log.Debugf("response decompression for log failed: %v", decErr)
	}
	if len(logged) > maxLoggedBody {
		logged = logged[:maxLoggedBody]
	}

	log.Debugf("%s %s -> %d (%s) request=%s response=%s",
		req.Method, req.URL, resp.StatusCode, elapsed.Round(time.Millisecond),
		redactSecrets(reqBody), redactSecrets(logged))
	return resp, nil
}

// decompressBody undoes the response Content-Encoding for logging purposes.
func decompressBody(encoding string, body []byte) ([]byte, error) {
	switch encoding {
	case "", "identity":
		return body, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = r.Close()
		}()
		return io.ReadAll(io.LimitReader(r, maxLoggedBody))
	case "br":
		return io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(body)), maxLoggedBody))
	case "zstd":
		r, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(io.LimitReader(r, maxLoggedBody))
	default:
		return body, nil
	}
}

// secretFields are JSON keys whose values never belong in a log file.
var secretFields = []string{"password", "new_password", "access", "refresh", "access_token"}

func redactSecrets(body []byte) string {
	if len(body) == 0 {
		return "-"
	}
	out := body
	for _, field := range secretFields {
		if res, err := sjson.SetBytes(out, field, "[REDACTED]"); err == nil && bytes.Contains(body, []byte(`"`+field+`"`)) {
			out = res
		}
	}
	return string(out)
}
