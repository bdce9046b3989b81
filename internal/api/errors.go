package api

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// firstMessage returns the first string out of a value that may be either a
// bare string or an array of strings, which is how the backend reports field
// errors.
func firstMessage(v gjson.Result) string {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return ""
		}
		return strings.TrimSpace(arr[0].String())
	}
	return strings.TrimSpace(v.String())
}

// translateAuthError reduces the backend's error body to a single
// human-readable message. The priority order decides which message the user
// sees when several error kinds are present at once and must not change:
// non-field errors, then named field errors in the given order, then the
// generic "error" and "detail" keys, then the operation's fallback string.
func translateAuthError(body []byte, fields []string, fallback string) error {
	if len(body) > 0 && gjson.ValidBytes(body) {
		if msg := firstMessage(gjson.GetBytes(body, "non_field_errors")); msg != "" {
			return errors.New(msg)
		}
		for _, field := range fields {
			if msg := firstMessage(gjson.GetBytes(body, field)); msg != "" {
				return errors.New(msg)
			}
		}
		if msg := strings.TrimSpace(gjson.GetBytes(body, "error").String()); msg != "" {
			return errors.New(msg)
		}
		if msg := strings.TrimSpace(gjson.GetBytes(body, "detail").String()); msg != "" {
			return errors.New(msg)
		}
	}
	return errors.New(fallback)
}

// translateSimpleError surfaces only the backend's "error" key, falling back
// to the given message. Used by the password-reset operations, whose error
// contract is flat.
func translateSimpleError(body []byte, fallback string) error {
	if len(body) > 0 && gjson.ValidBytes(body) {
		if msg := strings.TrimSpace(gjson.GetBytes(body, "error").String()); msg != "" {
			return errors.New(msg)
		}
	}
	return errors.New(fallback)
}
