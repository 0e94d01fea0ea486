package invsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrInvalidCredentials is returned by Login when the API rejects the
	// username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrRefreshExpired is returned by Refresh when the API rejects the stored
	// refresh token (expired, blacklisted or malformed).
	ErrRefreshExpired = errors.New("refresh token expired")

	// ErrInvalidRequest wraps client-side payload validation failures.
	ErrInvalidRequest = errors.New("invalid request")
)

// ============================================================================
// NetworkError
// ============================================================================

// NetworkError is a failure to complete an HTTP exchange: connection errors,
// timeouts, unreadable bodies, or (for the refresh call) any response other
// than success or 401.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ============================================================================
// APIError
// ============================================================================

// APIError is a non-2xx response that carries no field-level errors.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ============================================================================
// ValidationError
// ============================================================================

// ValidationError is a 400 response carrying field errors, e.g.
//
//	{"adjustments": [{}, {"item": ["Invalid pk \"999\" - object does not exist."]}]}
type ValidationError struct {
	StatusCode int
	Fields     map[string]any
}

// Error renders every field error as one human readable line.
func (e *ValidationError) Error() string {
	if s := e.Summary(); s != "" {
		return "Validation failed: " + s
	}
	return "Validation failed"
}

// Summary joins "field: messages" pairs with " | " in field name order.
func (e *ValidationError) Summary() string {
	keys := sortedKeys(e.Fields)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+flatten(e.Fields[k]))
	}
	return strings.Join(parts, " | ")
}

// IndexedErrors returns the messages of a list field keyed by list index.
// Both the list form ([{}, {...}]) and the object form ({"1": {...}}) the API
// produces for nested serializers are understood. Empty entries are skipped.
func (e *ValidationError) IndexedErrors(field string) map[int]string {
	out := make(map[int]string)
	switch v := e.Fields[field].(type) {
	case []any:
		for i, entry := range v {
			if msg := flatten(entry); msg != "" {
				out[i] = msg
			}
		}
	case map[string]any:
		for k, entry := range v {
			i, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			if msg := flatten(entry); msg != "" {
				out[i] = msg
			}
		}
	}
	return out
}

// flatten turns a decoded JSON error value into text: lists are joined with
// ", ", objects render their values joined with "; " in key order.
func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := flatten(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			if s := flatten(t[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(t)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse converts a non-2xx response body into a typed error.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		switch v := decoded.(type) {
		case map[string]any:
			if detail, ok := v["detail"].(string); ok {
				return &APIError{StatusCode: resp.StatusCode, Detail: detail}
			}
			if resp.StatusCode == http.StatusBadRequest && len(v) > 0 {
				return &ValidationError{StatusCode: resp.StatusCode, Fields: v}
			}
		case []any:
			if resp.StatusCode == http.StatusBadRequest && len(v) > 0 {
				return &ValidationError{
					StatusCode: resp.StatusCode,
					Fields:     map[string]any{"non_field_errors": v},
				}
			}
		}
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 || strings.HasPrefix(detail, "<") {
		// HTML error pages are noise in a terminal.
		detail = ""
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}
