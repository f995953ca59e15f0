package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrTransport marks failures that never produced an HTTP response.
	ErrTransport = errors.New("transport failure")
	// ErrSessionExpired is returned after a failed token refresh cleared the session.
	ErrSessionExpired = errors.New("session expired")
)

// Kind groups errors by how callers should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindUnauthorized
	KindForbidden
	KindValidation
	KindNotFound
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a non-2xx response from the backend.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the backend's human-readable message, when it sent one.
	Detail string
	// Fields holds per-field validation messages keyed by field name.
	Fields map[string][]string
	Body   []byte
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Kind classifies the response status.
func (e *Error) Kind() Kind {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return KindUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return KindForbidden
	case e.StatusCode == http.StatusNotFound:
		return KindNotFound
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case e.StatusCode >= 500:
		return KindServer
	case e.StatusCode >= 400:
		return KindClient
	default:
		return KindUnknown
	}
}

// Classify maps err onto the error taxonomy.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrSessionExpired) {
		return KindUnauthorized
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	if errors.Is(err, ErrTransport) {
		return KindTransport
	}
	return KindUnknown
}

// Message returns display text for err: the backend detail, then flattened
// field errors, then fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if apiErr.Detail != "" {
		return apiErr.Detail
	}
	if len(apiErr.Fields) == 0 {
		return fallback
	}
	names := make([]string, 0, len(apiErr.Fields))
	for name := range apiErr.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(apiErr.Fields[name], " "))
	}
	return strings.Join(parts, "; ")
}

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, StatusCode: status, Body: body}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil {
		var list []string
		if json.Unmarshal(body, &list) == nil {
			e.Detail = strings.Join(list, " ")
		}
		return e
	}

	for key, raw := range object {
		switch key {
		case "detail", "message", "error":
			var text string
			if json.Unmarshal(raw, &text) == nil && e.Detail == "" {
				e.Detail = text
			}
			continue
		}
		if msgs := fieldMessages(raw); len(msgs) > 0 {
			if e.Fields == nil {
				e.Fields = make(map[string][]string)
			}
			e.Fields[key] = msgs
		}
	}
	return e
}

func fieldMessages(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var single string
	if json.Unmarshal(raw, &single) == nil && single != "" {
		return []string{single}
	}
	return nil
}
