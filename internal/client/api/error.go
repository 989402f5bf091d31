package api

import (
	"errors"
	"fmt"
)

// Kind classifies API failures so callers can branch on the category
// instead of raw status codes.
type Kind int

const (
	KindUnknown Kind = iota
	// KindCredential means the login credentials were rejected.
	KindCredential
	// KindUnauthorized means the session is no longer valid and refreshing
	// did not help. The caller should sign the user out.
	KindUnauthorized
	// KindValidation carries per-field messages from a 4xx response.
	KindValidation
	// KindConflict means the resource already exists.
	KindConflict
	// KindServer is any 5xx.
	KindServer
	// KindTransient is a network-level failure worth retrying.
	KindTransient
	// KindTimeout is a deadline or cancellation during transport.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	case KindTransient:
		return "transient"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every Client method.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Details holds the server's per-field validation messages, if any.
	Details []string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
