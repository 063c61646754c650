package remote

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// Kind tags the outcome of a request so callers dispatch on it instead of
// inspecting status codes.
type Kind int

const (
	KindOK Kind = iota
	KindNotModified
	KindFeatureAbsent
	KindUnauthorized
	KindInvalid
	KindTransient
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotModified:
		return "not_modified"
	case KindFeatureAbsent:
		return "feature_absent"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalid:
		return "invalid"
	case KindTransient:
		return "transient"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrFeatureAbsent = errors.New("feature not available")
	ErrCancelled     = errors.New("request cancelled")
	ErrTransient     = errors.New("transient failure")
)

// Result is the tagged outcome of one request.
type Result[T any] struct {
	Kind    Kind
	Value   T
	ETag    string
	Message string // Invalid only
	Err     error  // Transient and Cancelled
}

// OK reports whether Value holds a usable payload.
func (r Result[T]) OK() bool { return r.Kind == KindOK }

// AsError maps a non-OK result to an error for callers that want plain
// error returns (mutations). OK and NotModified map to nil.
func (r Result[T]) AsError() error {
	switch r.Kind {
	case KindOK, KindNotModified:
		return nil
	case KindFeatureAbsent:
		return ErrFeatureAbsent
	case KindUnauthorized:
		return ErrUnauthorized
	case KindInvalid:
		return &domain.ValidationError{Fields: []domain.FieldError{{Msg: r.Message}}}
	case KindCancelled:
		return ErrCancelled
	default:
		if r.Err != nil {
			return fmt.Errorf("%w: %w", ErrTransient, r.Err)
		}
		return ErrTransient
	}
}

// HTTPError keeps the details of an unexpected response.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}
