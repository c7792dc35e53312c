package llm

import (
	"fmt"

	"github.com/Strob0t/StatForge/internal/domain"
)

// maxErrorBody bounds how much of an error response is kept in the message.
const maxErrorBody = 512

// StatusError is a non-2xx answer from a model backend.
// Rate limiting and 5xx responses match domain.ErrUnavailable.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

// NewStatusError trims body to a loggable size.
func NewStatusError(backend string, code int, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = append(body[:maxErrorBody:maxErrorBody], "..."...)
	}
	return &StatusError{Backend: backend, Code: code, Body: string(body)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Backend, e.Code, e.Body)
}

// BackendFault reports whether the backend itself is at fault. A rejected
// request (bad payload, unknown model) says nothing about its health.
func (e *StatusError) BackendFault() bool {
	return e.Code >= 500 || e.Code == 429
}

func (e *StatusError) Unwrap() error {
	if e.BackendFault() {
		return domain.ErrUnavailable
	}
	return nil
}
