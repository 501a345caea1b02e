package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/rebeliceyang/lazyca/internal/models"
)

var (
	// ErrUnauthorized is returned for HTTP 401 responses
	ErrUnauthorized = errors.New("action not allowed")

	// ErrMissingID is returned when an operation needs an identifier
	ErrMissingID = errors.New("missing identifier")
)

// ProblemError carries a problem detail returned by the backend
type ProblemError struct {
	StatusCode int
	Problem    models.ProblemDetail
}

func (e *ProblemError) Error() string {
	if e.Problem.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Problem.Title, e.Problem.Detail)
	}
	return e.Problem.Title
}

// StatusError is returned for an unexpected status without problem detail
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// checkError classifies a response. Statuses >= 400 are always errors;
// below that, a status is an error only when expected codes are given and
// it is not one of them.
func checkError(status int, body []byte, expected ...int) error {
	if status < http.StatusBadRequest {
		if len(expected) == 0 || slices.Contains(expected, status) {
			return nil
		}
		return &StatusError{StatusCode: status, Body: truncate(string(body), 200)}
	}

	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if problem, ok := decodeProblem(body); ok {
		return &ProblemError{StatusCode: status, Problem: problem}
	}

	return &StatusError{StatusCode: status, Body: truncate(string(body), 200)}
}

// decodeProblem parses a problem detail, reporting whether a title was present
func decodeProblem(body []byte) (models.ProblemDetail, bool) {
	var problem models.ProblemDetail
	if len(body) == 0 {
		return problem, false
	}
	if err := json.Unmarshal(body, &problem); err != nil {
		return problem, false
	}
	return problem, !problem.IsEmpty()
}

// IsUnauthorized reports whether the error is a 401 rejection
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// AsProblem extracts the problem detail from an error chain
func AsProblem(err error) (models.ProblemDetail, bool) {
	var pe *ProblemError
	if errors.As(err, &pe) {
		return pe.Problem, true
	}
	return models.ProblemDetail{}, false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
