package similarity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCredentialMissing = errors.New("api key is missing")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTransport         = errors.New("transport failure")
	ErrParse             = errors.New("unable to parse similarity score")
	ErrOutOfRange        = errors.New("similarity score out of range")
)

// StatusError reports a non-success HTTP status from the completion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("similarity request: http %d", e.StatusCode)
	}
	return fmt.Sprintf("similarity request: http %d: %s", e.StatusCode, body)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// RangeError carries a parsed score that fell outside [MinScore, MaxScore].
type RangeError struct {
	Value Score
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("similarity score %v outside [%v, %v]", float64(e.Value), float64(MinScore), float64(MaxScore))
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }
