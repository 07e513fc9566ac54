package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout means the deadline elapsed before a response arrived. The
	// backend may still be working on the request.
	ErrTimeout = errors.New("request timed out")

	// ErrEmptyResult means the call succeeded but returned nothing usable.
	ErrEmptyResult = errors.New("backend returned an empty result")
)

// TransportError is a response the backend completed but reported as a
// failure, or a response body that could not be decoded.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// NetworkError is a failure below HTTP: the request never reached the
// backend or its response never came back.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutNotice is shown to users when a call exceeded its deadline.
const TimeoutNotice = "The request timed out. The service may still be processing it, please try again later."

// Describe turns any failure into text suitable for showing to a user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrTimeout) {
		return TimeoutNotice
	}
	var te *TransportError
	if errors.As(err, &te) && strings.TrimSpace(te.Message) != "" {
		return te.Message
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "The service is temporarily unavailable."
	}
	return msg
}
