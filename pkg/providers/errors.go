package providers

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed provider options or arguments.
type ValidationError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	prefix := "invalid options"
	if e.Provider != "" {
		prefix += " for " + e.Provider
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %q %s", prefix, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

// ProviderError wraps an upstream failure: unreachable site, unexpected HTTP
// status or unusable response.
type ProviderError struct {
	Provider   string
	StatusCode int
	URL        string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request to " + e.Provider + " failed"
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ParseError reports markup that does not have the expected shape.
type ParseError struct {
	Provider string
	URL      string
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError reports an unknown group or competition.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with name %s", e.Kind, e.Name)
}

// NotImplementedError is returned for capabilities a provider lacks.
type NotImplementedError struct {
	Provider string
	Feature  string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s does not implement %q feature", e.Provider, e.Feature)
}

// AsProviderError attempts to unwrap err into a ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
