package core

import (
	"fmt"
	"strings"
)

// ConfigError reports a missing or invalid configuration value.
// It is raised at startup, before any network call.
type ConfigError struct {
	Field  string // e.g. "tmdb.api_key"
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// NetworkError wraps a transport-level failure (timeout, DNS, connection refused).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError is returned when the metadata service answers with a non-success status.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("upstream error %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream error %d: %s", e.StatusCode, body)
}

// NotFoundError is returned when the metadata service reports that a movie id does not exist.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("movie %d not found", e.ID)
}
