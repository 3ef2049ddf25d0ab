package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain operations
var (
	// ErrUnknownNetwork is returned when a network id is not configured
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrMissingUpstream is returned when a network has no upstream RPC URL
	ErrMissingUpstream = errors.New("missing upstream RPC URL")

	// ErrShutdown is returned when the fork manager has been shut down
	ErrShutdown = errors.New("fork manager is shut down")
)

// ConfigurationError is raised before any process is spawned
type ConfigurationError struct {
	NetworkID string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if errors.Is(e.Err, ErrMissingUpstream) {
		return fmt.Sprintf("No RPC URL configured for network: %s", e.NetworkID)
	}
	return fmt.Sprintf("Unknown network: %s", e.NetworkID)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StartupTimeoutError is returned when a fork fails its readiness probe in time
type StartupTimeoutError struct {
	NetworkID string
	Port      int
	Timeout   time.Duration
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("Failed to start fork for %s: not ready on port %d after %s", e.NetworkID, e.Port, e.Timeout)
}

// ProcessError is returned when a fork process fails to start or exits unexpectedly
type ProcessError struct {
	NetworkID string
	Port      int
	Err       error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("Failed to start fork for %s on port %d: %v", e.NetworkID, e.Port, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// DecodeError describes a single log that could not be decoded
type DecodeError struct {
	Index   int
	Address string
	Reason  string
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("malformed log %d from %s: %s", e.Index, e.Address, e.Reason)
}

// IsForkStartFailure reports whether err means a fork could not be brought up
func IsForkStartFailure(err error) bool {
	var timeoutErr *StartupTimeoutError
	var processErr *ProcessError
	return errors.As(err, &timeoutErr) || errors.As(err, &processErr)
}
