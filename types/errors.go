package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and handlers.
var (
	// ErrNotFound is returned when a song, playlist or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProviderAuth is returned when the lyrics provider credential is
	// missing or rejected. Callers should surface a configuration hint.
	ErrProviderAuth = errors.New("lyrics provider credential missing or invalid")

	// ErrProviderMiss is returned when the provider has no lyrics for a
	// song. The miss is cached so the provider is not asked again.
	ErrProviderMiss = errors.New("lyrics not available")

	// ErrConflict is returned when a unique name already exists, e.g. on
	// creating a duplicate playlist.
	ErrConflict = errors.New("already exists")
)

// ToolError carries the captured output of a failed external tool run.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
