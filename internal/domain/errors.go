package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Evolution errors
	ErrNoPendingTransition = errors.New("no pending evolution transition")
	ErrTransitionMismatch  = errors.New("evolution transition does not match pet state")

	// Quest errors
	ErrQuestNotFound       = errors.New("quest not found")
	ErrQuestNotCompleted   = errors.New("quest is not completed yet")
	ErrQuestAlreadyClaimed = errors.New("quest reward already claimed")

	// Shop errors
	ErrItemNotFound      = errors.New("shop item not found")
	ErrInsufficientCoins = errors.New("not enough coins")
)

// ConfigurationError reports a lookup into a fixed table that has no entry.
// It signals a data bug, not a runtime condition, and is fatal at the call site.
type ConfigurationError struct {
	Kind string // "track", "stage", "achievement", ...
	Key  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: unknown %s %q", e.Kind, e.Key)
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
