package pipeline

import (
	"errors"
	"fmt"

	"github.com/hakim/surfacerecon/internal/discovery"
	"github.com/hakim/surfacerecon/internal/models"
)

var (
	// ErrInvalidDomain is returned before any phase runs when the target is
	// not a valid domain name.
	ErrInvalidDomain = discovery.ErrInvalidDomain

	// ErrOutOfScope is returned when the target or an address falls outside
	// the configured scope.
	ErrOutOfScope = errors.New("out of scope")

	// ErrScanCancelled is returned when the scan context ends between phases.
	// The report is returned with StatusPartial.
	ErrScanCancelled = errors.New("scan cancelled")
)

// PhaseError reports a phase that returned an error or panicked.
type PhaseError struct {
	Phase models.Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
