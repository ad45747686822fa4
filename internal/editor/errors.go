package editor

import (
	"errors"
	"fmt"

	"github.com/five82/waypoint/internal/features"
)

var (
	// ErrNotOnPage is returned when selecting a record that is not part of
	// the most recently rendered page.
	ErrNotOnPage = errors.New("record is not on the current page")
	// ErrStaleResponse is returned by ApplyPage for a result that was
	// superseded by a newer page request.
	ErrStaleResponse = errors.New("stale page response")
	// ErrMutationInFlight is returned by Submit while a previous mutation has
	// not been applied yet.
	ErrMutationInFlight = errors.New("a save is already in progress")
)

// ValidationError reports draft contents that cannot be sent to the store.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MutationError reports a create, update or delete the store rejected.
type MutationError struct {
	Kind MutationKind
	ID   features.ID
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s record: %v", e.Kind, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
