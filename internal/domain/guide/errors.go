package guide

import (
	"errors"
	"fmt"
)

var (
	ErrGuideNotFound       = errors.New("guide not found")
	ErrStageUnavailable    = errors.New("stage store unavailable")
	ErrMalformedTimestamp  = errors.New("malformed timestamp")
	ErrInvalidGuideID      = errors.New("invalid guide id")
	ErrAuthorizationDenied = errors.New("authorization code rejected")
)

// NotFoundError reports a guide without an entry record in either store.
// Orphan is set when later-stage records exist for the id.
type NotFoundError struct {
	GuideID string
	Orphan  bool
}

func (e *NotFoundError) Error() string {
	if e.Orphan {
		return fmt.Sprintf("guide %q not found (orphan stage records present)", e.GuideID)
	}
	return fmt.Sprintf("guide %q not found", e.GuideID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrGuideNotFound
}

// StageUnavailableError wraps a read failure of a single non-entry stage store.
type StageUnavailableError struct {
	Stage Stage
	Err   error
}

func (e *StageUnavailableError) Error() string {
	return fmt.Sprintf("stage %s unavailable: %v", e.Stage, e.Err)
}

func (e *StageUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StageUnavailableError) Is(target error) bool {
	return target == ErrStageUnavailable
}
