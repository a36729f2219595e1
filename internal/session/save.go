package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/surveyline/spotd/internal/spot"
)

// Precondition errors surfaced to the user before any gateway I/O happens.
var (
	// ErrNothingChecked is returned by SaveChecked when no rows are
	// checked ("nothing selected").
	ErrNothingChecked = errors.New("no rows checked for save")

	// ErrNothingDirty is returned by SaveAll when no rows have unsaved
	// changes ("nothing to save").
	ErrNothingDirty = errors.New("no changes to save")

	// ErrSaveInFlight is returned when a save is attempted while another
	// one has not completed yet.
	ErrSaveInFlight = errors.New("a save is already in progress")
)

// ValidationMode controls how SaveAll treats records that fail validation.
type ValidationMode int

const (
	// Strict aborts the save on the first invalid record and reports it.
	Strict ValidationMode = iota

	// Lenient logs invalid records and saves anyway.
	Lenient
)

// String returns the config-file spelling of the mode.
func (m ValidationMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParseValidationMode parses a config-file validation mode value.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch s {
	case "strict", "":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("invalid validation mode %q (want strict or lenient)", s)
	}
}

// ValidationError reports which record failed save-time validation.
type ValidationError struct {
	ID   string
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("spot %s (%q) is invalid: %v", e.ID, e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SaveChecked persists the store for the rows marked by checkboxes.
//
// The full current store is transmitted, not just the checked subset; the
// checked set decides only which dirty flags clear afterwards. With nothing
// checked it returns ErrNothingChecked and performs no I/O. On gateway
// failure all local state is left exactly as it was. On success the dirty
// flags of the previously checked rows clear and the checked set empties.
func (s *Session) SaveChecked(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if len(s.checked) == 0 {
		s.mu.Unlock()
		return ErrNothingChecked
	}

	snapshot := make([]spot.Spot, len(s.spots))
	copy(snapshot, s.spots)
	wasChecked := make([]string, 0, len(s.checked))
	for id := range s.checked {
		wasChecked = append(wasChecked, id)
	}
	s.saving = true
	s.mu.Unlock()

	err := s.gateway.Save(ctx, snapshot)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Printf("save checked failed: %v", err)
		return fmt.Errorf("failed to save spots: %w", err)
	}

	for _, id := range wasChecked {
		delete(s.dirty, id)
	}
	s.checked = make(map[string]struct{})
	s.mu.Unlock()

	s.logger.Printf("saved %d spots (%d checked rows committed)", len(snapshot), len(wasChecked))
	s.notify(Event{Type: EventSaved})
	return nil
}

// SaveAll persists the store for all dirty rows.
//
// With nothing dirty it returns ErrNothingDirty and performs no I/O. Under
// Strict validation the first invalid record aborts the save with a
// ValidationError naming it; under Lenient invalid records are logged and
// the save proceeds. On gateway failure all local state is left untouched;
// on success both the dirty and checked sets empty.
func (s *Session) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return ErrNothingDirty
	}

	for i := range s.spots {
		if err := s.spots[i].Validate(); err != nil {
			verr := &ValidationError{ID: s.spots[i].ID, Name: s.spots[i].Name, Err: err}
			if s.config.Validation == Strict {
				s.mu.Unlock()
				return verr
			}
			s.logger.Printf("saving anyway: %v", verr)
		}
	}

	snapshot := make([]spot.Spot, len(s.spots))
	copy(snapshot, s.spots)
	s.saving = true
	s.mu.Unlock()

	err := s.gateway.Save(ctx, snapshot)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Printf("save all failed: %v", err)
		return fmt.Errorf("failed to save spots: %w", err)
	}

	s.dirty = make(map[string]struct{})
	s.checked = make(map[string]struct{})
	s.mu.Unlock()

	s.logger.Printf("saved all %d spots", len(snapshot))
	s.notify(Event{Type: EventSaved})
	return nil
}

// Saving reports whether a save is currently in flight.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}
