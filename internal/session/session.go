// Package session implements the spot editing session: the authoritative
// in-memory spot collection for one editing surface, plus the selection,
// dirty-row and checked-row state that keeps a tabular editor and a map view
// reconciled.
//
// The session replaces the implicit shared context of earlier builds with an
// explicit object: the grid side and the map side both hold a reference to
// the same *Session and observe each other's mutations through Subscribe.
// Every read goes back to the session; no caller may retain a spot value
// across a mutation and treat it as current.
//
// All mutations are synchronous. Saving flushes the store through a Gateway
// and is the only operation that suspends; a second save attempted while one
// is in flight fails with ErrSaveInFlight.
package session

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/surveyline/spotd/internal/spot"
)

// Epsilon is the tolerance for numeric field comparisons. Differences at or
// below this are floating-point noise from reformatting, not edits, and must
// not mark a row dirty.
const Epsilon = 1e-10

// Default insert position when nothing is selected, and the offset applied
// to the selected spot's position when something is.
const (
	DefaultLat   = 37.5665
	DefaultLon   = 126.978
	InsertOffset = 0.0001
)

// Editable field names, matching the grid's column names.
const (
	FieldName   = "name"
	FieldLat    = "lat"
	FieldLon    = "lon"
	FieldRelAlt = "rel_alt"
	FieldNote   = "note"
)

// Gateway is the persistence boundary for a session: an external data source
// that can be read once at load and written on save. Implementations live in
// internal/gateway.
type Gateway interface {
	// Load fetches the full ordered spot document.
	Load(ctx context.Context) ([]spot.Spot, error)

	// Save replaces the data source's document with the given spots.
	Save(ctx context.Context, spots []spot.Spot) error
}

// Config holds session configuration.
type Config struct {
	// DefaultLat/DefaultLon is the insert position used when no spot is
	// selected.
	DefaultLat float64
	DefaultLon float64

	// Validation controls whether SaveAll blocks on invalid records
	// (Strict) or logs them and proceeds (Lenient).
	Validation ValidationMode

	// Logger for session activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLat: DefaultLat,
		DefaultLon: DefaultLon,
		Validation: Strict,
		Logger:     log.New(os.Stderr, "[session] ", log.LstdFlags),
	}
}

// Session owns the canonical ordered spot sequence and its edit state.
type Session struct {
	mu       sync.Mutex
	spots    []spot.Spot
	dirty    map[string]struct{}
	checked  map[string]struct{}
	selected string
	editMode bool
	saving   bool
	tempSeq  int

	gateway Gateway
	config  *Config
	logger  *log.Logger

	subsMu sync.Mutex
	subs   []func(Event)
}

// New creates a session backed by the given gateway.
// A nil config uses DefaultConfig.
func New(gw Gateway, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}
	return &Session{
		dirty:   make(map[string]struct{}),
		checked: make(map[string]struct{}),
		gateway: gw,
		config:  config,
		logger:  config.Logger,
	}
}

// Load replaces the entire collection and clears dirty, checked and
// selection state. Records are copied in; the caller's slice is not shared.
func (s *Session) Load(records []spot.Spot) {
	s.mu.Lock()
	s.spots = make([]spot.Spot, len(records))
	copy(s.spots, records)
	s.dirty = make(map[string]struct{})
	s.checked = make(map[string]struct{})
	s.selected = ""
	s.mu.Unlock()

	s.notify(Event{Type: EventLoaded})
}

// LoadFromGateway fetches the initial document from the gateway. On failure
// the store is left empty and the error is logged and returned; the session
// remains usable (the user may retry).
func (s *Session) LoadFromGateway(ctx context.Context) error {
	records, err := s.gateway.Load(ctx)
	if err != nil {
		s.Load(nil)
		s.logger.Printf("load failed: %v", err)
		return fmt.Errorf("failed to load spots: %w", err)
	}
	s.Load(records)
	return nil
}

// Insert appends a new spot with a generated temporary identity and selects
// it. The zero position (0, 0) is the "no position supplied" sentinel: it is
// replaced with the selected spot's position plus a small offset, or the
// configured default center when nothing is selected. A caller that really
// means 0°N 0°E must place the spot with MoveSpot after inserting. Returns
// the new spot's identity.
func (s *Session) Insert(partial spot.Spot) string {
	s.mu.Lock()

	s.tempSeq++
	ns := partial
	ns.ID = fmt.Sprintf("%s%d-%d", spot.TempIDPrefix, time.Now().UnixMilli(), s.tempSeq)

	if ns.Lat == 0 && ns.Lon == 0 {
		if i := s.indexOf(s.selected); i >= 0 {
			ns.Lat = s.spots[i].Lat + InsertOffset
			ns.Lon = s.spots[i].Lon + InsertOffset
		} else {
			ns.Lat = s.config.DefaultLat
			ns.Lon = s.config.DefaultLon
		}
	}

	s.spots = append(s.spots, ns)
	s.selected = ns.ID
	id := ns.ID
	s.mu.Unlock()

	s.notify(Event{Type: EventInserted, ID: id})
	return id
}

// Update mutates one field of one spot from a committed cell value.
//
// The update is a no-op when the id is unknown, when a numeric field gets
// a value that does not parse, when name is committed blank, or when the
// new value equals the current one (within Epsilon for numeric fields).
// An applied update marks the row dirty and, if it was not already checked,
// auto-checks it so the next partial save picks it up.
//
// Returns true when the update was applied.
func (s *Session) Update(id, field, value string) bool {
	s.mu.Lock()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	cur := s.spots[i]
	next := cur

	switch field {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			s.mu.Unlock()
			return false
		}
		next.Name = value
	case FieldNote:
		next.Note = value
	case FieldLat, FieldLon, FieldRelAlt:
		f, err := spot.ParseNumeric(value)
		if err != nil {
			s.logger.Printf("rejected %s for spot %s: %v", field, id, err)
			s.mu.Unlock()
			return false
		}
		switch field {
		case FieldLat:
			next.Lat = f
		case FieldLon:
			next.Lon = f
		case FieldRelAlt:
			next.RelAlt = f
		}
	default:
		s.mu.Unlock()
		return false
	}

	if !spotChanged(cur, next) {
		s.mu.Unlock()
		return false
	}

	s.spots[i] = next
	s.markDirtyLocked(id)
	s.mu.Unlock()

	s.notify(Event{Type: EventUpdated, ID: id, Field: field})
	return true
}

// MoveSpot repositions a spot to a new geographic position, applying lat and
// lon as one logical edit. A drag that lands within Epsilon of the current
// position does not mark the row dirty, and an applied move produces exactly
// one dirty-flag transition and one notification.
func (s *Session) MoveSpot(id string, lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	cur := s.spots[i]
	if math.Abs(cur.Lat-lat) <= Epsilon && math.Abs(cur.Lon-lon) <= Epsilon {
		s.mu.Unlock()
		return false
	}

	next := cur
	next.Lat = lat
	next.Lon = lon
	s.spots[i] = next
	s.markDirtyLocked(id)
	s.mu.Unlock()

	s.notify(Event{Type: EventMoved, ID: id})
	return true
}

// Remove deletes the spot, drops it from the dirty and checked sets, and
// clears the selection if it was selected. Unknown ids are a no-op.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	s.spots = append(s.spots[:i], s.spots[i+1:]...)
	delete(s.dirty, id)
	delete(s.checked, id)
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventRemoved, ID: id})
	return true
}

// Select sets the current selection. An empty id clears it; an unknown id is
// a no-op. Subscribers receive a selection event even when the same spot is
// re-selected, since the map pans to the spot on every grid click.
func (s *Session) Select(id string) {
	s.mu.Lock()
	if id != "" && s.indexOf(id) < 0 {
		s.mu.Unlock()
		return
	}
	s.selected = id
	s.mu.Unlock()

	s.notify(Event{Type: EventSelected, ID: id})
}

// SetEditMode toggles the map's edit mode. Marker dragging is permitted only
// while edit mode is on, and only for the selected spot.
func (s *Session) SetEditMode(on bool) {
	s.mu.Lock()
	if s.editMode == on {
		s.mu.Unlock()
		return
	}
	s.editMode = on
	s.mu.Unlock()

	s.notify(Event{Type: EventEditMode})
}

// SetChecked adds or removes individual rows from the checked set.
// Ids not present in the store are ignored.
func (s *Session) SetChecked(ids []string, checked bool) {
	s.mu.Lock()
	for _, id := range ids {
		if s.indexOf(id) < 0 {
			continue
		}
		if checked {
			s.checked[id] = struct{}{}
		} else {
			delete(s.checked, id)
		}
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventChecked})
}

// SetAllChecked implements the grid's check-all/uncheck-all: the checked set
// is replaced atomically with the full current identity set, or emptied.
func (s *Session) SetAllChecked(checked bool) {
	s.mu.Lock()
	s.checked = make(map[string]struct{})
	if checked {
		for _, sp := range s.spots {
			s.checked[sp.ID] = struct{}{}
		}
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventChecked})
}

// MarkDirty flags a spot as having unsaved changes. Unknown ids are ignored.
func (s *Session) MarkDirty(id string) {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return
	}
	s.markDirtyLocked(id)
	s.mu.Unlock()

	s.notify(Event{Type: EventUpdated, ID: id})
}

// ClearDirty removes the given ids from the dirty set.
func (s *Session) ClearDirty(ids []string) {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.dirty, id)
	}
	s.mu.Unlock()
}

// markDirtyLocked marks a row dirty and applies the auto-check rule: a row
// that gains pending changes is included in the next partial save without a
// separate user action. Caller must hold s.mu.
func (s *Session) markDirtyLocked(id string) {
	s.dirty[id] = struct{}{}
	if _, ok := s.checked[id]; !ok {
		s.checked[id] = struct{}{}
	}
}

// IsDirty reports whether the spot has unsaved changes.
func (s *Session) IsDirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[id]
	return ok
}

// IsChecked reports whether the spot is marked for the next partial save.
func (s *Session) IsChecked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.checked[id]
	return ok
}

// DirtyIDs returns the identities with unsaved changes, sorted.
func (s *Session) DirtyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.dirty)
}

// CheckedIDs returns the identities marked for partial save, sorted.
func (s *Session) CheckedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.checked)
}

// SelectedID returns the selected spot's identity, or "" when none.
func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// EditMode reports whether the map edit mode toggle is active.
func (s *Session) EditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMode
}

// Get returns a copy of the spot with the given identity.
func (s *Session) Get(id string) (spot.Spot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.spots[i], true
	}
	return spot.Spot{}, false
}

// Spots returns a copy of the ordered spot sequence.
func (s *Session) Spots() []spot.Spot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]spot.Spot, len(s.spots))
	copy(out, s.spots)
	return out
}

// SpotsByKind returns copies of the spots of one kind, in store order.
func (s *Session) SpotsByKind(kind spot.Kind) []spot.Spot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []spot.Spot
	for _, sp := range s.spots {
		if sp.Kind == kind {
			out = append(out, sp)
		}
	}
	return out
}

// Len returns the number of spots in the store.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spots)
}

// indexOf returns the position of id in the store, or -1.
// Caller must hold s.mu.
func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, sp := range s.spots {
		if sp.ID == id {
			return i
		}
	}
	return -1
}

// spotChanged reports whether two versions of a spot differ, treating
// numeric differences within Epsilon as unchanged.
func spotChanged(a, b spot.Spot) bool {
	if a.Name != b.Name || a.Note != b.Note || a.Kind != b.Kind {
		return true
	}
	if math.Abs(a.Lat-b.Lat) > Epsilon {
		return true
	}
	if math.Abs(a.Lon-b.Lon) > Epsilon {
		return true
	}
	if math.Abs(a.RelAlt-b.RelAlt) > Epsilon {
		return true
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
