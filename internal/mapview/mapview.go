// Package mapview projects session state into map render state.
//
// The map never maintains its own copy of coordinates: every Markers() call
// reads back from the session, so grid edits, inserts and drags are always
// reflected in the rendered marker set. The view contributes only map-local
// state: the zoom level, the pan-to target, and the rules for marker color,
// draggability and label visibility.
package mapview

import (
	"errors"
	"sync"

	"github.com/surveyline/spotd/internal/session"
)

// ErrNotDraggable is returned when a drag lands on a marker that is not the
// edit target. Dragging requires edit mode to be on AND the spot to be the
// current selection; everything else is protected from accidental
// repositioning.
var ErrNotDraggable = errors.New("marker is not draggable")

// Color is the marker pin color.
type Color string

const (
	// ColorNormal marks an unselected spot (red pin).
	ColorNormal Color = "red"
	// ColorSelected marks the selected spot outside edit mode (blue pin).
	ColorSelected Color = "blue"
	// ColorEditing marks the draggable edit target (green pin).
	ColorEditing Color = "green"
)

// DefaultLabelZoom is the zoom level at which name labels appear.
const DefaultLabelZoom = 16

// DefaultZoom is the initial map zoom before the widget reports one.
const DefaultZoom = 14

// Marker is the render state for one spot on the map.
type Marker struct {
	ID        string
	Lat       float64
	Lon       float64
	Title     string
	Color     Color
	Draggable bool
	ShowLabel bool
}

// View is the map side of the reconciliation protocol. It observes the
// session for selection changes (pan-to) and feeds marker clicks and drag
// ends back into it.
type View struct {
	session *session.Session

	mu        sync.Mutex
	zoom      int
	labelZoom int
	centerLat float64
	centerLon float64
	hasCenter bool
}

// New creates a map view over the given session. labelZoom <= 0 uses
// DefaultLabelZoom.
func New(s *session.Session, labelZoom int) *View {
	if labelZoom <= 0 {
		labelZoom = DefaultLabelZoom
	}
	v := &View{
		session:   s,
		zoom:      DefaultZoom,
		labelZoom: labelZoom,
	}
	s.Subscribe(v.onSessionEvent)
	return v
}

// onSessionEvent recenters the map when the selection moves, including the
// implicit selection of a freshly inserted spot, and drops a stale pan
// target when the store is reloaded.
func (v *View) onSessionEvent(ev session.Event) {
	switch ev.Type {
	case session.EventLoaded:
		v.mu.Lock()
		v.hasCenter = false
		v.mu.Unlock()
	case session.EventSelected, session.EventInserted:
		if ev.ID == "" {
			return
		}
		sp, ok := v.session.Get(ev.ID)
		if !ok {
			return
		}
		v.mu.Lock()
		v.centerLat = sp.Lat
		v.centerLon = sp.Lon
		v.hasCenter = true
		v.mu.Unlock()
	}
}

// SetZoom records the widget's zoom level. Labels toggle with it.
func (v *View) SetZoom(zoom int) {
	v.mu.Lock()
	v.zoom = zoom
	v.mu.Unlock()
}

// Zoom returns the current zoom level.
func (v *View) Zoom() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// Center returns the pan-to target set by the last selection, if any.
func (v *View) Center() (lat, lon float64, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.centerLat, v.centerLon, v.hasCenter
}

// Markers renders the marker set from the current session state.
//
// The edit target (edit mode on AND selected) is green and draggable; the
// selection outside edit mode is blue; everything else is red. Labels show
// when the zoom level reaches the label threshold.
func (v *View) Markers() []Marker {
	spots := v.session.Spots()
	selected := v.session.SelectedID()
	editMode := v.session.EditMode()

	v.mu.Lock()
	showLabels := v.zoom >= v.labelZoom
	v.mu.Unlock()

	markers := make([]Marker, 0, len(spots))
	for _, sp := range spots {
		m := Marker{
			ID:        sp.ID,
			Lat:       sp.Lat,
			Lon:       sp.Lon,
			Title:     sp.Name,
			Color:     ColorNormal,
			ShowLabel: showLabels,
		}
		if sp.ID == selected {
			if editMode {
				m.Color = ColorEditing
				m.Draggable = true
			} else {
				m.Color = ColorSelected
			}
		}
		markers = append(markers, m)
	}
	return markers
}

// ClickMarker is the map side of rule 1: clicking a marker selects the same
// identity the grid sees, which in turn pans the map to it.
func (v *View) ClickMarker(id string) {
	v.session.Select(id)
}

// DragEnd applies a marker drag to the session as one logical lat+lon edit.
// Drags on markers that are not the edit target are rejected.
func (v *View) DragEnd(id string, lat, lon float64) error {
	if !v.session.EditMode() || v.session.SelectedID() != id {
		return ErrNotDraggable
	}
	v.session.MoveSpot(id, lat, lon)
	return nil
}
