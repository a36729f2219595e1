package watcher

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/surveyline/spotd/internal/gateway"
	"github.com/surveyline/spotd/internal/session"
	"github.com/surveyline/spotd/internal/spot"
)

// TestExternalChangeReloadsSession composes the watcher, a file gateway and
// a session the way serve does: an external edit to the data file emits an
// event, the session reloads from the gateway, and edit state is reset. A
// save through the session, bracketed by Suppress, does not boomerang back
// as an external change.
func TestExternalChangeReloadsSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spots.json")

	initial := []spot.Spot{
		{ID: "1", Name: "P1", Lat: 37.5665, Lon: 126.978, Kind: spot.KindControl},
		{ID: "2", Name: "P2", Lat: 37.57, Lon: 126.98, Kind: spot.KindLanding},
	}
	if err := spot.WriteFile(path, initial); err != nil {
		t.Fatalf("failed to seed data file: %v", err)
	}

	gw := gateway.NewFile(path)
	cfg := session.DefaultConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	s := session.New(gw, cfg)

	ctx := context.Background()
	if err := s.LoadFromGateway(ctx); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	w, err := New(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Leave some edit state behind so the reload visibly resets it.
	s.Select("1")
	if !s.Update("1", session.FieldName, "Renamed") {
		t.Fatal("Update() should apply")
	}

	// An external process rewrites the file.
	external := append(initial, spot.Spot{ID: "3", Name: "P3", Lat: 37.58, Lon: 126.99, Kind: spot.KindMission})
	if err := spot.WriteFile(path, external); err != nil {
		t.Fatalf("external write failed: %v", err)
	}
	if !waitForEvent(t, w, 2*time.Second) {
		t.Fatal("expected a change event after external write")
	}

	if err := s.LoadFromGateway(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() after reload = %d, want 3", s.Len())
	}
	sp, _ := s.Get("1")
	if sp.Name != "P1" {
		t.Errorf("name after reload = %q, want the on-disk P1", sp.Name)
	}
	if s.SelectedID() != "" {
		t.Errorf("selection after reload = %q, want cleared", s.SelectedID())
	}
	if len(s.DirtyIDs()) != 0 {
		t.Errorf("dirty after reload = %v, want none", s.DirtyIDs())
	}

	// A save through the session, with the suppression window serve sets in
	// its BeforeSave hook, must not come back as an external change.
	if !s.Update("2", session.FieldName, "Edited") {
		t.Fatal("Update() should apply")
	}
	w.Suppress(500 * time.Millisecond)
	if err := s.SaveChecked(ctx); err != nil {
		t.Fatalf("SaveChecked() failed: %v", err)
	}
	if waitForEvent(t, w, 300*time.Millisecond) {
		t.Fatal("session save must not emit an external change event")
	}
}
