package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/surveyline/spotd/internal/spot"
)

// TestSaveCheckedNothingChecked verifies the precondition: no checked rows
// means no gateway call and untouched state.
func TestSaveCheckedNothingChecked(t *testing.T) {
	gw := &fakeGateway{}
	s := testSession(t, gw)
	s.Update("1", FieldLat, "38.0")
	s.SetAllChecked(false)

	err := s.SaveChecked(context.Background())
	if !errors.Is(err, ErrNothingChecked) {
		t.Fatalf("SaveChecked() = %v, want ErrNothingChecked", err)
	}
	if gw.saveCalls != 0 {
		t.Error("no gateway call may happen when nothing is checked")
	}
	if !idsEqual(s.DirtyIDs(), "1") {
		t.Error("dirty state must be untouched")
	}
}

// TestSaveCheckedFullStoreTransmitted verifies that the entire store goes
// over the wire, not just the checked subset.
func TestSaveCheckedFullStoreTransmitted(t *testing.T) {
	gw := &fakeGateway{}
	s := testSession(t, gw)
	s.Update("1", FieldLat, "38.0")

	if err := s.SaveChecked(context.Background()); err != nil {
		t.Fatalf("SaveChecked() failed: %v", err)
	}
	if len(gw.lastSaved) != 3 {
		t.Errorf("gateway received %d spots, want the full store of 3", len(gw.lastSaved))
	}
}

// TestSaveCheckedClearsExactlyCheckedDirty verifies the post-state: dirty
// clears only for previously checked ids, checked clears entirely.
func TestSaveCheckedClearsExactlyCheckedDirty(t *testing.T) {
	gw := &fakeGateway{}
	s := testSession(t, gw)

	s.Update("1", FieldLat, "38.0") // dirty + auto-checked
	s.Update("2", FieldLat, "38.1") // dirty + auto-checked
	s.SetChecked([]string{"2"}, false)

	if err := s.SaveChecked(context.Background()); err != nil {
		t.Fatalf("SaveChecked() failed: %v", err)
	}

	if !idsEqual(s.DirtyIDs(), "2") {
		t.Errorf("DirtyIDs() = %v, want [2] (unchecked dirty row survives)", s.DirtyIDs())
	}
	if len(s.CheckedIDs()) != 0 {
		t.Errorf("CheckedIDs() = %v, want empty", s.CheckedIDs())
	}
}

// TestSaveCheckedFailureRollsBack verifies the no-partial-commit contract.
func TestSaveCheckedFailureRollsBack(t *testing.T) {
	gw := &fakeGateway{saveErr: errors.New("disk full")}
	s := testSession(t, gw)

	s.Update("1", FieldLat, "38.0")
	s.Select("1")

	err := s.SaveChecked(context.Background())
	if err == nil {
		t.Fatal("SaveChecked() should surface the gateway error")
	}

	if !idsEqual(s.DirtyIDs(), "1") {
		t.Errorf("DirtyIDs() = %v, want [1] after failed save", s.DirtyIDs())
	}
	if !idsEqual(s.CheckedIDs(), "1") {
		t.Errorf("CheckedIDs() = %v, want [1] after failed save", s.CheckedIDs())
	}
	if s.SelectedID() != "1" {
		t.Error("selection must survive a failed save")
	}
}

// TestSaveAllSuccessAndFailure: dirty {A, B} on
// success becomes empty, on failure stays {A, B}.
func TestSaveAllSuccessAndFailure(t *testing.T) {
	gw := &fakeGateway{}
	s := testSession(t, gw)

	s.Update("1", FieldLat, "38.0")
	s.Update("2", FieldLon, "128.0")

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll() failed: %v", err)
	}
	if len(s.DirtyIDs()) != 0 || len(s.CheckedIDs()) != 0 {
		t.Error("SaveAll() success must clear dirty and checked state")
	}

	s.Update("1", FieldLat, "38.5")
	s.Update("2", FieldLon, "128.5")
	gw.saveErr = errors.New("gateway down")

	err := s.SaveAll(context.Background())
	if err == nil {
		t.Fatal("SaveAll() should surface the gateway error")
	}
	if !idsEqual(s.DirtyIDs(), "1", "2") {
		t.Errorf("DirtyIDs() = %v, want [1 2] after failed save", s.DirtyIDs())
	}
}

// TestSaveAllNothingDirty verifies the precondition.
func TestSaveAllNothingDirty(t *testing.T) {
	gw := &fakeGateway{}
	s := testSession(t, gw)

	err := s.SaveAll(context.Background())
	if !errors.Is(err, ErrNothingDirty) {
		t.Fatalf("SaveAll() = %v, want ErrNothingDirty", err)
	}
	if gw.saveCalls != 0 {
		t.Error("no gateway call may happen when nothing is dirty")
	}
}

// TestSaveAllStrictValidation verifies that strict mode blocks the save and
// names the failing record.
func TestSaveAllStrictValidation(t *testing.T) {
	gw := &fakeGateway{}
	s := New(gw, quietConfig())
	s.Load([]spot.Spot{
		{ID: "1", Name: "P1", Lat: 37.5, Lon: 127.0},
		{ID: "2", Name: "", Lat: 37.6, Lon: 127.1}, // invalid: no name
	})
	s.MarkDirty("1")

	err := s.SaveAll(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SaveAll() = %v, want *ValidationError", err)
	}
	if verr.ID != "2" {
		t.Errorf("validation error names spot %q, want 2", verr.ID)
	}
	if gw.saveCalls != 0 {
		t.Error("strict validation failure must block the gateway call")
	}
	if !idsEqual(s.DirtyIDs(), "1") {
		t.Error("blocked save must leave dirty state untouched")
	}
}

// TestSaveAllLenientValidation verifies that lenient mode logs and proceeds.
func TestSaveAllLenientValidation(t *testing.T) {
	gw := &fakeGateway{}
	cfg := quietConfig()
	cfg.Validation = Lenient
	s := New(gw, cfg)
	s.Load([]spot.Spot{
		{ID: "1", Name: "", Lat: 37.5, Lon: 127.0}, // invalid: no name
	})
	s.MarkDirty("1")

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("lenient SaveAll() failed: %v", err)
	}
	if gw.saveCalls != 1 {
		t.Errorf("gateway called %d times, want 1", gw.saveCalls)
	}
}

// blockingGateway parks Save until released, to exercise in-flight behavior.
type blockingGateway struct {
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) Load(ctx context.Context) ([]spot.Spot, error) { return nil, nil }

func (g *blockingGateway) Save(ctx context.Context, spots []spot.Spot) error {
	close(g.entered)
	<-g.release
	return nil
}

// TestSaveInFlight verifies that a second save during an in-flight one fails
// with ErrSaveInFlight and performs no I/O.
func TestSaveInFlight(t *testing.T) {
	gw := &blockingGateway{entered: make(chan struct{}), release: make(chan struct{})}
	s := testSession(t, gw)
	s.Update("1", FieldLat, "38.0")

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = s.SaveAll(context.Background())
	}()

	<-gw.entered
	if !s.Saving() {
		t.Error("Saving() should report true while the gateway call is parked")
	}

	if err := s.SaveChecked(context.Background()); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("concurrent SaveChecked() = %v, want ErrSaveInFlight", err)
	}
	if err := s.SaveAll(context.Background()); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("concurrent SaveAll() = %v, want ErrSaveInFlight", err)
	}

	close(gw.release)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first save failed: %v", firstErr)
	}
	if s.Saving() {
		t.Error("Saving() should report false after completion")
	}
}

// TestSaveEmitsSavedEvent verifies subscribers observe save completion.
func TestSaveEmitsSavedEvent(t *testing.T) {
	gw := &fakeGateway{}
	s := testSession(t, gw)
	s.Update("1", FieldLat, "38.0")

	var saved int
	s.Subscribe(func(ev Event) {
		if ev.Type == EventSaved {
			saved++
		}
	})

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll() failed: %v", err)
	}
	if saved != 1 {
		t.Errorf("observed %d saved events, want 1", saved)
	}
}

// TestParseValidationMode verifies config spelling round-trips.
func TestParseValidationMode(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want ValidationMode
	}{
		{"strict", Strict},
		{"lenient", Lenient},
		{"", Strict},
	} {
		got, err := ParseValidationMode(tt.in)
		if err != nil {
			t.Errorf("ParseValidationMode(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseValidationMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseValidationMode("sloppy"); err == nil {
		t.Error("ParseValidationMode(sloppy) should fail")
	}
}
