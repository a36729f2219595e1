package spot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TestKindCodes verifies the kind <-> page code mapping round-trips.
func TestKindCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		code string
	}{
		{KindControl, "G001"},
		{KindLanding, "G002"},
		{KindMission, "G003"},
	}

	for _, tt := range tests {
		if got := tt.kind.Code(); got != tt.code {
			t.Errorf("%s.Code() = %q, want %q", tt.kind, got, tt.code)
		}
		if got := KindFromCode(tt.code); got != tt.kind {
			t.Errorf("KindFromCode(%q) = %q, want %q", tt.code, got, tt.kind)
		}
	}

	// Unknown codes survive round-trips unchanged.
	if got := KindFromCode("G009"); got != Kind("G009") {
		t.Errorf("KindFromCode(G009) = %q, want G009", got)
	}
}

// TestIsTempID verifies temporary identity detection.
func TestIsTempID(t *testing.T) {
	if !IsTempID("new-1748000000000-1") {
		t.Error("new- prefixed id should be temporary")
	}
	if IsTempID("gcp-042") {
		t.Error("persisted id should not be temporary")
	}
	if IsTempID("") {
		t.Error("empty id should not be temporary")
	}
}

// TestSpotValidate exercises the save-time validation rules.
func TestSpotValidate(t *testing.T) {
	valid := Spot{ID: "1", Name: "P1", Lat: 37.5, Lon: 127.0}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid spot failed validation: %v", err)
	}

	tests := []struct {
		name string
		spot Spot
	}{
		{"missing id", Spot{Name: "P1", Lat: 37.5, Lon: 127.0}},
		{"missing name", Spot{ID: "1", Lat: 37.5, Lon: 127.0}},
		{"blank name", Spot{ID: "1", Name: "   ", Lat: 37.5, Lon: 127.0}},
		{"NaN lat", Spot{ID: "1", Name: "P1", Lat: math.NaN(), Lon: 127.0}},
		{"infinite lon", Spot{ID: "1", Name: "P1", Lat: 37.5, Lon: math.Inf(1)}},
		{"lat out of range", Spot{ID: "1", Name: "P1", Lat: 90.5, Lon: 127.0}},
		{"lon out of range", Spot{ID: "1", Name: "P1", Lat: 37.5, Lon: -180.1}},
	}

	for _, tt := range tests {
		if err := tt.spot.Validate(); err == nil {
			t.Errorf("%s: expected validation error, got nil", tt.name)
		}
	}
}

// TestParseNumeric verifies the cell-commit number format.
func TestParseNumeric(t *testing.T) {
	valid := []struct {
		in   string
		want float64
	}{
		{"37.5", 37.5},
		{"-127.1234567", -127.1234567},
		{"0", 0},
		{"-0.0000001", -0.0000001},
		{"180", 180},
	}
	for _, tt := range valid {
		got, err := ParseNumeric(tt.in)
		if err != nil {
			t.Errorf("ParseNumeric(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumeric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	invalid := []string{
		"",
		"abc",
		"37.12345678", // 8 fractional digits
		"1e5",
		"37.5.1",
		"--1",
		"1,000",
		" 37.5",
	}
	for _, in := range invalid {
		if _, err := ParseNumeric(in); err == nil {
			t.Errorf("ParseNumeric(%q) should fail", in)
		}
	}
}

// TestReadWriteFile verifies the flat JSON document round-trip.
func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spots.json")

	spots := []Spot{
		{ID: "1", Name: "P1", Lat: 37.5, Lon: 127.0, RelAlt: 30, Note: "north marker", Kind: KindControl},
		{ID: "2", Name: "P2", Lat: 37.6, Lon: 127.1, Kind: KindLanding},
	}

	if err := WriteFile(path, spots); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}

	if len(got) != len(spots) {
		t.Fatalf("got %d spots, want %d", len(got), len(spots))
	}
	for i := range spots {
		if got[i] != spots[i] {
			t.Errorf("spot %d: got %+v, want %+v", i, got[i], spots[i])
		}
	}
}

// TestReadFileMissing verifies that a missing document surfaces an error.
func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("ReadFile() on a missing file should fail")
	}
}

// TestWriteFileAtomic verifies that a failed marshal target directory does
// not leave temp files behind after a successful write.
func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spots.json")

	if err := WriteFile(path, []Spot{{ID: "1", Name: "P1"}}); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the document in %s, found %d entries", dir, len(entries))
	}
}
