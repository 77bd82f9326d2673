package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLookup(t *testing.T) *Lookup {
	t.Helper()
	lookup, err := NewLookup(map[string]int32{
		"C_WHEAT": 7,
		"W_Pa":    3,
		"A_":      12,
	})
	if err != nil {
		t.Fatalf("NewLookup failed: %v", err)
	}
	return lookup
}

// TestResolveSemiJoin verifies matched features are annotated in input
// order and unmatched features are dropped and counted.
func TestResolveSemiJoin(t *testing.T) {
	lookup := testLookup(t)
	features := []NormalizedFeature{
		{Code: "C_WHEAT"},
		{Code: "C_UNKNOWN"},
		{Code: "W_Pa"},
		{Code: "C_UNKNOWN"},
		{Code: "c_wheat"}, // case-sensitive, no entry
	}

	resolved, unmatched := Resolve(features, lookup)

	gotCodes := make([]string, len(resolved))
	gotIDs := make([]int32, len(resolved))
	for i, f := range resolved {
		gotCodes[i] = f.Code
		gotIDs[i] = f.RasterID
	}
	if diff := cmp.Diff([]string{"C_WHEAT", "W_Pa"}, gotCodes); diff != "" {
		t.Errorf("Resolved codes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{7, 3}, gotIDs); diff != "" {
		t.Errorf("Resolved ids mismatch (-want +got):\n%s", diff)
	}

	wantUnmatched := map[string]int{"C_UNKNOWN": 2, "c_wheat": 1}
	if diff := cmp.Diff(wantUnmatched, unmatched); diff != "" {
		t.Errorf("Unmatched counts mismatch (-want +got):\n%s", diff)
	}
}

// TestLookupValidation rejects non-positive ids and empty codes: the
// no-data sentinel must stay distinct from every valid id.
func TestLookupValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]int32
	}{
		{"zero id", map[string]int32{"C_X": 0}},
		{"negative id", map[string]int32{"C_X": -3}},
		{"empty code", map[string]int32{"": 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLookup(tt.entries); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

// TestLoadLookupCSV reads a lookup table with LU and raster_id columns.
func TestLoadLookupCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.csv")
	content := "LU,raster_id\nC_WHEAT,7\nW_Pa,3\nF_IV_None,21\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lookup, err := LoadLookupCSV(path)
	if err != nil {
		t.Fatalf("LoadLookupCSV failed: %v", err)
	}
	if lookup.Len() != 3 {
		t.Fatalf("Expected 3 entries, got %d", lookup.Len())
	}
	if id, ok := lookup.ID("F_IV_None"); !ok || id != 21 {
		t.Errorf("Expected F_IV_None -> 21, got %d (ok=%v)", id, ok)
	}
	if _, ok := lookup.ID("F_IV_NONE"); ok {
		t.Error("Lookup should be case-sensitive")
	}
}

// TestLoadLookupCSVRejectsDuplicates verifies a duplicate code fails the
// load instead of silently picking one id.
func TestLoadLookupCSVRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.csv")
	content := "LU,raster_id\nC_WHEAT,7\nC_WHEAT,8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLookupCSV(path); err == nil {
		t.Error("Expected duplicate-code error, got nil")
	}
}
