package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// NoData is the reserved raster value meaning "no dataset has asserted a
// land-use code for this cell". It is distinct from every valid lookup id.
const NoData int32 = 0

// Lookup is the authoritative, immutable mapping from land-use code to the
// small positive integer used as the raster cell value. Loaded once and
// shared read-only across all resolver invocations.
type Lookup struct {
	ids map[string]int32
}

// NewLookup builds a lookup table from code→id entries.
//
// Ids must be positive: the no-data sentinel and negative values cannot be
// assigned to features.
func NewLookup(entries map[string]int32) (*Lookup, error) {
	ids := make(map[string]int32, len(entries))
	for code, id := range entries {
		if code == "" {
			return nil, &ErrInvalidLookup{Reason: "empty land-use code"}
		}
		if id <= NoData {
			return nil, &ErrInvalidLookup{Code: code, Reason: fmt.Sprintf("raster id %d is not a positive integer", id)}
		}
		ids[code] = id
	}
	return &Lookup{ids: ids}, nil
}

// ID returns the raster id for a land-use code. The match is exact and
// case-sensitive.
func (l *Lookup) ID(code string) (int32, bool) {
	id, ok := l.ids[code]
	return id, ok
}

// Len returns the number of lookup entries.
func (l *Lookup) Len() int {
	return len(l.ids)
}

// Codes returns all land-use codes in the table, sorted.
func (l *Lookup) Codes() []string {
	codes := make([]string, 0, len(l.ids))
	for code := range l.ids {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

const (
	lookupCodeColumn = "LU"
	lookupIDColumn   = "raster_id"
)

// LoadLookupCSV reads a lookup table from a CSV file with an "LU" code
// column and a "raster_id" integer column.
func LoadLookupCSV(path string) (*Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read lookup table: %w", err)
	}
	return lookupFromRows(rows)
}

// LoadLookupXLSX reads a lookup table from the first sheet of an Excel
// workbook with an "LU" code column and a "raster_id" integer column.
func LoadLookupXLSX(path string) (*Lookup, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup table: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &ErrInvalidLookup{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read lookup sheet %q: %w", sheet, err)
	}
	return lookupFromRows(rows)
}

// lookupFromRows builds a lookup from a header row plus data rows. Duplicate
// codes are rejected: the table is the single source of truth and a
// duplicate would make the join ambiguous.
func lookupFromRows(rows [][]string) (*Lookup, error) {
	if len(rows) == 0 {
		return nil, &ErrInvalidLookup{Reason: "table is empty"}
	}

	codeIdx, idIdx := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case lookupCodeColumn:
			codeIdx = i
		case lookupIDColumn:
			idIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, &ErrInvalidLookup{Reason: fmt.Sprintf("missing %q column", lookupCodeColumn)}
	}
	if idIdx < 0 {
		return nil, &ErrInvalidLookup{Reason: fmt.Sprintf("missing %q column", lookupIDColumn)}
	}

	entries := make(map[string]int32, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) <= codeIdx || len(row) <= idIdx {
			continue // short row, e.g. trailing blank line in a sheet
		}
		code := strings.TrimSpace(row[codeIdx])
		raw := strings.TrimSpace(row[idIdx])
		if code == "" && raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, &ErrInvalidLookup{Code: code, Reason: fmt.Sprintf("row %d: raster id %q is not an integer", n+2, raw)}
		}
		if _, dup := entries[code]; dup {
			return nil, &ErrInvalidLookup{Code: code, Reason: "duplicate land-use code"}
		}
		entries[code] = int32(id)
	}
	return NewLookup(entries)
}
