package dataprocessing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"flightops/pkg/contracts/domain"
)

// ErrSchemaMismatch matches any *SchemaError via errors.Is.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaError reports a raw table whose header does not carry the expected columns.
type SchemaError struct {
	Missing   []string `json:"missing,omitempty"`
	Duplicate []string `json:"duplicate,omitempty"`
	Found     []string `json:"found"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate columns: "+strings.Join(e.Duplicate, ", "))
	}
	return fmt.Sprintf("schema mismatch: %s (found: %s)", strings.Join(parts, "; "), strings.Join(e.Found, ", "))
}

// Is reports ErrSchemaMismatch equivalence
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// ValidateSchema checks the raw header against domain.RequiredColumns and
// returns the column list the table will be transformed with.
func ValidateSchema(raw *domain.RawTable) ([]string, error) {
	if raw == nil {
		return nil, &SchemaError{Missing: append([]string(nil), domain.RequiredColumns...)}
	}

	columns := raw.Columns
	if columns == nil {
		columns = columnsFromRecords(raw.Records)
	}

	seen := make(map[string]int, len(columns))
	var duplicate []string
	for _, col := range columns {
		seen[col]++
		if seen[col] == 2 {
			duplicate = append(duplicate, col)
		}
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if seen[col] == 0 {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 || len(duplicate) > 0 {
		return nil, &SchemaError{
			Missing:   missing,
			Duplicate: duplicate,
			Found:     append([]string(nil), columns...),
		}
	}

	return append([]string(nil), columns...), nil
}

// columnsFromRecords derives a header from record keys: required columns
// first in canonical order, then any other key sorted by name.
func columnsFromRecords(records []domain.RawRecord) []string {
	keys := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			keys[k] = struct{}{}
		}
	}

	columns := make([]string, 0, len(keys))
	for _, col := range domain.RequiredColumns {
		if _, ok := keys[col]; ok {
			columns = append(columns, col)
			delete(keys, col)
		}
	}

	extra := make([]string, 0, len(keys))
	for k := range keys {
		extra = append(extra, k)
	}
	sort.Strings(extra)

	return append(columns, extra...)
}

func isRequiredColumn(col string) bool {
	for _, c := range domain.RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}

func isDerivedColumn(col string) bool {
	for _, c := range domain.DerivedColumns {
		if c == col {
			return true
		}
	}
	return false
}
