package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flightops/pkg/contracts/domain"
)

// ErrSourceUnavailable matches any *SourceUnavailableError via errors.Is.
var ErrSourceUnavailable = errors.New("record source unavailable")

// RecordSource fetches the full raw table.
type RecordSource interface {
	Name() string
	Fetch(ctx context.Context) (*domain.RawTable, error)
}

// SourceUnavailableError wraps a failed fetch. No partial table accompanies it.
type SourceUnavailableError struct {
	Source string
	Op     string
	Err    error
}

// Error implements the error interface
func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s source unavailable: %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the underlying failure
func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports ErrSourceUnavailable equivalence
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func unavailable(source, op string, err error) error {
	return &SourceUnavailableError{Source: source, Op: op, Err: err}
}

// rowsToTable treats rows[0] as the header. Short rows are padded with blanks,
// cells beyond the header are dropped and fully blank rows are skipped.
func rowsToTable(rows [][]string) *domain.RawTable {
	table := &domain.RawTable{Columns: []string{}, Records: []domain.RawRecord{}}
	if len(rows) == 0 {
		return table
	}

	table.Columns = append(table.Columns, rows[0]...)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(domain.RawRecord, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
