package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"flightops/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures export output
type WriteOptions struct {
	BOMPrefix bool // UTF-8 BOM so Excel detects the encoding of CSV output
}

// Write exports table to w in format f
func Write(w io.Writer, table *domain.FlightTable, f Format, opts WriteOptions) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, table)
	default:
		return WriteCSV(w, table, opts)
	}
}

// WriteCSV writes the enriched table as CSV
func WriteCSV(w io.Writer, table *domain.FlightTable, opts WriteOptions) error {
	if table == nil {
		table = &domain.FlightTable{Columns: append([]string(nil), domain.RequiredColumns...)}
	}
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header(table)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, rec := range table.Records {
		if err := writer.Write(Row(table.Columns, rec)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile exports table to path, replacing any existing file atomically
func WriteFile(path string, table *domain.FlightTable, f Format, opts WriteOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, table, f, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
