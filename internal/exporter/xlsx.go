package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"flightops/pkg/contracts/domain"
)

// XLSXSheet is the worksheet name used for XLSX exports
const XLSXSheet = "Flights"

// WriteXLSX writes the enriched table as a single-sheet workbook
func WriteXLSX(w io.Writer, table *domain.FlightTable) error {
	if table == nil {
		table = &domain.FlightTable{Columns: append([]string(nil), domain.RequiredColumns...)}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(XLSXSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(Header(table))); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, rec := range table.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(Row(table.Columns, rec))); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
