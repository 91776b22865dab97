package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"flightops/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// XLSXSource reads a local workbook. An empty sheet selects the first one.
type XLSXSource struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewXLSXSource creates a workbook source
func NewXLSXSource(path, sheet string, logger *slog.Logger) *XLSXSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSource{
		path:   path,
		sheet:  sheet,
		logger: logger.With(slog.String("component", "xlsx_source")),
	}
}

// Name implements RecordSource
func (s *XLSXSource) Name() string {
	return "xlsx"
}

// Fetch implements RecordSource
func (s *XLSXSource) Fetch(ctx context.Context) (*domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.Name(), "open workbook", err)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, unavailable(s.Name(), "open workbook", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, unavailable(s.Name(), "open workbook", fmt.Errorf("%s has no sheets", s.path))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, unavailable(s.Name(), "read rows", err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, unavailable(s.Name(), "read rows", err)
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, unavailable(s.Name(), "read workbook properties", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	table := rowsToTable(restoreSerialDates(rows, raw, date1904))
	s.logger.InfoContext(ctx, "Read workbook",
		slog.String("path", s.path),
		slog.String("sheet", sheet),
		slog.Int("records", len(table.Records)),
	)
	return table, nil
}

// Layouts for temporal cells stored as Excel serial numbers.
const (
	serialTimestampLayout = "2006-01-02 15:04:05"
	serialDateLayout      = "2006-01-02"
	serialClockLayout     = "15:04:05"
)

// restoreSerialDates replaces the number-formatted rendering of typed date
// and time cells with a parseable value derived from the raw serial.
// Serials below one day carry only a clock time.
func restoreSerialDates(rows, raw [][]string, date1904 bool) [][]string {
	if len(rows) == 0 {
		return rows
	}

	temporal := make(map[int]string)
	for i, col := range rows[0] {
		switch strings.TrimSpace(col) {
		case domain.ColumnTakeoffTime, domain.ColumnLandingTime:
			temporal[i] = serialTimestampLayout
		case domain.ColumnDate:
			temporal[i] = serialDateLayout
		}
	}
	if len(temporal) == 0 {
		return rows
	}

	for r := 1; r < len(rows) && r < len(raw); r++ {
		for i, layout := range temporal {
			if i >= len(rows[r]) || i >= len(raw[r]) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(raw[r][i]), 64)
			if err != nil {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			if serial < 1 && layout == serialTimestampLayout {
				layout = serialClockLayout
			}
			rows[r][i] = t.Format(layout)
		}
	}
	return rows
}

// CSVSource reads a local CSV file with a header row. A leading UTF-8 BOM
// is ignored.
type CSVSource struct {
	path   string
	logger *slog.Logger
}

// NewCSVSource creates a CSV file source
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{
		path:   path,
		logger: logger.With(slog.String("component", "csv_source")),
	}
}

// Name implements RecordSource
func (s *CSVSource) Name() string {
	return "csv"
}

// Fetch implements RecordSource
func (s *CSVSource) Fetch(ctx context.Context) (*domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.Name(), "open file", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable(s.Name(), "open file", err)
	}

	table, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, unavailable(s.Name(), "parse csv", err)
	}

	s.logger.InfoContext(ctx, "Read CSV file",
		slog.String("path", s.path),
		slog.Int("records", len(table.Records)),
	)
	return table, nil
}

// ReadCSV parses a header-first CSV stream into a raw table.
func ReadCSV(r io.Reader) (*domain.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsToTable(rows), nil
}
