// Package source fetches the raw flight-log table from where it is kept.
//
// Three RecordSource implementations are provided:
//
//   - SheetsSource reads the first worksheet of a Google spreadsheet through
//     the Sheets v4 API, resolving the spreadsheet by name through Drive v3
//     when no id is configured
//   - XLSXSource reads a local workbook with excelize
//   - CSVSource reads a local CSV export
//
// All of them treat the first row as the header and return it verbatim, so
// the exact-match schema check downstream sees what the sheet actually says.
// Any fetch failure is reported as a *SourceUnavailableError.
package source
