package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"flightops/pkg/contracts/domain"
)

// Read-only scopes requested for the service account.
var sheetsScopes = []string{
	sheets.SpreadsheetsReadonlyScope,
	drive.DriveReadonlyScope,
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// ErrSpreadsheetNotFound is returned when name resolution finds no spreadsheet.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// CredentialsProvider supplies the service-account JSON.
type CredentialsProvider interface {
	Load(ctx context.Context) ([]byte, error)
}

// SheetsConfig locates the spreadsheet. SpreadsheetID wins over
// SpreadsheetName; an empty SheetName selects the first worksheet.
type SheetsConfig struct {
	SpreadsheetID   string
	SpreadsheetName string
	SheetName       string
}

// SheetsSource reads flight logs from Google Sheets
type SheetsSource struct {
	cfg         SheetsConfig
	credentials CredentialsProvider
	options     []option.ClientOption
	logger      *slog.Logger

	mu       sync.Mutex
	sheets   *sheets.Service
	drive    *drive.Service
	sheetsID string
}

// NewSheetsSource creates a Sheets-backed source. Extra client options are
// appended to the credential option; with a nil provider only they are used.
func NewSheetsSource(cfg SheetsConfig, credentials CredentialsProvider, logger *slog.Logger, opts ...option.ClientOption) *SheetsSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSource{
		cfg:         cfg,
		credentials: credentials,
		options:     opts,
		logger:      logger.With(slog.String("component", "sheets_source")),
		sheetsID:    cfg.SpreadsheetID,
	}
}

// Name implements RecordSource
func (s *SheetsSource) Name() string {
	return "sheets"
}

// Fetch implements RecordSource
func (s *SheetsSource) Fetch(ctx context.Context) (*domain.RawTable, error) {
	if err := s.ensureServices(ctx); err != nil {
		return nil, err
	}

	id, err := s.spreadsheetID(ctx)
	if err != nil {
		return nil, err
	}

	sheetName := s.cfg.SheetName
	if sheetName == "" {
		sheetName, err = s.firstSheetTitle(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	resp, err := s.sheets.Spreadsheets.Values.Get(id, quoteSheetName(sheetName)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, unavailable(s.Name(), "read values", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		rows = append(rows, cells)
	}

	table := rowsToTable(rows)
	s.logger.InfoContext(ctx, "Fetched spreadsheet values",
		slog.String("spreadsheet_id", id),
		slog.String("sheet", sheetName),
		slog.Int("records", len(table.Records)),
	)
	return table, nil
}

func (s *SheetsSource) ensureServices(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sheets != nil {
		return nil
	}

	opts := make([]option.ClientOption, 0, len(s.options)+2)
	if s.credentials != nil {
		creds, err := s.credentials.Load(ctx)
		if err != nil {
			return unavailable(s.Name(), "load credentials", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds), option.WithScopes(sheetsScopes...))
	}
	opts = append(opts, s.options...)

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return unavailable(s.Name(), "create sheets client", err)
	}

	if s.sheetsID == "" {
		driveSvc, err := drive.NewService(ctx, opts...)
		if err != nil {
			return unavailable(s.Name(), "create drive client", err)
		}
		s.drive = driveSvc
	}

	s.sheets = sheetsSvc
	return nil
}

// spreadsheetID resolves SpreadsheetName through Drive once and remembers it.
func (s *SheetsSource) spreadsheetID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sheetsID != "" {
		return s.sheetsID, nil
	}

	name := strings.ReplaceAll(s.cfg.SpreadsheetName, `'`, `\'`)
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", name, spreadsheetMimeType)

	list, err := s.drive.Files.List().
		Q(query).
		Fields(googleapi.Field("files(id, name)")).
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", unavailable(s.Name(), "resolve spreadsheet", err)
	}
	if len(list.Files) == 0 {
		return "", unavailable(s.Name(), "resolve spreadsheet",
			fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, s.cfg.SpreadsheetName))
	}

	s.sheetsID = list.Files[0].Id
	s.logger.InfoContext(ctx, "Resolved spreadsheet",
		slog.String("name", s.cfg.SpreadsheetName),
		slog.String("spreadsheet_id", s.sheetsID),
	)
	return s.sheetsID, nil
}

func (s *SheetsSource) firstSheetTitle(ctx context.Context, id string) (string, error) {
	ss, err := s.sheets.Spreadsheets.Get(id).
		Fields(googleapi.Field("sheets.properties.title")).
		Context(ctx).
		Do()
	if err != nil {
		return "", unavailable(s.Name(), "read spreadsheet metadata", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", unavailable(s.Name(), "read spreadsheet metadata", errors.New("spreadsheet has no worksheets"))
	}
	return ss.Sheets[0].Properties.Title, nil
}

// quoteSheetName wraps a worksheet title for use as an A1 range.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
