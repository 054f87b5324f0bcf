package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/lettersbot/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither spreadsheets nor CSV
var ErrUnsupportedFormat = errors.New("excel: unsupported file format")

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	IDColumn      string // Column with the item id, defaults to the lowercased letter
	LetterColumn  string // Column with the letter
	SoundColumn   string // Column with the sound
	ExampleColumn string // Column with an example word
	GroupColumn   string // Column with the group (vowel, consonant ...)
	SheetName     string // Name of the sheet to import, empty means the first sheet
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		IDColumn:      "A",
		LetterColumn:  "B",
		SoundColumn:   "C",
		ExampleColumn: "D",
		GroupColumn:   "E",
		StartRow:      2, // skip header
	}
}

// Header is the header row written to templates, matching DefaultImportConfig
var Header = []string{"id", "letter", "sound", "example", "group"}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ItemStore persists imported items
type ItemStore interface {
	Upsert(ctx context.Context, item *models.Item) (bool, error)
}

// Importer reads items from spreadsheets into an ItemStore
type Importer struct {
	store  ItemStore
	logger *slog.Logger
}

// NewImporter creates an importer writing to store
func NewImporter(store ItemStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger}
}

// columns holds resolved 0-based column indexes; -1 means not configured
type columns struct {
	id, letter, sound, example, group int
}

// ImportItems imports items from an Excel or CSV file
func (im *Importer) ImportItems(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	cols, err := resolveColumns(config)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(config.FilePath)); ext {
	case ".csv":
		rows, err = readCSV(config.FilePath)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(config.FilePath, config.SheetName)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		if isBlank(row) {
			result.Skipped++
			continue
		}

		result.TotalProcessed++
		if err := im.processRow(ctx, row, cols, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	im.logger.Info("import finished",
		"file", config.FilePath,
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// readExcel returns the rows of sheet, or of the first sheet when sheet is empty
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows of sheet %q", sheet)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV")
		}
		rows = append(rows, row)
	}
}

// processRow validates one row and stores it
func (im *Importer) processRow(ctx context.Context, row []string, cols columns, result *ImportResult) error {
	item := models.Item{
		ID:      cell(row, cols.id),
		Letter:  cell(row, cols.letter),
		Sound:   cell(row, cols.sound),
		Example: cell(row, cols.example),
		Group:   strings.ToLower(cell(row, cols.group)),
	}
	if item.Letter == "" {
		return errors.New("letter cannot be empty")
	}
	if item.Sound == "" {
		return errors.New("sound cannot be empty")
	}
	if item.ID == "" {
		item.ID = strings.ToLower(item.Letter)
	}

	created, err := im.store.Upsert(ctx, &item)
	if err != nil {
		return errors.Wrapf(err, "failed to store item %q", item.ID)
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

func resolveColumns(config ImportConfig) (columns, error) {
	var cols columns
	for _, c := range []struct {
		name   string
		letter string
		dst    *int
	}{
		{"id", config.IDColumn, &cols.id},
		{"letter", config.LetterColumn, &cols.letter},
		{"sound", config.SoundColumn, &cols.sound},
		{"example", config.ExampleColumn, &cols.example},
		{"group", config.GroupColumn, &cols.group},
	} {
		if c.letter == "" {
			*c.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(c.letter)
		if err != nil {
			return columns{}, errors.Wrapf(err, "invalid %s column", c.name)
		}
		*c.dst = n - 1
	}
	if cols.letter < 0 || cols.sound < 0 {
		return columns{}, errors.New("excel: letter and sound columns are required")
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
