package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/example/engbot/internal/conversation"
	"github.com/example/engbot/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Catalog receives imported words
type Catalog interface {
	UpsertIfAbsent(ctx context.Context, word models.WordEntry) (bool, error)
}

// ImportConfig defines the column layout of an import file
type ImportConfig struct {
	TermColumn        string // Column with the English term
	TranslationColumn string // Column with the translation
	ExampleColumn     string // Column with the usage example
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TermColumn:        "A",
		TranslationColumn: "B",
		ExampleColumn:     "C",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Processed int
	Created   int
	Skipped   int
	Errors    []string
}

// Importer loads catalog words from spreadsheets
type Importer struct {
	catalog Catalog
	config  ImportConfig
	logger  *zap.Logger
}

// NewImporter creates an importer with the default column layout
func NewImporter(catalog Catalog, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{catalog: catalog, config: DefaultImportConfig(), logger: logger}
}

// WithConfig returns a copy of the importer using another column layout
func (i *Importer) WithConfig(config ImportConfig) *Importer {
	cp := *i
	cp.config = config
	return &cp
}

// Supported reports whether the file name has an importable extension
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// Import reads rows from an .xlsx or .csv file and adds the missing words to the catalog
func (i *Importer) Import(ctx context.Context, name string, r io.Reader) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		rows, err = readExcel(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for idx, row := range rows {
		rowNum := idx + 1
		if rowNum < i.config.StartRow || blankRow(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Processed++
		word, err := i.wordFromRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		created, err := i.catalog.UpsertIfAbsent(ctx, word)
		if err != nil {
			return result, fmt.Errorf("failed to save word %q from row %d: %w", word.Term, rowNum, err)
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	i.logger.Info("catalog import finished",
		zap.String("file", name),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	// Excel exports CSV with a BOM
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

func (i *Importer) wordFromRow(row []string) (models.WordEntry, error) {
	word := models.WordEntry{
		Term:        cell(row, i.config.TermColumn),
		Translation: cell(row, i.config.TranslationColumn),
		Example:     cell(row, i.config.ExampleColumn),
	}
	switch {
	case word.Term == "":
		return word, errors.New("term cannot be empty")
	case word.Translation == "":
		return word, errors.New("translation cannot be empty")
	case len(word.Term) > conversation.MaxTermLength:
		return word, fmt.Errorf("term is longer than %d bytes", conversation.MaxTermLength)
	}
	return word, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
