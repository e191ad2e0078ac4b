package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go-prison-stats/internal/model"
	"go-prison-stats/pkg/utils"

	"github.com/xuri/excelize/v2"
)

// ------------------- Loader -------------------

// LoadTable reads a CSV or XLSX source into a table. The first row is the
// header; every following row becomes one Row with values parsed by content.
func LoadTable(ctx context.Context, source model.Source) (*model.Table, error) {
	kind := sourceType(source)
	log.Printf("➡️ Loading %s source: %s", kind, source.URL)

	var (
		table *model.Table
		err   error
	)
	switch kind {
	case "csv":
		table, err = loadCSV(ctx, source.URL)
	case "xlsx":
		table, err = loadXLSX(ctx, source.URL, source.Sheet)
	default:
		return nil, &ParseError{Path: source.URL, Err: fmt.Errorf("unknown source type: %s", kind)}
	}
	if err != nil {
		return nil, err
	}

	log.Printf("📄 Loaded %d rows, %d columns from %s", table.Len(), len(table.Columns), source.URL)
	return table, nil
}

func sourceType(source model.Source) string {
	if source.Type != "" {
		return strings.ToLower(source.Type)
	}
	switch strings.ToLower(filepath.Ext(source.URL)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}

// openSource opens path for reading and classifies the failure.
func openSource(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path, Err: err}
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	return file, nil
}

// ------------------- CSV -------------------
func loadCSV(ctx context.Context, path string) (*model.Table, error) {
	file, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(ctx, path, file)
}

func readCSV(ctx context.Context, path string, r io.Reader) (*model.Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, &ParseError{Path: path, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvParseError(path, err)
	}
	// csv.Reader fixes FieldsPerRecord to the header width; short or long
	// rows come back as csv.ErrFieldCount.
	table := model.NewTable(cleanHeaders(headers))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvParseError(path, err)
		}
		table.Rows = append(table.Rows, buildRow(table.Columns, record))
	}

	return table, nil
}

func csvParseError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Path: path, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Path: path, Err: err}
}

// ------------------- XLSX -------------------
func loadXLSX(ctx context.Context, path, sheet string) (*model.Table, error) {
	file, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	wb, err := excelize.OpenReader(file)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer wb.Close()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{Path: path, Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Line: 1, Err: errors.New("missing header row")}
	}

	table := model.NewTable(cleanHeaders(rows[0]))
	width := len(table.Columns)

	for i, record := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// excelize trims trailing empty cells, so only longer rows are malformed
		if len(record) > width {
			return nil, &ParseError{Path: path, Line: i + 2, Err: csv.ErrFieldCount}
		}
		for len(record) < width {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, buildRow(table.Columns, record))
	}

	return table, nil
}

// ------------------- Helpers -------------------

// cleanHeaders trims header names, strips a UTF-8 BOM and names blank columns.
func cleanHeaders(headers []string) []string {
	cols := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		cols[i] = h
	}
	return cols
}

func buildRow(columns []string, record []string) model.Row {
	row := make(model.Row, len(columns))
	for i, col := range columns {
		row[col] = utils.ParseValue(record[i])
	}
	return row
}
