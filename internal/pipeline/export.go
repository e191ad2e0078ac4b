package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-prison-stats/internal/model"
	"go-prison-stats/internal/store"
	"go-prison-stats/pkg/utils"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// ExportManager writes one table to the sinks of an export spec
type ExportManager struct {
	RunID      string
	ExportSpec *model.Export
	Results    []model.ExportResult
}

// ExportTable writes table to every configured file and database sink. A
// failing sink is reported in its result and does not stop the others.
func ExportTable(ctx context.Context, table *model.Table, export *model.Export, runID string) []model.ExportResult {
	if export == nil {
		return nil
	}

	em := &ExportManager{RunID: runID, ExportSpec: export}
	log.Printf("💾 Export: starting export of %d aggregated rows", table.Len())

	for _, path := range export.Files {
		if ctx.Err() != nil {
			break
		}
		em.Results = append(em.Results, em.exportToFile(table, path))
	}
	if export.DB != "" && ctx.Err() == nil {
		em.Results = append(em.Results, em.exportToDatabase(table))
	}

	return em.Results
}

// exportToFile picks the format from the file extension
func (em *ExportManager) exportToFile(table *model.Table, path string) model.ExportResult {
	ext := strings.ToLower(filepath.Ext(path))

	var err error
	switch ext {
	case ".csv":
		err = em.exportToCSV(table, path)
	case ".json":
		err = em.exportToJSON(table, path)
	case ".xlsx":
		err = em.exportToXLSX(table, path)
	case ".parquet":
		err = em.exportToParquet(table, path)
	default:
		err = fmt.Errorf("unsupported export format %q", ext)
	}

	return em.result(strings.TrimPrefix(ext, "."), path, table.Len(), err)
}

func (em *ExportManager) result(kind, path string, count int, err error) model.ExportResult {
	result := model.ExportResult{
		Type:        kind,
		Path:        path,
		RecordCount: count,
		Success:     err == nil,
		Timestamp:   time.Now(),
	}
	if err != nil {
		result.RecordCount = 0
		result.Error = err.Error()
		log.Printf("❌ Export to %s failed: %v", path, err)
	} else {
		log.Printf("✅ Export to %s successful: %d rows", path, count)
	}
	return result
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

// exportToCSV exports data to CSV format
func (em *ExportManager) exportToCSV(table *model.Table, path string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		for j, col := range table.Columns {
			record[j] = utils.FormatValue(row[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// exportToJSON exports data to JSON format with run metadata
func (em *ExportManager) exportToJSON(table *model.Table, path string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":       em.RunID,
			"exported_at":  time.Now().UTC(),
			"record_count": table.Len(),
			"export_type":  "aggregated_results",
		},
		"columns": table.Columns,
		"data":    table.Rows,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// exportToXLSX writes a single sheet workbook
func (em *ExportManager) exportToXLSX(table *model.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Aggregate"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, header := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 14)
	}

	for r, row := range table.Rows {
		for c, col := range table.Columns {
			v := row[col]
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", r, err)
			}
		}
	}

	return f.SaveAs(path)
}

// exportToParquet converts the table to one Arrow record and writes it with
// Snappy compression. Column types are inferred from the values.
func (em *ExportManager) exportToParquet(table *model.Table, path string) error {
	schema := arrowSchema(table)
	mem := memory.NewGoAllocator()

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i, field := range schema.Fields() {
		fb := builder.Field(i)
		for _, row := range table.Rows {
			appendArrowValue(fb, field.Type, row[field.Name])
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	file, err := createFile(path)
	if err != nil {
		return err
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, file, props, arrowProps)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	// closes the file as well
	return writer.Close()
}

// arrowSchema picks int64 for integer columns, float64 when any value is a
// float and string otherwise. All fields are nullable.
func arrowSchema(table *model.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(table.Columns))
	for i, col := range table.Columns {
		var dt arrow.DataType = arrow.PrimitiveTypes.Int64
		seen := false
		for _, row := range table.Rows {
			switch row[col].(type) {
			case nil:
				continue
			case int64:
			case float64:
				if dt.ID() == arrow.INT64 {
					dt = arrow.PrimitiveTypes.Float64
				}
			default:
				dt = arrow.BinaryTypes.String
			}
			seen = true
			if dt.ID() == arrow.STRING {
				break
			}
		}
		if !seen {
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: col, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func appendArrowValue(b array.Builder, dt arrow.DataType, v interface{}) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch dt.ID() {
	case arrow.INT64:
		i, _ := utils.Integral(v)
		b.(*array.Int64Builder).Append(i)
	case arrow.FLOAT64:
		f, _ := utils.Numeric(v)
		b.(*array.Float64Builder).Append(f)
	default:
		b.(*array.StringBuilder).Append(utils.FormatValue(v))
	}
}

// exportToDatabase writes the aggregate rows into a sqlite file
func (em *ExportManager) exportToDatabase(table *model.Table) model.ExportResult {
	count, err := store.ExportAggregate(em.ExportSpec.DB, em.RunID, table)
	return em.result("database", em.ExportSpec.DB, count, err)
}
