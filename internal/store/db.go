package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-prison-stats/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// ErrNotFound is returned when a report id is unknown
var ErrNotFound = errors.New("report not found")

const reportTables = `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		chart_path TEXT DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS report_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT,
		stage TEXT,
		error_type TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS stage_progress (
		report_id TEXT,
		stage TEXT,
		status TEXT,
		start_time DATETIME,
		end_time DATETIME,
		rows_in INTEGER,
		rows_out INTEGER,
		PRIMARY KEY (report_id, stage)
	);
`

const aggregateTables = `
	CREATE TABLE IF NOT EXISTS aggregate_schema (
		report_id TEXT PRIMARY KEY,
		columns TEXT
	);
	CREATE TABLE IF NOT EXISTS aggregate_rows (
		report_id TEXT,
		row_index INTEGER,
		row_json TEXT,
		PRIMARY KEY (report_id, row_index)
	);
`

// Initialize DB connection
func InitDB(dbPath string) error {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	// sqlite allows one writer; runs execute in their own goroutines
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(reportTables + aggregateTables); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	db = conn
	return nil
}

// Enabled reports whether InitDB has been called. The CLI runs without a store.
func Enabled() bool {
	return db != nil
}

// Close closes the connection opened by InitDB
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// ------------------- Reports -------------------

// SaveReport stores a new report run
func SaveReport(reportID string, spec model.ReportSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO reports (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		reportID, string(specJSON), model.StatusPending, now, now)
	return err
}

// UpdateReportStatus updates report status
func UpdateReportStatus(reportID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`, status, now, reportID)
	return err
}

// SaveChartPath records where the combined chart of a report was written
func SaveChartPath(reportID, path string) error {
	_, err := db.Exec(`UPDATE reports SET chart_path = ?, updated_at = ? WHERE id = ?`, path, time.Now().UTC(), reportID)
	return err
}

// GetChartPath returns the stored chart path, empty if nothing was rendered
func GetChartPath(reportID string) (string, error) {
	var path string
	err := db.QueryRow(`SELECT chart_path FROM reports WHERE id = ?`, reportID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return path, err
}

// ListReports returns all reports with basic info
func ListReports() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []map[string]interface{}{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return reports, rows.Err()
}

// GetReport fetches full report spec and status
func GetReport(reportID string) (map[string]interface{}, error) {
	var specJSON, status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM reports WHERE id = ?`, reportID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var spec model.ReportSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        reportID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// GetReportSpec returns only the stored spec of a report
func GetReportSpec(reportID string) (model.ReportSpec, error) {
	report, err := GetReport(reportID)
	if err != nil {
		return model.ReportSpec{}, err
	}
	return report["spec"].(model.ReportSpec), nil
}

// ------------------- Errors -------------------

// SaveReportError records an error for a report
func SaveReportError(reportID, stage, errorType string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO report_errors (report_id, stage, error_type, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		reportID, stage, errorType, err.Error(), now)
	return e
}

// GetReportErrors returns the errors of a report, oldest first
func GetReportErrors(reportID string) ([]model.ErrorDetail, error) {
	rows, err := db.Query(`SELECT stage, error_type, error_message, created_at FROM report_errors WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []model.ErrorDetail{}
	for rows.Next() {
		var d model.ErrorDetail
		if err := rows.Scan(&d.Stage, &d.ErrorType, &d.Message, &d.Timestamp); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ------------------- Stage progress -------------------

// SaveStageProgress upserts the progress of one stage
func SaveStageProgress(reportID string, stage model.StageMetrics) error {
	_, err := db.Exec(`INSERT INTO stage_progress (report_id, stage, status, start_time, end_time, rows_in, rows_out)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_id, stage) DO UPDATE SET
			status = excluded.status, start_time = excluded.start_time, end_time = excluded.end_time,
			rows_in = excluded.rows_in, rows_out = excluded.rows_out`,
		reportID, stage.Stage, stage.Status, stage.StartTime.UTC(), nullTime(stage.EndTime), stage.RowsIn, stage.RowsOut)
	return err
}

// GetStageProgress returns the stored stages of a report in start order
func GetStageProgress(reportID string) ([]model.StageMetrics, error) {
	rows, err := db.Query(`SELECT stage, status, start_time, end_time, rows_in, rows_out
		FROM stage_progress WHERE report_id = ? ORDER BY start_time`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []model.StageMetrics{}
	for rows.Next() {
		var s model.StageMetrics
		var end sql.NullTime
		if err := rows.Scan(&s.Stage, &s.Status, &s.StartTime, &end, &s.RowsIn, &s.RowsOut); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			s.EndTime = &t
			s.Duration = t.Sub(s.StartTime)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// ClearReport removes stored progress, errors and rows before a rerun
func ClearReport(reportID string) error {
	for _, table := range []string{"report_errors", "stage_progress", "aggregate_rows", "aggregate_schema"} {
		if _, err := db.Exec(`DELETE FROM `+table+` WHERE report_id = ?`, reportID); err != nil {
			return err
		}
	}
	_, err := db.Exec(`UPDATE reports SET chart_path = '', status = ?, updated_at = ? WHERE id = ?`,
		model.StatusPending, time.Now().UTC(), reportID)
	return err
}

// DeleteReport removes a report and everything stored for it
func DeleteReport(reportID string) error {
	if err := ClearReport(reportID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM reports WHERE id = ?`, reportID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// ------------------- Aggregate rows -------------------

// SaveAggregateRows replaces the stored aggregate of a report
func SaveAggregateRows(reportID string, table *model.Table) (int, error) {
	return writeAggregate(db, reportID, table)
}

// GetAggregateRows loads the stored aggregate of a report
func GetAggregateRows(reportID string) (*model.Table, error) {
	return readAggregate(db, reportID)
}

// ExportAggregate writes table into a separate sqlite database at dbPath.
func ExportAggregate(dbPath, reportID string, table *model.Table) (int, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := conn.Exec(aggregateTables); err != nil {
		return 0, fmt.Errorf("failed to create tables: %w", err)
	}
	return writeAggregate(conn, reportID, table)
}

// ReadExportedAggregate reads a table written by ExportAggregate
func ReadExportedAggregate(dbPath, reportID string) (*model.Table, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return readAggregate(conn, reportID)
}

func writeAggregate(conn *sql.DB, reportID string, table *model.Table) (int, error) {
	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return 0, err
	}

	tx, err := conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM aggregate_rows WHERE report_id = ?`, reportID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO aggregate_schema (report_id, columns) VALUES (?, ?)`, reportID, string(columns)); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO aggregate_rows (report_id, row_index, row_json) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		values := make([]interface{}, len(table.Columns))
		for j, col := range table.Columns {
			values[j] = row[col]
		}
		rowJSON, err := json.Marshal(values)
		if err != nil {
			return i, fmt.Errorf("row %d: %w", i, err)
		}
		if _, err := stmt.Exec(reportID, i, string(rowJSON)); err != nil {
			return i, fmt.Errorf("row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(table.Rows), nil
}

func readAggregate(conn *sql.DB, reportID string) (*model.Table, error) {
	var columnsJSON string
	err := conn.QueryRow(`SELECT columns FROM aggregate_schema WHERE report_id = ?`, reportID).Scan(&columnsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var columns []string
	if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
		return nil, err
	}
	table := model.NewTable(columns)

	rows, err := conn.Query(`SELECT row_json FROM aggregate_rows WHERE report_id = ? ORDER BY row_index`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return nil, err
		}
		values, err := decodeValues(rowJSON)
		if err != nil {
			return nil, err
		}
		row := make(model.Row, len(columns))
		for j, col := range columns {
			if j < len(values) {
				row[col] = values[j]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}

// decodeValues keeps integers as int64 instead of float64
func decodeValues(rowJSON string) ([]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(rowJSON)))
	dec.UseNumber()

	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	for i, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if iv, err := n.Int64(); err == nil && !strings.ContainsAny(n.String(), ".eE") {
			raw[i] = iv
		} else if fv, err := n.Float64(); err == nil {
			raw[i] = fv
		}
	}
	return raw, nil
}
