package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager; an empty base means "output".
func NewOutputManager(baseOutputDir string) *OutputManager {
	if baseOutputDir == "" {
		baseOutputDir = "output"
	}
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// RunDir returns the directory of one run's files without creating it
func (om *OutputManager) RunDir(runID string) string {
	// Clean the id to remove any path separators
	return filepath.Join(om.BaseOutputDir, filepath.Base(runID))
}

// CreateRunOutputDir creates the directory holding one run's files
func (om *OutputManager) CreateRunOutputDir(runID string) (string, error) {
	runDir := om.RunDir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return runDir, nil
}

// ContentType returns the MIME type of a chart or export file
func ContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
