package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputManager(t *testing.T) {
	base := t.TempDir()
	om := NewOutputManager(base)

	dir, err := om.CreateRunOutputDir("run-1")
	if err != nil {
		t.Fatalf("CreateRunOutputDir: %v", err)
	}
	if dir != filepath.Join(base, "run-1") {
		t.Errorf("dir = %s", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}

	if got := om.RunDir("../../etc/run-1"); got != dir {
		t.Errorf("RunDir = %s", got)
	}
}

func TestNewOutputManagerDefault(t *testing.T) {
	if got := NewOutputManager("").BaseOutputDir; got != "output" {
		t.Errorf("base = %q", got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"chart.png":     "image/png",
		"chart.SVG":     "image/svg+xml",
		"agg.csv":       "text/csv",
		"agg.parquet":   "application/vnd.apache.parquet",
		"unknown.bin":   "application/octet-stream",
		"chart.pdf":     "application/pdf",
		"agg.xlsx":      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
