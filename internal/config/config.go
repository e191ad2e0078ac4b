// Package config loads report specs from YAML or JSON files. Fields the
// file leaves out keep the values of model.DefaultReportSpec.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go-prison-stats/internal/model"

	"gopkg.in/yaml.v2"
)

// Load reads a report spec from path. Files ending in .json are decoded as
// JSON, everything else as YAML.
func Load(path string) (model.ReportSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ReportSpec{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var spec model.ReportSpec
	if strings.EqualFold(filepath.Ext(path), ".json") {
		spec, err = ParseJSON(data)
	} else {
		spec, err = Parse(data)
	}
	if err != nil {
		return model.ReportSpec{}, fmt.Errorf("config %s: %w", path, err)
	}

	log.Printf("⚙️ Loaded config from %s", path)
	return spec, nil
}

// Parse decodes YAML over the default spec. Unknown keys are an error;
// `filter: null` disables filtering.
func Parse(data []byte) (model.ReportSpec, error) {
	spec := model.DefaultReportSpec()
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return model.ReportSpec{}, err
	}
	return spec, nil
}

// ParseJSON is Parse for JSON documents
func ParseJSON(data []byte) (model.ReportSpec, error) {
	spec := model.DefaultReportSpec()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return model.ReportSpec{}, err
	}
	return spec, nil
}
