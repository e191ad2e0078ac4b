package model

// Source describes where the dataset is read from
type Source struct {
	Type  string `json:"type" yaml:"type"` // csv, xlsx; empty = by file extension
	URL   string `json:"url" yaml:"url"`
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"` // xlsx only
}

// Filter keeps rows whose Column equals Equals
type Filter struct {
	Column string      `json:"column" yaml:"column"`
	Equals interface{} `json:"equals" yaml:"equals"`
}

// Aggregation groups rows by GroupBy and sums the Sum columns per group.
type Aggregation struct {
	GroupBy []string `json:"groupBy" yaml:"groupBy"`
	Sum     []string `json:"sum" yaml:"sum"`
}

// Export defines export targets
type Export struct {
	Files []string `json:"files,omitempty" yaml:"files,omitempty"` // .csv, .json, .xlsx, .parquet
	DB    string   `json:"db,omitempty" yaml:"db,omitempty"`       // sqlite path
}

// Display controls what happens with the rendered chart.
type Display struct {
	Mode      string `json:"mode" yaml:"mode"` // browser, file
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty"`
	OutputDir string `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"` // png, svg, pdf
}

// Numeric policies applied by the aggregator to missing or non-numeric cells.
const (
	NumericPolicyZero   = "zero"
	NumericPolicyStrict = "strict"
)

// ReportSpec is the complete configuration of one report run
type ReportSpec struct {
	Source               Source      `json:"source" yaml:"source"`
	Filter               *Filter     `json:"filter,omitempty" yaml:"filter,omitempty"`
	Transformations      []string    `json:"transformations,omitempty" yaml:"transformations,omitempty"`
	Aggregation          Aggregation `json:"aggregation" yaml:"aggregation"`
	NumericPolicy        string      `json:"numericPolicy,omitempty" yaml:"numericPolicy,omitempty"`
	Preview              int         `json:"preview" yaml:"preview"` // rows printed after aggregation
	Chart                ChartConfig `json:"chart" yaml:"chart"`
	ChartTransformations []string    `json:"chartTransformations,omitempty" yaml:"chartTransformations,omitempty"` // applied to the aggregate, chart only
	Export               *Export     `json:"export,omitempty" yaml:"export,omitempty"`
	Display              Display     `json:"display" yaml:"display"`
	SkipRender           bool        `json:"skipRender,omitempty" yaml:"skipRender,omitempty"`
	Timeout              string      `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "5m", API runs only
}

// DefaultReportSpec reproduces the Maharashtra prison statistics report.
func DefaultReportSpec() ReportSpec {
	return ReportSpec{
		Source: Source{Type: "csv", URL: "Caste.csv"},
		Filter: &Filter{Column: "state_name", Equals: "Maharashtra"},
		Aggregation: Aggregation{
			GroupBy: []string{"year", "gender"},
			Sum:     []string{"detenues", "under_trial", "convicts", "others"},
		},
		NumericPolicy:        NumericPolicyZero,
		Preview:              5,
		Chart:                DefaultChartConfig(),
		ChartTransformations: []string{"errorBars"},
		Display: Display{
			Mode:      "browser",
			Addr:      "127.0.0.1:8050",
			OutputDir: "output",
			Format:    "png",
		},
	}
}
