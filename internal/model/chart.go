package model

// Legend positions the legend box in paper coordinates (0..1)
type Legend struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ChartConfig is the static configuration handed to the chart renderer.
// Field names follow the plotting vocabulary the report was first written in.
type ChartConfig struct {
	Type        string  `json:"type" yaml:"type"` // bar
	X           string  `json:"x" yaml:"x"`
	Y           string  `json:"y" yaml:"y"`
	Color       string  `json:"color,omitempty" yaml:"color,omitempty"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	Orientation string  `json:"orientation" yaml:"orientation"` // v, h
	BarMode     string  `json:"barMode" yaml:"barMode"`         // relative, group, overlay

	FacetRow     string `json:"facetRow,omitempty" yaml:"facetRow,omitempty"`
	FacetCol     string `json:"facetCol,omitempty" yaml:"facetCol,omitempty"`
	FacetColWrap int    `json:"facetColWrap,omitempty" yaml:"facetColWrap,omitempty"`

	ColorSequence []string          `json:"colorSequence,omitempty" yaml:"colorSequence,omitempty"`
	ColorMap      map[string]string `json:"colorMap,omitempty" yaml:"colorMap,omitempty"`

	Text         string   `json:"text,omitempty" yaml:"text,omitempty"`
	TextTemplate string   `json:"textTemplate,omitempty" yaml:"textTemplate,omitempty"`
	HoverName    string   `json:"hoverName,omitempty" yaml:"hoverName,omitempty"`
	HoverData    []string `json:"hoverData,omitempty" yaml:"hoverData,omitempty"`
	CustomData   []string `json:"customData,omitempty" yaml:"customData,omitempty"`

	LogX        bool   `json:"logX,omitempty" yaml:"logX,omitempty"`
	LogY        bool   `json:"logY,omitempty" yaml:"logY,omitempty"`
	ErrorY      string `json:"errorY,omitempty" yaml:"errorY,omitempty"`
	ErrorYMinus string `json:"errorYMinus,omitempty" yaml:"errorYMinus,omitempty"`

	Labels   map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Title    string            `json:"title" yaml:"title"`
	Width    int               `json:"width" yaml:"width"`   // pixels
	Height   int               `json:"height" yaml:"height"` // pixels
	Template string            `json:"template" yaml:"template"`

	AnimationFrame     string                   `json:"animationFrame,omitempty" yaml:"animationFrame,omitempty"`
	CategoryOrders     map[string][]interface{} `json:"categoryOrders,omitempty" yaml:"categoryOrders,omitempty"`
	FrameDuration      int                      `json:"frameDuration" yaml:"frameDuration"`           // ms
	TransitionDuration int                      `json:"transitionDuration" yaml:"transitionDuration"` // ms

	UniformTextMinSize int       `json:"uniformTextMinSize,omitempty" yaml:"uniformTextMinSize,omitempty"`
	BarWidths          []float64 `json:"barWidths,omitempty" yaml:"barWidths,omitempty"` // fraction of a category slot, by category position
	Legend             *Legend   `json:"legend,omitempty" yaml:"legend,omitempty"`
}

// Label returns the display label for a column, falling back to its name.
func (c ChartConfig) Label(column string) string {
	if l, ok := c.Labels[column]; ok && l != "" {
		return l
	}
	return column
}

// DefaultChartConfig returns the faceted, animated bar chart of the report.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Type:          "bar",
		X:             "year",
		Y:             "convicts",
		Color:         "gender",
		Opacity:       0.9,
		Orientation:   "v",
		BarMode:       "relative",
		FacetRow:      "caste",
		FacetCol:      "caste",
		FacetColWrap:  2,
		ColorSequence: []string{"pink", "yellow"},
		ColorMap:      map[string]string{"Male": "gray", "Female": "red"},
		Text:          "convicts",
		TextTemplate:  "%{text:.2s}",
		HoverName:     "under_trial",
		HoverData:     []string{"detenues"},
		CustomData:    []string{"others"},
		LogX:          true,
		LogY:          true,
		ErrorY:        "err_plus",
		ErrorYMinus:   "err_minus",
		Labels: map[string]string{
			"convicts": "Convicts in Maharashtra",
			"gender":   "Gender",
		},
		Title:          "Indian Prison Statistics",
		Width:          1400,
		Height:         720,
		Template:       "gridon",
		AnimationFrame: "year",
		CategoryOrders: map[string][]interface{}{
			"year": {2013, 2012, 2011, 2010, 2009, 2008, 2007, 2006, 2005, 2004, 2003, 2002, 2001},
		},
		FrameDuration:      1000,
		TransitionDuration: 500,
		UniformTextMinSize: 14,
		BarWidths:          []float64{.3, .3, .3, .3, .3, .3, .6, .3, .3, .3, .3, .3, .3},
		Legend:             &Legend{X: 0, Y: 1.0},
	}
}
