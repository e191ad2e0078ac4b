package chart

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go-prison-stats/internal/model"
	"go-prison-stats/pkg/utils"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"
)

// ErrNoData is returned for a table without rows
var ErrNoData = errors.New("chart: no rows to plot")

// Options controls where and how the chart files are written
type Options struct {
	OutputDir string
	Format    string // png, svg, pdf; default png
	Name      string // base file name; default "chart"
}

// Frame is one rendered animation step
type Frame struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
	Path  string      `json:"path"`
}

// Artifact is the rendered chart: the combined view plus one file per
// animation frame.
type Artifact struct {
	Path     string            `json:"path"`
	Format   string            `json:"format"`
	Frames   []Frame           `json:"frames,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Config   model.ChartConfig `json:"-"`
	Table    *model.Table      `json:"-"`
}

// pixels converts CSS pixels (96 per inch) to a vg length
func pixels(px int) vg.Length {
	return vg.Length(float64(px)/96) * vg.Inch
}

// Render draws table as a bar chart described by cfg. Columns the config
// names for facets, colors, labels or error bars that the table lacks are
// skipped with a warning; the x and y columns are required.
func Render(table *model.Table, cfg model.ChartConfig, opts Options) (*Artifact, error) {
	if cfg.Type != "" && cfg.Type != "bar" {
		return nil, fmt.Errorf("unsupported chart type %q", cfg.Type)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("chart size must be positive, got %dx%d", cfg.Width, cfg.Height)
	}

	if table.Len() == 0 {
		return nil, ErrNoData
	}

	l, err := newLayout(table, cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range l.warnings {
		log.Printf("⚠️ Chart: %s", w)
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "png"
	}
	name := opts.Name
	if name == "" {
		name = "chart"
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	art := &Artifact{
		Path:     filepath.Join(opts.OutputDir, name+"."+format),
		Format:   format,
		Warnings: l.warnings,
		Config:   cfg,
		Table:    table,
	}
	if err := l.write(table.Rows, cfg.Title, art.Path, format); err != nil {
		return nil, err
	}

	if l.frameCol != "" {
		for i, v := range orderedValues(table.Rows, l.frameCol, cfg.CategoryOrders[l.frameCol]) {
			frame := Frame{
				Value: v,
				Label: label(l.frameCol, v),
				Path:  filepath.Join(opts.OutputDir, fmt.Sprintf("%s_frame_%02d.%s", name, i, format)),
			}
			title := fmt.Sprintf("%s (%s)", cfg.Title, frame.Label)
			if err := l.write(rowsWhere(table.Rows, l.frameCol, v), title, frame.Path, format); err != nil {
				return nil, fmt.Errorf("frame %s: %w", frame.Label, err)
			}
			art.Frames = append(art.Frames, frame)
		}
	}

	log.Printf("📈 Chart rendered: %s (%d frames)", art.Path, len(art.Frames))
	return art, nil
}

// ------------------- Layout -------------------

// layout holds everything derived once from the full table so that every
// frame shares axes, categories and colors.
type layout struct {
	cfg        model.ChartConfig
	horizontal bool
	catCol     string
	valCol     string
	categories []interface{}
	catIndex   map[string]int
	colorCol   string
	series     []interface{}
	colors     []color.Color
	facetRow   string
	facetCol   string
	rowVals    []interface{}
	colVals    []interface{}
	frameCol   string
	textCol    string
	errPlus    string
	errMinus   string
	logScale   bool
	floor      float64
	max        float64
	barWidths  []float64 // fraction of a category slot, by category position
	warnings   []string
}

func newLayout(table *model.Table, cfg model.ChartConfig) (*layout, error) {
	l := &layout{cfg: cfg, horizontal: strings.EqualFold(cfg.Orientation, "h")}
	l.catCol, l.valCol = cfg.X, cfg.Y
	if l.horizontal {
		l.catCol, l.valCol = cfg.Y, cfg.X
	}
	if missing := table.MissingColumns(l.catCol, l.valCol); len(missing) > 0 {
		return nil, fmt.Errorf("chart: missing column(s) %s", strings.Join(missing, ", "))
	}

	l.categories = orderedValues(table.Rows, l.catCol, cfg.CategoryOrders[l.catCol])
	if len(l.categories) == 0 {
		return nil, fmt.Errorf("%w: column %s has no values", ErrNoData, l.catCol)
	}
	l.catIndex = make(map[string]int, len(l.categories))
	for i, c := range l.categories {
		l.catIndex[utils.KeyPart(c)] = i
	}

	l.colorCol = l.optional(table, cfg.Color, "color")
	if l.colorCol != "" {
		l.series = orderedValues(table.Rows, l.colorCol, cfg.CategoryOrders[l.colorCol])
	} else {
		l.series = []interface{}{nil}
	}
	for i, s := range l.series {
		c, warnings := seriesColor(utils.FormatValue(s), i, cfg.ColorMap, cfg.ColorSequence)
		l.warnings = append(l.warnings, warnings...)
		l.colors = append(l.colors, withOpacity(c, cfg.Opacity))
	}

	l.facetRow = l.optional(table, cfg.FacetRow, "facet row")
	l.facetCol = l.optional(table, cfg.FacetCol, "facet column")
	if l.facetRow != "" && l.facetRow == l.facetCol {
		l.warnings = append(l.warnings, fmt.Sprintf("facet row and column are both %s; faceting by column only", l.facetCol))
		l.facetRow = ""
	}
	if l.facetRow != "" {
		l.rowVals = orderedValues(table.Rows, l.facetRow, cfg.CategoryOrders[l.facetRow])
	}
	if l.facetCol != "" {
		l.colVals = orderedValues(table.Rows, l.facetCol, cfg.CategoryOrders[l.facetCol])
	}

	l.frameCol = l.optional(table, cfg.AnimationFrame, "animation frame")
	l.textCol = l.optional(table, cfg.Text, "text")
	l.errPlus = l.optional(table, cfg.ErrorY, "error")
	l.errMinus = l.optional(table, cfg.ErrorYMinus, "error minus")

	l.barWidths = make([]float64, len(l.categories))
	for i := range l.barWidths {
		l.barWidths[i] = 0.8
		if i < len(cfg.BarWidths) && cfg.BarWidths[i] > 0 && cfg.BarWidths[i] <= 1 {
			l.barWidths[i] = cfg.BarWidths[i]
		}
	}

	catLog, valLog := cfg.LogX, cfg.LogY
	if l.horizontal {
		catLog, valLog = cfg.LogY, cfg.LogX
	}
	if catLog {
		l.warnings = append(l.warnings, fmt.Sprintf("log scale ignored on categorical axis %s", l.catCol))
	}

	l.max, l.floor = l.valueRange(table.Rows)
	if valLog {
		if l.allPositive(table.Rows) {
			l.logScale = true
		} else {
			l.warnings = append(l.warnings, fmt.Sprintf("log scale on %s needs positive values; using linear", l.valCol))
		}
	}
	return l, nil
}

// optional returns column when the table has it; a configured but absent
// column is reported as a warning and treated as unset.
func (l *layout) optional(table *model.Table, column, role string) string {
	if column == "" {
		return ""
	}
	if !table.HasColumn(column) {
		l.warnings = append(l.warnings, fmt.Sprintf("%s column %s not in table; ignored", role, column))
		return ""
	}
	return column
}

func (l *layout) allPositive(rows []model.Row) bool {
	for _, row := range rows {
		f, ok := utils.Numeric(row[l.valCol])
		if !ok || f <= 0 {
			return false
		}
	}
	return len(rows) > 0
}

// valueRange returns the tallest bar (stacked when bars stack, including
// the upper error) and half the smallest positive value.
func (l *layout) valueRange(rows []model.Row) (max, floor float64) {
	heights := map[string]float64{}
	floor = math.Inf(1)
	for _, row := range rows {
		v, _ := utils.Numeric(row[l.valCol])
		if v > 0 && v < floor {
			floor = v
		}
		key := utils.KeyPart(row[l.facetRow]) + "|" + utils.KeyPart(row[l.facetCol]) + "|" + utils.KeyPart(row[l.catCol])
		if !l.stacked() {
			key += "|" + utils.KeyPart(row[l.colorCol])
		}
		heights[key] += v
		top := heights[key]
		if l.errPlus != "" {
			e, _ := utils.Numeric(row[l.errPlus])
			top += e
		}
		if top > max {
			max = top
		}
	}
	if max <= 0 {
		max = 1
	}
	if math.IsInf(floor, 1) {
		floor = 1
	}
	return max, floor / 2
}

func (l *layout) stacked() bool {
	switch l.cfg.BarMode {
	case "group", "overlay":
		return false
	default:
		return true
	}
}

// ------------------- Drawing -------------------

// write lays out the facet panels for rows and writes them to path
func (l *layout) write(rows []model.Row, title, path, format string) error {
	grid, err := l.panels(rows)
	if err != nil {
		return err
	}

	c, err := draw.NewFormattedCanvas(pixels(l.cfg.Width), pixels(l.cfg.Height), format)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	dc := draw.New(c)

	titleStyle := plot.New().Title.TextStyle
	titleStyle.Font.Size = vg.Points(16)
	titleStyle.XAlign = draw.XCenter
	titleStyle.YAlign = draw.YTop
	titleHeight := titleStyle.Height(title) + vg.Points(12)
	dc.FillText(titleStyle, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - vg.Points(6)}, title)

	body := draw.Crop(dc, 0, 0, 0, -titleHeight)
	tiles := draw.Tiles{
		Rows:      len(grid),
		Cols:      len(grid[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(grid, tiles, body)
	for j := range grid {
		for i := range grid[j] {
			grid[j][i].Draw(canvases[j][i])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return f.Close()
}

// panels builds the facet grid. A facet column alone wraps after
// FacetColWrap panels; a facet row alone stacks panels vertically.
func (l *layout) panels(rows []model.Row) ([][]*plot.Plot, error) {
	type cell struct {
		rows  []model.Row
		title string
	}

	var cells [][]*cell
	switch {
	case l.facetRow != "" && l.facetCol != "":
		for _, rv := range l.rowVals {
			var line []*cell
			for _, cv := range l.colVals {
				line = append(line, &cell{
					rows:  rowsWhere(rowsWhere(rows, l.facetRow, rv), l.facetCol, cv),
					title: label(l.facetRow, rv) + ", " + label(l.facetCol, cv),
				})
			}
			cells = append(cells, line)
		}
	case l.facetCol != "":
		wrap := l.cfg.FacetColWrap
		if wrap <= 0 || wrap > len(l.colVals) {
			wrap = len(l.colVals)
		}
		for k, cv := range l.colVals {
			if k%wrap == 0 {
				cells = append(cells, make([]*cell, wrap))
			}
			cells[len(cells)-1][k%wrap] = &cell{rows: rowsWhere(rows, l.facetCol, cv), title: label(l.facetCol, cv)}
		}
	case l.facetRow != "":
		for _, rv := range l.rowVals {
			cells = append(cells, []*cell{{rows: rowsWhere(rows, l.facetRow, rv), title: label(l.facetRow, rv)}})
		}
	}
	if len(cells) == 0 {
		cells = [][]*cell{{{rows: rows}}}
	}

	grid := make([][]*plot.Plot, len(cells))
	for j, line := range cells {
		grid[j] = make([]*plot.Plot, len(line))
		for i, c := range line {
			if c == nil {
				blank := plot.New()
				blank.HideAxes()
				grid[j][i] = blank
				continue
			}
			p, err := l.panel(c.rows, c.title, len(line), j == 0 && i == 0)
			if err != nil {
				return nil, err
			}
			grid[j][i] = p
		}
	}
	return grid, nil
}

// panel draws one facet: a bar series per color value
func (l *layout) panel(rows []model.Row, title string, cols int, legend bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	if l.horizontal {
		p.X.Label.Text, p.Y.Label.Text = l.cfg.Label(l.valCol), l.cfg.Label(l.catCol)
	} else {
		p.X.Label.Text, p.Y.Label.Text = l.cfg.Label(l.catCol), l.cfg.Label(l.valCol)
	}
	if l.cfg.Template == "gridon" {
		p.Add(plotter.NewGrid())
	}
	if legend && l.colorCol != "" {
		p.Legend.Top = l.cfg.Legend == nil || l.cfg.Legend.Y >= 0.5
		p.Legend.Left = l.cfg.Legend != nil && l.cfg.Legend.X < 0.5
	}

	ncat := len(l.categories)
	if ncat == 0 {
		ncat = 1
	}
	extent := pixels(l.cfg.Width) / vg.Length(cols)
	if l.horizontal {
		extent = pixels(l.cfg.Height) / vg.Length(len(l.rowVals)+1)
	}
	slot := extent * 0.8 / vg.Length(ncat)
	grouped := !l.stacked() && l.cfg.BarMode == "group"

	// one bar chart per distinct width; a category only has values in the
	// chart of its own width
	var widths []float64
	seen := map[float64]bool{}
	for _, w := range l.barWidths {
		if !seen[w] {
			seen[w] = true
			widths = append(widths, w)
		}
	}

	base := make([]float64, len(l.categories))
	below := map[float64]*plotter.BarChart{}
	for si, s := range l.series {
		sub := rows
		if l.colorCol != "" {
			sub = rowsWhere(rows, l.colorCol, s)
		}
		data := l.values(sub)
		k := float64(si) - float64(len(l.series)-1)/2

		for wi, w := range widths {
			vals := make(plotter.Values, len(data.values))
			for ci, v := range data.values {
				if l.barWidths[ci] == w {
					vals[ci] = v
				}
			}
			width := slot * vg.Length(w)
			if grouped {
				width /= vg.Length(len(l.series))
			}

			bars, err := plotter.NewBarChart(vals, width)
			if err != nil {
				return nil, err
			}
			bars.Color = l.colors[si]
			bars.LineStyle.Width = vg.Length(0)
			bars.Horizontal = l.horizontal

			switch {
			case grouped:
				bars.Offset = width * vg.Length(k)
			case l.stacked() && below[w] != nil:
				bars.StackOn(below[w])
			}
			p.Add(bars)
			if legend && s != nil && wi == 0 {
				p.Legend.Add(utils.FormatValue(s), bars)
			}
			below[w] = bars
		}

		tops := make([]float64, len(data.values))
		shifts := make([]float64, len(data.values))
		for ci, v := range data.values {
			tops[ci] = v
			if l.stacked() {
				tops[ci] += base[ci]
				base[ci] = tops[ci]
			}
			if grouped {
				shifts[ci] = k * l.barWidths[ci] / float64(len(l.series))
			}
		}
		if err := l.annotate(p, tops, shifts, data); err != nil {
			return nil, err
		}
	}

	if l.horizontal {
		p.NominalY(l.categoryLabels()...)
		l.scaleAxis(&p.X)
	} else {
		p.NominalX(l.categoryLabels()...)
		l.scaleAxis(&p.Y)
	}
	return p, nil
}

// barData is one series summed per category
type barData struct {
	values  plotter.Values
	text    []float64
	errs    [][2]float64
	present []bool
}

// values sums the value, text and error columns of rows per category
func (l *layout) values(rows []model.Row) barData {
	n := len(l.categories)
	d := barData{
		values:  make(plotter.Values, n),
		text:    make([]float64, n),
		errs:    make([][2]float64, n),
		present: make([]bool, n),
	}
	for _, row := range rows {
		ci, ok := l.catIndex[utils.KeyPart(row[l.catCol])]
		if !ok {
			continue
		}
		d.present[ci] = true
		v, _ := utils.Numeric(row[l.valCol])
		d.values[ci] += v
		if l.textCol != "" {
			t, _ := utils.Numeric(row[l.textCol])
			d.text[ci] += t
		}
		if l.errMinus != "" {
			e, _ := utils.Numeric(row[l.errMinus])
			d.errs[ci][0] += e
		}
		if l.errPlus != "" {
			e, _ := utils.Numeric(row[l.errPlus])
			d.errs[ci][1] += e
		}
	}
	return d
}

// annotate adds value labels and error bars at the top of each bar
func (l *layout) annotate(p *plot.Plot, tops, shifts []float64, data barData) error {
	if l.textCol == "" && l.errPlus == "" && l.errMinus == "" {
		return nil
	}

	var (
		pts    plotter.XYs
		labels []string
		yerrs  plotter.YErrors
		xerrs  plotter.XErrors
	)
	for ci, top := range tops {
		if !data.present[ci] {
			continue
		}
		pt := plotter.XY{X: float64(ci) + shifts[ci], Y: top}
		if l.horizontal {
			pt = plotter.XY{X: top, Y: float64(ci) + shifts[ci]}
		}
		pts = append(pts, pt)
		labels = append(labels, formatText(l.cfg.TextTemplate, data.text[ci]))
		yerrs = append(yerrs, struct{ Low, High float64 }{data.errs[ci][0], data.errs[ci][1]})
		xerrs = append(xerrs, struct{ Low, High float64 }{data.errs[ci][0], data.errs[ci][1]})
	}
	if len(pts) == 0 {
		return nil
	}

	if l.errPlus != "" || l.errMinus != "" {
		var (
			eb  plot.Plotter
			err error
		)
		if l.horizontal {
			eb, err = plotter.NewXErrorBars(struct {
				plotter.XYs
				plotter.XErrors
			}{pts, xerrs})
		} else {
			eb, err = plotter.NewYErrorBars(struct {
				plotter.XYs
				plotter.YErrors
			}{pts, yerrs})
		}
		if err != nil {
			return err
		}
		p.Add(eb)
	}

	if l.textCol != "" {
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
		if err != nil {
			return err
		}
		for i := range lbl.TextStyle {
			if l.cfg.UniformTextMinSize > 0 {
				lbl.TextStyle[i].Font.Size = vg.Points(float64(l.cfg.UniformTextMinSize))
			}
			lbl.TextStyle[i].XAlign = draw.XCenter
		}
		lbl.Offset = vg.Point{Y: vg.Points(3)}
		p.Add(lbl)
	}
	return nil
}

// scaleAxis fixes the value axis to the range of the whole table so every
// frame is drawn on the same scale.
func (l *layout) scaleAxis(axis *plot.Axis) {
	if l.logScale {
		axis.Scale = clampedLog{floor: l.floor}
		axis.Tick.Marker = plot.LogTicks{Prec: -1}
		axis.Min = l.floor
		axis.Max = l.max * 2
		return
	}
	axis.Min = 0
	axis.Max = l.max * 1.1
}

func (l *layout) categoryLabels() []string {
	names := make([]string, len(l.categories))
	for i, c := range l.categories {
		names[i] = utils.FormatValue(c)
	}
	return names
}

// ------------------- Helpers -------------------

// orderedValues lists the distinct non-missing values of column: first those
// named in order, then the rest by first appearance.
func orderedValues(rows []model.Row, column string, order []interface{}) []interface{} {
	present := map[string]interface{}{}
	var appearance []string
	for _, row := range rows {
		v := row[column]
		if v == nil {
			continue
		}
		k := utils.KeyPart(v)
		if _, ok := present[k]; !ok {
			present[k] = v
			appearance = append(appearance, k)
		}
	}

	values := make([]interface{}, 0, len(present))
	used := map[string]bool{}
	for _, o := range order {
		k := utils.KeyPart(o)
		if v, ok := present[k]; ok && !used[k] {
			values = append(values, v)
			used[k] = true
		}
	}
	for _, k := range appearance {
		if !used[k] {
			values = append(values, present[k])
		}
	}
	return values
}

func rowsWhere(rows []model.Row, column string, value interface{}) []model.Row {
	var out []model.Row
	for _, row := range rows {
		if utils.ValuesEqual(row[column], value) {
			out = append(out, row)
		}
	}
	return out
}
