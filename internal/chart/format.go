package chart

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go-prison-stats/pkg/utils"
)

// siPrefixes covers 1e-24 to 1e24 in steps of 1e3; index 8 is the unit.
var siPrefixes = []string{"y", "z", "a", "f", "p", "n", "µ", "m", "", "k", "M", "G", "T", "P", "E", "Z", "Y"}

// formatSI rounds v to precision significant digits and scales it with an SI
// prefix: 3 -> "3.0", 1234 -> "1.2k", 123456 -> "120k" for precision 2.
func formatSI(v float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		if v != 0 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strconv.FormatFloat(0, 'f', precision-1, 64)
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	exp := exponent(v)
	var rounded float64
	if k := precision - 1 - exp; k >= 0 {
		p := math.Pow(10, float64(k))
		rounded = math.Round(v*p) / p
	} else {
		p := math.Pow(10, float64(-k))
		rounded = math.Round(v/p) * p
	}
	// rounding can carry into the next power of ten (99.7 -> 100)
	exp = exponent(rounded)

	group := int(math.Floor(float64(exp) / 3))
	if group < -8 {
		group = -8
	} else if group > 8 {
		group = 8
	}

	mantissa := rounded / math.Pow(10, float64(group*3))
	decimals := precision - 1 - (exp - group*3)
	if decimals < 0 {
		decimals = 0
	}
	return sign + strconv.FormatFloat(mantissa, 'f', decimals, 64) + siPrefixes[group+8]
}

// exponent returns floor(log10(v)) for v > 0. math.Log10 is off by one ulp
// for some powers of ten, so the result is checked against math.Pow10.
func exponent(v float64) int {
	exp := int(math.Floor(math.Log10(v)))
	if math.Pow10(exp+1) <= v {
		exp++
	} else if math.Pow10(exp) > v {
		exp--
	}
	return exp
}

var textTemplate = regexp.MustCompile(`%\{text(?::\.(\d+)s)?\}`)

// formatText renders a value label through a template such as
// "%{text:.2s}". Without a template the raw value is printed.
func formatText(template string, v interface{}) string {
	if template == "" {
		return utils.FormatValue(v)
	}
	return textTemplate.ReplaceAllStringFunc(template, func(m string) string {
		sub := textTemplate.FindStringSubmatch(m)
		f, ok := utils.Numeric(v)
		if sub[1] == "" || !ok {
			return utils.FormatValue(v)
		}
		precision, _ := strconv.Atoi(sub[1])
		return formatSI(f, precision)
	})
}

// label renders "column=value" the way facet and frame titles are shown
func label(column string, v interface{}) string {
	return strings.TrimSpace(column) + "=" + utils.FormatValue(v)
}
