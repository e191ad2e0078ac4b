package utils

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses duration string like "5m"
func ParseDuration(d string) time.Duration {
	if d == "" {
		return 5 * time.Minute
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return 5 * time.Minute
	}
	return duration
}

// missingMarkers are cell texts that stand for an absent value
var missingMarkers = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// ParseValue inspects a raw cell and returns int64, float64, string, or nil
// for an empty cell or a missing-value marker. Surrounding whitespace is
// ignored when detecting numbers and markers; text cells are returned as is.
func ParseValue(s string) interface{} {
	t := strings.TrimSpace(s)
	if t == "" || missingMarkers[t] {
		return nil
	}

	// try int
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i
	}
	// try float; NaN and infinities carry no count
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	}
	return s
}

// Numeric converts supported numeric types to float64. The bool is false for
// nil, strings, NaN, infinities and any other non-numeric value.
func Numeric(v interface{}) (float64, bool) {
	f, ok := numeric(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 {
			return rv.Convert(reflect.TypeOf(float64(0))).Float(), true
		}
		return 0, false
	}
}

// Integral returns v as int64 when it is an integer type.
func Integral(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case uint32:
		return int64(val), true
	default:
		return 0, false
	}
}

// Normalize maps every integer type to int64 and whole-valued floats coming
// from JSON decoding to int64 so literals compare equal to parsed cells.
func Normalize(v interface{}) interface{} {
	if i, ok := Integral(v); ok {
		return i
	}
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}

// ValuesEqual compares two cell values after normalisation.
func ValuesEqual(a, b interface{}) bool {
	return Normalize(a) == Normalize(b)
}

// KeyPart renders a value for use inside a composite group key. The type is
// part of the key so 2012 and "2012" stay distinct.
func KeyPart(v interface{}) string {
	v = Normalize(v)
	return fmt.Sprintf("%T:%v", v, v)
}

// FormatValue renders a cell for text output
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
