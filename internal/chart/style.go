package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/plotutil"
)

// parseColor accepts CSS color names and #rgb / #rrggbb hex strings.
func parseColor(name string) (color.RGBA, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	if strings.HasPrefix(name, "#") {
		hex := name[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
			}
		}
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", name)
}

// withOpacity returns c with its alpha set to opacity (0..1)
func withOpacity(c color.Color, opacity float64) color.Color {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(math.Round(opacity * 255))}
}

// seriesColor picks the color of series i named key: the color map first,
// then the color sequence by position, then the plotutil palette.
func seriesColor(key string, i int, colorMap map[string]string, sequence []string) (color.Color, []string) {
	var warnings []string
	if name, ok := colorMap[key]; ok {
		c, err := parseColor(name)
		if err == nil {
			return c, nil
		}
		warnings = append(warnings, err.Error())
	}
	if len(sequence) > 0 {
		c, err := parseColor(sequence[i%len(sequence)])
		if err == nil {
			return c, warnings
		}
		warnings = append(warnings, err.Error())
	}
	return plotutil.Color(i), warnings
}

// clampedLog is a log scale that maps values below floor to floor, so bars
// drawn from zero stay on the canvas.
type clampedLog struct {
	floor float64
}

func (s clampedLog) Normalize(min, max, x float64) float64 {
	min, max, x = s.clamp(min), s.clamp(max), s.clamp(x)
	if max <= min {
		return 0.5
	}
	logMin := math.Log(min)
	return (math.Log(x) - logMin) / (math.Log(max) - logMin)
}

func (s clampedLog) clamp(v float64) float64 {
	if v < s.floor {
		return s.floor
	}
	return v
}
