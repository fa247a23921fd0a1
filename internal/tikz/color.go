package tikz

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"regiontikz/internal/regionresult"
)

// colorScale maps normalized [0,1] values onto the configured gradient.
// Blending happens in Lab space so the midpoints stay perceptually even.
type colorScale struct {
	low  colorful.Color
	high colorful.Color
	min  float64
	span float64
}

// newColorScale validates the gradient endpoints and fixes the
// normalization range. A zero span is allowed; every value then maps to
// the middle of the gradient.
func newColorScale(g Gradient, observed *regionresult.ValueRange) (*colorScale, error) {
	low, err := colorful.Hex(g.Low)
	if err != nil {
		return nil, renderErrorf("invalid gradient color %q: %v", g.Low, err)
	}
	high, err := colorful.Hex(g.High)
	if err != nil {
		return nil, renderErrorf("invalid gradient color %q: %v", g.High, err)
	}

	min, max := g.Min, g.Max
	if !g.HasRange {
		if observed == nil {
			return nil, renderErrorf("no value range to normalize continuous outcomes against")
		}
		min, max = observed.Min, observed.Max
	}
	if min > max {
		return nil, renderErrorf("gradient range [%v, %v] is inverted", min, max)
	}
	return &colorScale{low: low, high: high, min: min, span: max - min}, nil
}

// at returns the gradient color for value v. Values outside the range are
// clamped: an explicit range acts as a viewing window, not a validator.
func (cs *colorScale) at(v float64) colorful.Color {
	t := 0.5
	if cs.span > 0 {
		t = (v - cs.min) / cs.span
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	return cs.low.BlendLab(cs.high, t).Clamped()
}

// definition renders a \definecolor line for the named color.
func colorDefinition(name string, c colorful.Color) string {
	return fmt.Sprintf(`\definecolor{%s}{rgb}{%.4f,%.4f,%.4f}`, name, c.R, c.G, c.B)
}
