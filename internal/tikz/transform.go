package tikz

import "regiontikz/internal/regionresult"

// axisScale linearly maps one parameter's domain onto [0, size] canvas
// units, optionally inverted.
type axisScale struct {
	min    float64
	span   float64
	size   float64
	invert bool
}

func newAxisScale(p regionresult.Parameter, size float64, invert bool) axisScale {
	return axisScale{min: p.Min, span: p.Span(), size: size, invert: invert}
}

func (a axisScale) pos(v float64) float64 {
	t := (v - a.min) / a.span
	if a.invert {
		t = 1 - t
	}
	return t * a.size
}

// transform maps data coordinates onto the canvas. It is the single
// source of truth for data-space geometry: region shapes and tick
// positions go through the same two scales so they cannot drift apart.
type transform struct {
	x axisScale
	y axisScale
}

// point maps one data-space coordinate pair.
func (tr transform) point(x, y float64) (float64, float64) {
	return tr.x.pos(x), tr.y.pos(y)
}
