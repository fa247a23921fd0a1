package tikz

import (
	"fmt"
	"sort"
	"strings"

	"regiontikz/internal/regionresult"
)

// Canvas layout constants, in cm unless noted.
const (
	axisOverhang  = 0.35 // axis arrow past the last tick
	tickLen       = 0.1
	titleOffset   = 0.6
	legendGap     = 0.6 // canvas right edge to legend column
	swatchWidth   = 0.45
	swatchHeight  = 0.3
	legendRowStep = 0.55
	barColumnGap  = 3.2 // swatch column to gradient bar in mixed documents
	minMarkWidth  = 0.3 // mm; visibility floor for degenerate region lines
)

// Render converts doc into TikZ markup under cfg. All validation happens
// up front: on error the returned string is empty and the error is a
// *RenderError wrapping ErrRender.
func Render(doc *regionresult.ResultDocument, cfg Config) (string, error) {
	s, err := newScene(doc, cfg)
	if err != nil {
		return "", err
	}
	return s.emit(), nil
}

// plotRegion is one region projected onto the rendered axes with its
// drawing attributes resolved.
type plotRegion struct {
	x       regionresult.Interval
	y       regionresult.Interval
	outcome regionresult.Outcome
	style   string // normalized style fragment for discrete outcomes
	color   string // \definecolor name for continuous outcomes
}

// scene is a fully validated render plan; emit cannot fail.
type scene struct {
	cfg     Config
	xParam  regionresult.Parameter
	yParam  regionresult.Parameter
	tr      transform
	regions []plotRegion
	colors  []string // definecolor lines, region colors then legend strips
	labels  []regionresult.Label
	scale   *colorScale
	title   string
}

func newScene(doc *regionresult.ResultDocument, cfg Config) (*scene, error) {
	if doc == nil {
		return nil, renderErrorf("nil document")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	space := doc.Space
	if space.Len() < 2 {
		return nil, renderErrorf("document has %d parameter(s), need at least 2 to draw a plane", space.Len())
	}

	for i, r := range doc.Regions {
		if len(r.Bounds) != space.Len() {
			return nil, renderErrorf("region %d has %d intervals, want %d", i+1, len(r.Bounds), space.Len())
		}
	}

	xIdx, yIdx, err := resolveAxes(space, cfg)
	if err != nil {
		return nil, err
	}
	xParam := space.Parameters[xIdx]
	yParam := space.Parameters[yIdx]
	for _, p := range []regionresult.Parameter{xParam, yParam} {
		if !(p.Span() > 0) {
			return nil, renderErrorf("parameter %q has an empty domain, nothing to draw", p.Name)
		}
	}

	fixed, err := resolveFixes(space, cfg, xIdx, yIdx)
	if err != nil {
		return nil, err
	}

	kept := filterRegions(doc.Regions, fixed)
	if cfg.MergeAdjacent {
		kept = mergeRegions(kept)
	}

	s := &scene{
		cfg:    cfg,
		xParam: xParam,
		yParam: yParam,
		tr: transform{
			x: newAxisScale(xParam, cfg.Width, cfg.InvertX),
			y: newAxisScale(yParam, cfg.Height, cfg.InvertY),
		},
		title: cfg.Title,
	}
	if s.title == "" {
		s.title = doc.Title
	}

	// Resolve drawing attributes. Continuous regions get one named color
	// each so the shape lines stay readable.
	s.labels = labelsOf(kept)
	for _, l := range s.labels {
		if _, ok := cfg.Styles[string(l)]; !ok {
			return nil, renderErrorf("no style configured for outcome %q", l)
		}
	}
	needScale := false
	for _, r := range kept {
		if r.Outcome.Kind == regionresult.OutcomeContinuous {
			needScale = true
			break
		}
	}
	if needScale {
		s.scale, err = newColorScale(cfg.Gradient, doc.Values)
		if err != nil {
			return nil, err
		}
	}

	for i, r := range kept {
		pr := plotRegion{
			x:       r.Bounds[xIdx],
			y:       r.Bounds[yIdx],
			outcome: r.Outcome,
		}
		if r.Outcome.Kind == regionresult.OutcomeContinuous {
			pr.color = fmt.Sprintf("regioncol%d", i)
			s.colors = append(s.colors, colorDefinition(pr.color, s.scale.at(r.Outcome.Value)))
		} else {
			pr.style = normalizeStyle(cfg.Styles[string(r.Outcome.Label)])
		}
		s.regions = append(s.regions, pr)
	}

	// Legend gradient bar strips.
	if s.scale != nil && cfg.Legend {
		for i := 0; i < cfg.GradientSamples; i++ {
			t := (float64(i) + 0.5) / float64(cfg.GradientSamples)
			v := s.scale.min + t*s.scale.span
			s.colors = append(s.colors, colorDefinition(fmt.Sprintf("legendcol%d", i), s.scale.at(v)))
		}
	}

	return s, nil
}

func validateConfig(cfg Config) error {
	switch {
	case !(cfg.Width > 0) || !(cfg.Height > 0):
		return renderErrorf("canvas size %gx%g is not positive", cfg.Width, cfg.Height)
	case cfg.XSplit < 1 || cfg.YSplit < 1:
		return renderErrorf("axis splits must be at least 1, got %d and %d", cfg.XSplit, cfg.YSplit)
	case cfg.XTickPrecision < 0 || cfg.YTickPrecision < 0:
		return renderErrorf("tick precisions must not be negative")
	case cfg.Precision < 0:
		return renderErrorf("coordinate precision must not be negative")
	case cfg.LineWidth < 0:
		return renderErrorf("line width must not be negative")
	case cfg.GradientSamples < 2:
		return renderErrorf("gradient bar needs at least 2 samples, got %d", cfg.GradientSamples)
	}
	return nil
}

func resolveAxes(space regionresult.ParameterSpace, cfg Config) (int, int, error) {
	xIdx, yIdx := 0, 1
	if cfg.XParam != "" {
		if xIdx = space.Index(cfg.XParam); xIdx < 0 {
			return 0, 0, renderErrorf("x parameter %q not in document", cfg.XParam)
		}
	}
	if cfg.YParam != "" {
		if yIdx = space.Index(cfg.YParam); yIdx < 0 {
			return 0, 0, renderErrorf("y parameter %q not in document", cfg.YParam)
		}
	}
	if xIdx == yIdx {
		return 0, 0, renderErrorf("x and y axes both map to parameter %q", space.Parameters[xIdx].Name)
	}
	return xIdx, yIdx, nil
}

// resolveFixes validates cfg.Fix against the space and returns the pinned
// values by parameter index.
func resolveFixes(space regionresult.ParameterSpace, cfg Config, xIdx, yIdx int) (map[int]float64, error) {
	if len(cfg.Fix) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(cfg.Fix))
	for name := range cfg.Fix {
		names = append(names, name)
	}
	sort.Strings(names)

	fixed := make(map[int]float64, len(cfg.Fix))
	for _, name := range names {
		v := cfg.Fix[name]
		idx := space.Index(name)
		if idx < 0 {
			return nil, renderErrorf("fixed parameter %q not in document", name)
		}
		if idx == xIdx || idx == yIdx {
			return nil, renderErrorf("parameter %q is a rendered axis and cannot be fixed", name)
		}
		p := space.Parameters[idx]
		if v < p.Min || v > p.Max {
			return nil, renderErrorf("fix value %v for %q outside its domain [%v, %v]", v, name, p.Min, p.Max)
		}
		fixed[idx] = v
	}
	return fixed, nil
}

func filterRegions(regions []regionresult.Region, fixed map[int]float64) []regionresult.Region {
	if len(fixed) == 0 {
		return regions
	}
	kept := make([]regionresult.Region, 0, len(regions))
	for _, r := range regions {
		include := true
		for idx, v := range fixed {
			if !r.Bounds[idx].Contains(v) {
				include = false
				break
			}
		}
		if include {
			kept = append(kept, r)
		}
	}
	return kept
}

// labelsOf returns the distinct discrete labels among regions in
// canonical order: known vocabulary first, then pass-through labels in
// first-seen order.
func labelsOf(regions []regionresult.Region) []regionresult.Label {
	seen := make(map[regionresult.Label]bool)
	var extra []regionresult.Label
	for _, r := range regions {
		if r.Outcome.Kind != regionresult.OutcomeDiscrete {
			continue
		}
		l := r.Outcome.Label
		if seen[l] {
			continue
		}
		seen[l] = true
		if !l.Known() {
			extra = append(extra, l)
		}
	}
	var out []regionresult.Label
	for _, l := range regionresult.KnownLabels {
		if seen[l] {
			out = append(out, l)
		}
	}
	return append(out, extra...)
}

// normalizeStyle guarantees a non-empty style fragment ends with a comma
// so the line width option can be appended directly.
func normalizeStyle(style string) string {
	style = strings.TrimSpace(style)
	if style == "" || strings.HasSuffix(style, ",") {
		return style
	}
	return style + ","
}

// ============================================================================
// Emission
// ============================================================================

func (s *scene) emit() string {
	var b strings.Builder

	if s.cfg.Standalone {
		b.WriteString("\\documentclass[tikz]{standalone}\n")
		b.WriteString("\\usetikzlibrary{patterns}\n")
		b.WriteString("\\begin{document}\n")
	}
	b.WriteString("\\begin{tikzpicture}\n")

	for _, line := range s.colors {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, r := range s.regions {
		s.emitRegion(&b, r)
	}

	s.emitAxes(&b)

	if s.cfg.ShowTitle && s.title != "" {
		fmt.Fprintf(&b, "\\node at (%s,%s) {%s};\n",
			s.coord(s.cfg.Width/2), s.coord(s.cfg.Height+titleOffset), escapeTeX(s.title))
	}

	if s.cfg.Legend {
		s.emitLegend(&b)
	}

	b.WriteString("\\end{tikzpicture}\n")
	if s.cfg.Standalone {
		b.WriteString("\\end{document}\n")
	}
	return b.String()
}

func (s *scene) coord(v float64) string {
	return fmtCoord(v, s.cfg.Precision)
}

func (s *scene) emitRegion(b *strings.Builder, r plotRegion) {
	x0, y0 := s.tr.point(r.x.Lo, r.y.Lo)
	x1, y1 := s.tr.point(r.x.Hi, r.y.Hi)

	style := r.style
	if r.color != "" {
		style = "fill=" + r.color + ","
	}

	switch {
	case r.x.Degenerate() && r.y.Degenerate():
		// Point slice: a solid dot, colored for continuous outcomes.
		if r.color != "" {
			fmt.Fprintf(b, "\\fill [%s] (%s,%s) circle (1.5pt);\n", r.color, s.coord(x0), s.coord(y0))
		} else {
			fmt.Fprintf(b, "\\fill (%s,%s) circle (1.5pt);\n", s.coord(x0), s.coord(y0))
		}
	case r.x.Degenerate() || r.y.Degenerate():
		// Line slice: enforce a visible stroke regardless of LineWidth.
		w := s.cfg.LineWidth
		if w < minMarkWidth {
			w = minMarkWidth
		}
		stroke := ""
		if r.color != "" {
			stroke = r.color + ","
		}
		fmt.Fprintf(b, "\\draw [%sline width = %smm] (%s,%s) -- (%s,%s);\n",
			stroke, fmtLineWidth(w), s.coord(x0), s.coord(y0), s.coord(x1), s.coord(y1))
	default:
		fmt.Fprintf(b, "\\draw [%sline width = %smm] (%s,%s) rectangle (%s,%s);\n",
			style, fmtLineWidth(s.cfg.LineWidth), s.coord(x0), s.coord(y0), s.coord(x1), s.coord(y1))
	}
}

func (s *scene) emitAxes(b *strings.Builder) {
	cfg := s.cfg
	zero := s.coord(0)

	fmt.Fprintf(b, "\\draw [->] (%s,%s) -- (%s,%s) node [right] {%s};\n",
		zero, zero, s.coord(cfg.Width+axisOverhang), zero, escapeTeX(s.xParam.Name))
	for k := 0; k <= cfg.XSplit; k++ {
		v := s.xParam.Min + s.xParam.Span()*float64(k)/float64(cfg.XSplit)
		p := s.tr.x.pos(v)
		fmt.Fprintf(b, "\\draw (%s,%s) -- (%s,%s) node [below] {%s};\n",
			s.coord(p), zero, s.coord(p), s.coord(-tickLen), fmtTick(v, cfg.XTickPrecision))
	}

	fmt.Fprintf(b, "\\draw [->] (%s,%s) -- (%s,%s) node [above] {%s};\n",
		zero, zero, zero, s.coord(cfg.Height+axisOverhang), escapeTeX(s.yParam.Name))
	for k := 0; k <= cfg.YSplit; k++ {
		v := s.yParam.Min + s.yParam.Span()*float64(k)/float64(cfg.YSplit)
		p := s.tr.y.pos(v)
		fmt.Fprintf(b, "\\draw (%s,%s) -- (%s,%s) node [left] {%s};\n",
			zero, s.coord(p), s.coord(-tickLen), s.coord(p), fmtTick(v, cfg.YTickPrecision))
	}
}

func (s *scene) emitLegend(b *strings.Builder) {
	cfg := s.cfg
	x0 := cfg.Width + legendGap

	for i, l := range s.labels {
		y := cfg.Height - swatchHeight - float64(i)*legendRowStep
		fmt.Fprintf(b, "\\draw [%sline width = 0.2mm] (%s,%s) rectangle (%s,%s);\n",
			normalizeStyle(cfg.Styles[string(l)]),
			s.coord(x0), s.coord(y), s.coord(x0+swatchWidth), s.coord(y+swatchHeight))
		fmt.Fprintf(b, "\\node [right] at (%s,%s) {%s};\n",
			s.coord(x0+swatchWidth+0.1), s.coord(y+swatchHeight/2), escapeTeX(string(l)))
	}

	if s.scale == nil {
		return
	}
	barX := x0
	if len(s.labels) > 0 {
		barX += barColumnGap
	}
	step := cfg.Height / float64(cfg.GradientSamples)
	for i := 0; i < cfg.GradientSamples; i++ {
		fmt.Fprintf(b, "\\fill [legendcol%d] (%s,%s) rectangle (%s,%s);\n",
			i, s.coord(barX), s.coord(float64(i)*step), s.coord(barX+swatchWidth), s.coord(float64(i+1)*step))
	}
	fmt.Fprintf(b, "\\draw [line width = 0.2mm] (%s,%s) rectangle (%s,%s);\n",
		s.coord(barX), s.coord(0), s.coord(barX+swatchWidth), s.coord(cfg.Height))
	fmt.Fprintf(b, "\\node [right] at (%s,%s) {%s};\n",
		s.coord(barX+swatchWidth+0.1), s.coord(0), fmtValue(s.scale.min))
	fmt.Fprintf(b, "\\node [right] at (%s,%s) {%s};\n",
		s.coord(barX+swatchWidth+0.1), s.coord(cfg.Height), fmtValue(s.scale.min+s.scale.span))
}
