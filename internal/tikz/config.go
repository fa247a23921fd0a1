// Package tikz renders parsed region-result documents as TikZ pictures:
// one rectangle per region in input order, styled by outcome, with axes,
// tick marks, an optional title and an optional legend. Rendering is pure
// and deterministic; equal inputs produce byte-identical output.
package tikz

import (
	"regiontikz/internal/regionresult"
)

// Gradient configures the color scale for continuous outcomes. Low and
// High are hex colors; values are normalized against [Min, Max] when
// HasRange is set, otherwise against the document's observed value range.
type Gradient struct {
	Low      string
	High     string
	Min      float64
	Max      float64
	HasRange bool
}

// Config controls a single Render call. Zero values are not usable
// directly; start from DefaultConfig.
type Config struct {
	// Canvas size in TikZ cm units.
	Width  float64
	Height float64

	// Rendered parameters. Empty means the first two of the space.
	XParam string
	YParam string

	// Fix pins non-rendered parameters to a value: only regions whose
	// interval on a fixed parameter contains the value are drawn.
	// Non-rendered parameters left unfixed are projected away.
	Fix map[string]float64

	// Tick density: tick k of split s sits at min + span*k/s, k = 0..s.
	XSplit int
	YSplit int

	// Decimals for tick labels.
	XTickPrecision int
	YTickPrecision int

	// Decimals for emitted coordinates.
	Precision int

	// Region outline width in mm. 0 draws no visible outline, leaving
	// fills and patterns only.
	LineWidth float64

	// Styles maps discrete outcome labels to TikZ style fragments.
	// Every label appearing among the rendered regions needs an entry.
	Styles map[string]string

	Gradient Gradient

	// GradientSamples is the strip count of the legend's gradient bar.
	GradientSamples int

	Legend bool

	// Title overrides the document title; ShowTitle gates both.
	Title     string
	ShowTitle bool

	// Standalone wraps the picture in a compilable standalone document.
	Standalone bool

	InvertX bool
	InvertY bool

	// MergeAdjacent coalesces congruent neighboring regions with equal
	// outcomes before drawing. Purely an output-size optimization.
	MergeAdjacent bool
}

// DefaultConfig returns the standard settings: 8x8 canvas, 5 tick
// intervals per axis, pattern styles for the All* verdicts, legend and
// standalone wrapper on.
func DefaultConfig() Config {
	return Config{
		Width:           8,
		Height:          8,
		XSplit:          5,
		YSplit:          5,
		XTickPrecision:  1,
		YTickPrecision:  1,
		Precision:       4,
		Styles:          DefaultStyles(),
		Gradient:        Gradient{Low: "#d73027", High: "#1a9850"},
		GradientSamples: 32,
		Legend:          true,
		ShowTitle:       true,
		Standalone:      true,
	}
}

// DefaultStyles returns the conventional outcome styling: green
// crosshatch dots for AllSat, red crosshatch for AllViolated, and
// unobtrusive or empty styles for the weaker verdicts. Style fragments
// end with a comma so the emitter can append the line width directly.
func DefaultStyles() map[string]string {
	return map[string]string{
		string(regionresult.LabelAllSat):         "pattern=crosshatch dots,pattern color=green,preaction={fill,green!30},",
		string(regionresult.LabelCenterSat):      "",
		string(regionresult.LabelExistsSat):      "",
		string(regionresult.LabelExistsBoth):     "pattern=north east lines,pattern color=orange,preaction={fill,orange!20},",
		string(regionresult.LabelExistsViolated): "",
		string(regionresult.LabelCenterViolated): "",
		string(regionresult.LabelAllViolated):    "pattern=crosshatch,pattern color=red,preaction={fill,red!30},",
		string(regionresult.LabelAllIllDefined):  "preaction={fill,gray!40},",
		string(regionresult.LabelUnknown):        "",
	}
}
