// Package regionresult parses the region refinement output of storm-pars
// (--resultfile dumps, conventionally *.regionresult) into a structured
// document: an ordered parameter space plus the list of analyzed regions,
// each tagged with its verification outcome.
package regionresult

import "fmt"

// Label is a discrete region outcome as storm-pars prints it.
type Label string

// Storm's RegionResult vocabulary.
const (
	LabelAllSat         Label = "AllSat"
	LabelExistsSat      Label = "ExistsSat"
	LabelCenterSat      Label = "CenterSat"
	LabelExistsBoth     Label = "ExistsBoth"
	LabelCenterViolated Label = "CenterViolated"
	LabelExistsViolated Label = "ExistsViolated"
	LabelAllViolated    Label = "AllViolated"
	LabelAllIllDefined  Label = "AllIllDefined"
	LabelUnknown        Label = "Unknown"
)

// KnownLabels lists the vocabulary in canonical presentation order:
// satisfied families first, violated families after, undecided last.
// Legends and summaries iterate in this order so output is stable.
var KnownLabels = []Label{
	LabelAllSat,
	LabelCenterSat,
	LabelExistsSat,
	LabelExistsBoth,
	LabelExistsViolated,
	LabelCenterViolated,
	LabelAllViolated,
	LabelAllIllDefined,
	LabelUnknown,
}

// Known reports whether l is part of storm's RegionResult vocabulary.
func (l Label) Known() bool {
	for _, k := range KnownLabels {
		if l == k {
			return true
		}
	}
	return false
}

// OutcomeKind tags the two outcome variants.
type OutcomeKind int

const (
	// OutcomeDiscrete is a verdict label (AllSat, ExistsViolated, ...).
	OutcomeDiscrete OutcomeKind = iota
	// OutcomeContinuous is a numeric bound computed for the region.
	OutcomeContinuous
)

// Outcome is the tagged result attached to a region. Exactly one of Label
// and Value is meaningful, selected by Kind.
type Outcome struct {
	Kind  OutcomeKind
	Label Label   // set when Kind == OutcomeDiscrete
	Value float64 // set when Kind == OutcomeContinuous
}

// Discrete builds a discrete outcome.
func Discrete(l Label) Outcome { return Outcome{Kind: OutcomeDiscrete, Label: l} }

// Continuous builds a continuous outcome.
func Continuous(v float64) Outcome { return Outcome{Kind: OutcomeContinuous, Value: v} }

func (o Outcome) String() string {
	if o.Kind == OutcomeContinuous {
		return fmt.Sprintf("%g", o.Value)
	}
	return string(o.Label)
}

// Parameter is one dimension of the parameter space with its domain.
type Parameter struct {
	Name string
	Min  float64
	Max  float64
}

// Span returns the width of the parameter's domain.
func (p Parameter) Span() float64 { return p.Max - p.Min }

// ParameterSpace is the ordered set of parameters a document ranges over.
// The order is the column order of every region record.
type ParameterSpace struct {
	Parameters []Parameter
}

// Len returns the number of parameters.
func (s ParameterSpace) Len() int { return len(s.Parameters) }

// Index returns the position of the named parameter, or -1.
func (s ParameterSpace) Index(name string) int {
	for i, p := range s.Parameters {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the parameter names in space order.
func (s ParameterSpace) Names() []string {
	names := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		names[i] = p.Name
	}
	return names
}

// Interval is a closed interval on one parameter. Lo == Hi is a valid
// degenerate interval (a slice through the space).
type Interval struct {
	Lo float64
	Hi float64
}

// Degenerate reports whether the interval has collapsed to a point.
func (iv Interval) Degenerate() bool { return iv.Lo == iv.Hi }

// Span returns Hi - Lo.
func (iv Interval) Span() float64 { return iv.Hi - iv.Lo }

// Contains reports whether v lies in the closed interval.
func (iv Interval) Contains(v float64) bool { return iv.Lo <= v && v <= iv.Hi }

// Region is one axis-aligned box of the refinement, with one interval per
// parameter (positional, in space order) and its outcome.
type Region struct {
	Bounds  []Interval
	Outcome Outcome
}

// ValueRange is the observed range of continuous outcome values.
type ValueRange struct {
	Min float64
	Max float64
}

// ResultDocument is a fully parsed region-result file.
type ResultDocument struct {
	Space   ParameterSpace
	Regions []Region

	// Title is presentation metadata. The wire format carries no title;
	// callers typically derive it from the source file name.
	Title string

	// Values is the observed range across continuous outcomes,
	// nil when the document has none.
	Values *ValueRange
}

// Labels returns the distinct discrete labels appearing in the document,
// in canonical order (known vocabulary first, then unknown pass-through
// labels in first-seen order).
func (d *ResultDocument) Labels() []Label {
	seen := make(map[Label]bool)
	var extra []Label
	for _, r := range d.Regions {
		if r.Outcome.Kind != OutcomeDiscrete {
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
	var out []Label
	for _, l := range KnownLabels {
		if seen[l] {
			out = append(out, l)
		}
	}
	return append(out, extra...)
}

// HasContinuous reports whether any region carries a continuous outcome.
func (d *ResultDocument) HasContinuous() bool { return d.Values != nil }
