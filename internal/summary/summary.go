// Package summary computes coverage statistics for a parsed result
// document: how much of the parameter space each outcome accounts for.
package summary

import (
	"errors"
	"fmt"
	"strings"

	"regiontikz/internal/regionresult"
)

// LabelStat aggregates the regions sharing one discrete outcome.
type LabelStat struct {
	Label    regionresult.Label
	Regions  int
	Volume   float64
	Fraction float64 // share of the parameter-space volume
}

// ContinuousStats aggregates regions with numeric outcomes.
type ContinuousStats struct {
	Regions  int
	Min      float64
	Max      float64
	Mean     float64 // volume-weighted; plain mean when all regions are degenerate
	Volume   float64
	Fraction float64
}

// Stats describes how a document's regions cover its parameter space.
// Regions are assumed disjoint; overlapping inputs push Coverage past 1.
type Stats struct {
	Title       string
	Parameters  []regionresult.Parameter
	Regions     int
	SpaceVolume float64
	Covered     float64
	Coverage    float64
	Labels      []LabelStat
	Continuous  *ContinuousStats
}

// Compute derives coverage statistics from a parsed document.
func Compute(doc *regionresult.ResultDocument) (*Stats, error) {
	if doc == nil {
		return nil, errors.New("summary: nil document")
	}

	s := &Stats{
		Title:      doc.Title,
		Parameters: doc.Space.Parameters,
		Regions:    len(doc.Regions),
	}

	s.SpaceVolume = 1
	for _, p := range doc.Space.Parameters {
		s.SpaceVolume *= p.Span()
	}

	byLabel := make(map[regionresult.Label]*LabelStat)
	var cont ContinuousStats
	var contWeighted, contSum float64

	for _, r := range doc.Regions {
		vol := 1.0
		for _, iv := range r.Bounds {
			vol *= iv.Span()
		}
		s.Covered += vol

		switch r.Outcome.Kind {
		case regionresult.OutcomeDiscrete:
			st := byLabel[r.Outcome.Label]
			if st == nil {
				st = &LabelStat{Label: r.Outcome.Label}
				byLabel[r.Outcome.Label] = st
			}
			st.Regions++
			st.Volume += vol

		case regionresult.OutcomeContinuous:
			v := r.Outcome.Value
			if cont.Regions == 0 || v < cont.Min {
				cont.Min = v
			}
			if cont.Regions == 0 || v > cont.Max {
				cont.Max = v
			}
			cont.Regions++
			cont.Volume += vol
			contWeighted += v * vol
			contSum += v
		}
	}

	for _, label := range doc.Labels() {
		if st, ok := byLabel[label]; ok {
			s.Labels = append(s.Labels, *st)
		}
	}

	if cont.Regions > 0 {
		if cont.Volume > 0 {
			cont.Mean = contWeighted / cont.Volume
		} else {
			cont.Mean = contSum / float64(cont.Regions)
		}
		s.Continuous = &cont
	}

	if s.SpaceVolume > 0 {
		s.Coverage = s.Covered / s.SpaceVolume
		for i := range s.Labels {
			s.Labels[i].Fraction = s.Labels[i].Volume / s.SpaceVolume
		}
		if s.Continuous != nil {
			s.Continuous.Fraction = s.Continuous.Volume / s.SpaceVolume
		}
	}

	return s, nil
}

// Markdown renders the statistics as a Markdown fragment.
func (s *Stats) Markdown() string {
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = "region results"
	}
	fmt.Fprintf(&b, "# Coverage: %s\n\n", title)

	names := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		names[i] = fmt.Sprintf("%s in [%g, %g]", p.Name, p.Min, p.Max)
	}
	fmt.Fprintf(&b, "**Parameters:** %s\n\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "**Regions:** %d covering %s of the parameter space\n\n",
		s.Regions, percent(s.Coverage))

	if len(s.Labels) > 0 {
		b.WriteString("| Outcome | Regions | Volume | Share |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, st := range s.Labels {
			fmt.Fprintf(&b, "| %s | %d | %.4g | %s |\n",
				st.Label, st.Regions, st.Volume, percent(st.Fraction))
		}
		b.WriteString("\n")
	}

	if s.Continuous != nil {
		c := s.Continuous
		fmt.Fprintf(&b, "**Continuous outcomes:** %d regions (%s), values in [%g, %g], volume-weighted mean %.4g\n",
			c.Regions, percent(c.Fraction), c.Min, c.Max, c.Mean)
	}

	return b.String()
}

func percent(frac float64) string {
	return fmt.Sprintf("%.1f%%", frac*100)
}
