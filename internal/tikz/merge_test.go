package tikz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regiontikz/internal/regionresult"
)

func box(outcome regionresult.Outcome, bounds ...regionresult.Interval) regionresult.Region {
	return regionresult.Region{Outcome: outcome, Bounds: bounds}
}

func iv(lo, hi float64) regionresult.Interval { return regionresult.Interval{Lo: lo, Hi: hi} }

// area sums the 2D area covered, counting overlaps twice; the merge pass
// never introduces or removes coverage on disjoint inputs.
func area(regions []regionresult.Region) float64 {
	var sum float64
	for _, r := range regions {
		sum += r.Bounds[0].Span() * r.Bounds[1].Span()
	}
	return sum
}

func TestMergeRegions_Halves(t *testing.T) {
	sat := regionresult.Discrete(regionresult.LabelAllSat)
	in := []regionresult.Region{
		box(sat, iv(0, 0.5), iv(0, 1)),
		box(sat, iv(0.5, 1), iv(0, 1)),
	}

	out := mergeRegions(in)
	require.Len(t, out, 1)
	assert.Equal(t, box(sat, iv(0, 1), iv(0, 1)), out[0])
	assert.Equal(t, area(in), area(out))
}

func TestMergeRegions_Quadrants(t *testing.T) {
	sat := regionresult.Discrete(regionresult.LabelAllSat)
	in := []regionresult.Region{
		box(sat, iv(0, 0.5), iv(0, 0.5)),
		box(sat, iv(0.5, 1), iv(0, 0.5)),
		box(sat, iv(0, 0.5), iv(0.5, 1)),
		box(sat, iv(0.5, 1), iv(0.5, 1)),
	}

	out := mergeRegions(in)
	require.Len(t, out, 1)
	assert.Equal(t, box(sat, iv(0, 1), iv(0, 1)), out[0])
	assert.Equal(t, 1.0, area(out))
}

func TestMergeRegions_KeepsDistinctOutcomes(t *testing.T) {
	in := []regionresult.Region{
		box(regionresult.Discrete(regionresult.LabelAllSat), iv(0, 0.5), iv(0, 1)),
		box(regionresult.Discrete(regionresult.LabelAllViolated), iv(0.5, 1), iv(0, 1)),
	}

	out := mergeRegions(in)
	assert.Len(t, out, 2)
	assert.Equal(t, in, out)
}

func TestMergeRegions_NoMergeAcrossGap(t *testing.T) {
	sat := regionresult.Discrete(regionresult.LabelAllSat)
	in := []regionresult.Region{
		box(sat, iv(0, 0.25), iv(0, 1)),
		box(sat, iv(0.5, 1), iv(0, 1)),
	}

	out := mergeRegions(in)
	assert.Len(t, out, 2)
}

func TestMergeRegions_DiagonalNotAdjacent(t *testing.T) {
	sat := regionresult.Discrete(regionresult.LabelAllSat)
	in := []regionresult.Region{
		box(sat, iv(0, 0.5), iv(0, 0.5)),
		box(sat, iv(0.5, 1), iv(0.5, 1)),
	}

	out := mergeRegions(in)
	assert.Len(t, out, 2, "regions touching only at a corner differ on two axes")
}

func TestMergeRegions_ContinuousValuesMustMatch(t *testing.T) {
	in := []regionresult.Region{
		box(regionresult.Continuous(0.5), iv(0, 0.5), iv(0, 1)),
		box(regionresult.Continuous(0.25), iv(0.5, 1), iv(0, 1)),
		box(regionresult.Continuous(0.25), iv(0.5, 1), iv(1, 2)),
	}

	out := mergeRegions(in)
	require.Len(t, out, 2)
	assert.Equal(t, box(regionresult.Continuous(0.25), iv(0.5, 1), iv(0, 2)), out[1])
}

func TestMergeRegions_CollapsesDuplicates(t *testing.T) {
	sat := regionresult.Discrete(regionresult.LabelAllSat)
	in := []regionresult.Region{
		box(sat, iv(0, 1), iv(0, 1)),
		box(sat, iv(0, 1), iv(0, 1)),
	}

	out := mergeRegions(in)
	assert.Len(t, out, 1)
}

func TestRender_MergeAdjacent(t *testing.T) {
	input := `0<=p<=1,0<=q<=1;
AllSat: 0<=p<=1/2,0<=q<=1;
AllSat: 1/2<=p<=1,0<=q<=1;
AllViolated: 0<=p<=1,0<=q<=1;
`
	doc := mustParse(t, input)
	cfg := fragmentConfig()
	cfg.MergeAdjacent = true

	out, err := Render(doc, cfg)
	require.NoError(t, err)

	assert.Contains(t, out,
		`\draw [pattern=crosshatch dots,pattern color=green,preaction={fill,green!30},line width = 0mm] (0.0000,0.0000) rectangle (8.0000,8.0000);`)
	assert.Equal(t, 2, strings.Count(out, "rectangle (8.0000,8.0000);"),
		"the two AllSat halves must merge into one rectangle")
}
