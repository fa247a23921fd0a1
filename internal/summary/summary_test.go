package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regiontikz/internal/regionresult"
)

func mustParse(t *testing.T, input string) *regionresult.ResultDocument {
	t.Helper()
	doc, err := regionresult.Parse(input)
	require.NoError(t, err)
	return doc
}

func TestCompute_Discrete(t *testing.T) {
	doc := mustParse(t, `
AllViolated: 1/2<=p<=1,0<=q<=1;
AllSat: 0<=p<=1/4,0<=q<=1;
AllSat: 1/4<=p<=1/2,0<=q<=1/2;
`)
	doc.Title = "grid"

	s, err := Compute(doc)
	require.NoError(t, err)

	assert.Equal(t, "grid", s.Title)
	assert.Equal(t, 3, s.Regions)
	assert.InDelta(t, 1.0, s.SpaceVolume, 1e-12)
	assert.InDelta(t, 0.875, s.Covered, 1e-12)
	assert.InDelta(t, 0.875, s.Coverage, 1e-12)
	assert.Nil(t, s.Continuous)

	// Known labels come out in vocabulary order regardless of input order.
	require.Len(t, s.Labels, 2)
	assert.Equal(t, regionresult.LabelAllSat, s.Labels[0].Label)
	assert.Equal(t, 2, s.Labels[0].Regions)
	assert.InDelta(t, 0.375, s.Labels[0].Volume, 1e-12)
	assert.InDelta(t, 0.375, s.Labels[0].Fraction, 1e-12)

	assert.Equal(t, regionresult.LabelAllViolated, s.Labels[1].Label)
	assert.InDelta(t, 0.5, s.Labels[1].Volume, 1e-12)
}

func TestCompute_Continuous(t *testing.T) {
	doc := mustParse(t, `
1/4: 0<=p<=1/2,0<=q<=1;
3/4: 1/2<=p<=1,0<=q<=1;
`)

	s, err := Compute(doc)
	require.NoError(t, err)
	require.NotNil(t, s.Continuous)

	c := s.Continuous
	assert.Equal(t, 2, c.Regions)
	assert.InDelta(t, 0.25, c.Min, 1e-12)
	assert.InDelta(t, 0.75, c.Max, 1e-12)
	assert.InDelta(t, 1.0, c.Volume, 1e-12)
	// Equal volumes, so the weighted mean is the midpoint.
	assert.InDelta(t, 0.5, c.Mean, 1e-12)
	assert.InDelta(t, 1.0, c.Fraction, 1e-12)
	assert.Empty(t, s.Labels)
}

func TestCompute_WeightedMean(t *testing.T) {
	doc := mustParse(t, `
0: 0<=p<=3/4,0<=q<=1;
1: 3/4<=p<=1,0<=q<=1;
`)

	s, err := Compute(doc)
	require.NoError(t, err)
	require.NotNil(t, s.Continuous)
	assert.InDelta(t, 0.25, s.Continuous.Mean, 1e-12)
}

func TestCompute_DegenerateRegions(t *testing.T) {
	doc := mustParse(t, `
AllSat: 0<=p<=1,0<=q<=1;
AllViolated: 1/2<=p<=1/2,0<=q<=1;
`)

	s, err := Compute(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Regions)
	// The line region adds nothing to coverage.
	assert.InDelta(t, 1.0, s.Covered, 1e-12)
	require.Len(t, s.Labels, 2)
	assert.Zero(t, s.Labels[1].Volume)
}

func TestCompute_AllDegenerateContinuous(t *testing.T) {
	doc := mustParse(t, `
1/4: 1/2<=p<=1/2,0<=q<=0;
3/4: 1/4<=p<=1/4,1<=q<=1;
`)

	s, err := Compute(doc)
	require.NoError(t, err)
	require.NotNil(t, s.Continuous)
	// No volume to weight by; falls back to the plain mean.
	assert.InDelta(t, 0.5, s.Continuous.Mean, 1e-12)
}

func TestCompute_NilDocument(t *testing.T) {
	_, err := Compute(nil)
	assert.Error(t, err)
}

func TestCompute_EmptySpace(t *testing.T) {
	doc := mustParse(t, "0<=p<=1,0<=q<=1;\n")
	s, err := Compute(doc)
	require.NoError(t, err)
	assert.Zero(t, s.Regions)
	assert.Zero(t, s.Coverage)
	assert.Empty(t, s.Labels)
}

func TestMarkdown(t *testing.T) {
	doc := mustParse(t, `
AllSat: 0<=p<=1/2,0<=q<=1;
AllViolated: 1/2<=p<=1,0<=q<=1;
1/4: 0<=p<=1,0<=q<=0;
`)
	doc.Title = "dice_model"

	s, err := Compute(doc)
	require.NoError(t, err)
	md := s.Markdown()

	assert.Contains(t, md, "# Coverage: dice_model")
	assert.Contains(t, md, "p in [0, 1], q in [0, 1]")
	assert.Contains(t, md, "**Regions:** 3 covering 100.0% of the parameter space")
	assert.Contains(t, md, "| AllSat | 1 | 0.5 | 50.0% |")
	assert.Contains(t, md, "| AllViolated | 1 | 0.5 | 50.0% |")
	assert.Contains(t, md, "**Continuous outcomes:** 1 regions (0.0%)")
}

func TestMarkdown_UntitledDocument(t *testing.T) {
	doc := mustParse(t, "AllSat: 0<=p<=1,0<=q<=1;\n")
	s, err := Compute(doc)
	require.NoError(t, err)
	assert.Contains(t, s.Markdown(), "# Coverage: region results")
}
