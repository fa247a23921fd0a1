package tikz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeTeX(t *testing.T) {
	assert.Equal(t, `prob\_1`, escapeTeX("prob_1"))
	assert.Equal(t, `50\% \& \#3`, escapeTeX("50% & #3"))
	assert.Equal(t, "plain", escapeTeX("plain"))
}

func TestFmtCoord(t *testing.T) {
	assert.Equal(t, "4.8000", fmtCoord(4.7999999999999998, 4))
	assert.Equal(t, "0.0000", fmtCoord(math.Copysign(0, -1), 4), "negative zero must not leak")
	assert.Equal(t, "-0.1000", fmtCoord(-0.1, 4))
	assert.Equal(t, "2", fmtCoord(2.4, 0))
}

func TestFmtValue(t *testing.T) {
	assert.Equal(t, "0.125", fmtValue(0.125))
	assert.Equal(t, "1e-07", fmtValue(1e-7))
	assert.Equal(t, "0.3333", fmtValue(1.0/3.0))
}

func TestFmtLineWidth(t *testing.T) {
	assert.Equal(t, "0", fmtLineWidth(0))
	assert.Equal(t, "0.5", fmtLineWidth(0.5))
	assert.Equal(t, "1.25", fmtLineWidth(1.25))
}
