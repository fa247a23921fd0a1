package tikz

import (
	"strconv"
	"strings"
)

var texEscaper = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"_", `\_`,
)

// escapeTeX makes free text safe for TeX node content. Parameter names
// and file-derived titles mostly need the underscore, but the other
// specials would silently corrupt the document, so they are covered too.
func escapeTeX(s string) string {
	return texEscaper.Replace(s)
}

// fmtCoord renders a canvas coordinate with the configured precision.
// Fixed-point keeps the output byte-stable across platforms.
func fmtCoord(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	// FormatFloat prints a negative zero; ticks at the origin would
	// otherwise read "-0.0000".
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}

// fmtTick renders a tick label value.
func fmtTick(v float64, precision int) string {
	return fmtCoord(v, precision)
}

// fmtValue renders a continuous outcome value for legend annotations.
func fmtValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// fmtLineWidth renders a line width in mm without trailing zeros.
func fmtLineWidth(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
