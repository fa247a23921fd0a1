package regionresult

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// The wire format is line oriented. storm-pars prints one region per line:
//
//	AllViolated: 1/10000<=prob1<=5001/20000,1/10000<=perr<=5001/20000;
//
// i.e. an outcome token, a colon, comma-separated closed intervals (one per
// parameter, fixed order), and a terminating semicolon. Bounds are exact
// rationals ("1/10000"), decimals, or integers. A file may open with a bare
// region specification in storm's own region syntax ("0<=p<=1,0<=q<=1;",
// no outcome token), which declares the parameter space; without it the
// space is inferred from the records, the domains being the bounding box
// of everything observed.

var paramNameRE = regexp.MustCompile(`^\w+$`)

type parseOptions struct {
	allowUnknown bool
	maxRegions   int
}

// Option adjusts parser behavior.
type Option func(*parseOptions)

// WithUnknownOutcomes makes the parser accept outcome tokens outside
// storm's vocabulary as pass-through discrete labels instead of failing.
// The renderer will then require a style for each such label.
func WithUnknownOutcomes() Option {
	return func(o *parseOptions) { o.allowUnknown = true }
}

// WithMaxRegions caps how many region records a document may carry.
// Parsing fails on the first record past the cap; 0 means no cap.
func WithMaxRegions(n int) Option {
	return func(o *parseOptions) { o.maxRegions = n }
}

// Parse reads a complete region-result file. It returns a FormatError
// (wrapping ErrFormat) on the first grammar violation; the returned
// document is nil in that case.
func Parse(input string, opts ...Option) (*ResultDocument, error) {
	var po parseOptions
	for _, opt := range opts {
		opt(&po)
	}

	p := &parser{opts: po, doc: &ResultDocument{}}
	for i, raw := range strings.Split(input, "\n") {
		if err := p.line(i+1, raw); err != nil {
			return nil, err
		}
	}
	p.finish()
	return p.doc, nil
}

type parser struct {
	opts parseOptions
	doc  *ResultDocument

	declared bool // space came from a declaration line
	started  bool // at least one declaration or record seen

	// Observed bounding box per parameter, used when no declaration
	// fixes the domains.
	obsMin []float64
	obsMax []float64
}

// boundsEntry is one "lo<=name<=hi" clause.
type boundsEntry struct {
	name string
	iv   Interval
}

func (p *parser) line(n int, raw string) error {
	line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
	if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
		return nil
	}

	token, rest, hasToken := strings.Cut(line, ":")
	if !hasToken {
		return p.declaration(n, line)
	}
	return p.record(n, strings.TrimSpace(token), rest)
}

// declaration handles a bare region specification establishing the space.
func (p *parser) declaration(n int, line string) error {
	if p.started {
		return formatErrorf(n, "expected a region record (outcome token and ':' missing)")
	}
	entries, err := parseBoundsList(n, line)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.iv.Lo >= e.iv.Hi {
			return formatErrorf(n, "parameter %q declares an empty domain [%v, %v]", e.name, e.iv.Lo, e.iv.Hi)
		}
		p.doc.Space.Parameters = append(p.doc.Space.Parameters, Parameter{
			Name: e.name,
			Min:  e.iv.Lo,
			Max:  e.iv.Hi,
		})
	}
	p.declared = true
	p.started = true
	return nil
}

// record handles one "<outcome>: <bounds>;" line.
func (p *parser) record(n int, token, rest string) error {
	if token == "" {
		return formatErrorf(n, "missing outcome token before ':'")
	}
	outcome, err := p.parseOutcome(n, token)
	if err != nil {
		return err
	}

	entries, err := parseBoundsList(n, rest)
	if err != nil {
		return err
	}

	if !p.started {
		// First record fixes the parameter order.
		for _, e := range entries {
			p.doc.Space.Parameters = append(p.doc.Space.Parameters, Parameter{Name: e.name})
		}
		p.obsMin = make([]float64, len(entries))
		p.obsMax = make([]float64, len(entries))
		for i := range entries {
			p.obsMin[i] = math.Inf(1)
			p.obsMax[i] = math.Inf(-1)
		}
		p.started = true
	}

	space := p.doc.Space
	if len(entries) != space.Len() {
		return formatErrorf(n, "record has %d parameters, want %d", len(entries), space.Len())
	}

	bounds := make([]Interval, len(entries))
	for i, e := range entries {
		param := space.Parameters[i]
		if e.name != param.Name {
			return formatErrorf(n, "parameter %d is %q, want %q", i+1, e.name, param.Name)
		}
		if e.iv.Lo > e.iv.Hi {
			return formatErrorf(n, "parameter %q has inverted bounds [%v, %v]", e.name, e.iv.Lo, e.iv.Hi)
		}
		if p.declared && (e.iv.Lo < param.Min || e.iv.Hi > param.Max) {
			return formatErrorf(n, "parameter %q interval [%v, %v] outside declared domain [%v, %v]",
				e.name, e.iv.Lo, e.iv.Hi, param.Min, param.Max)
		}
		if !p.declared {
			p.obsMin[i] = math.Min(p.obsMin[i], e.iv.Lo)
			p.obsMax[i] = math.Max(p.obsMax[i], e.iv.Hi)
		}
		bounds[i] = e.iv
	}

	if p.opts.maxRegions > 0 && len(p.doc.Regions) >= p.opts.maxRegions {
		return formatErrorf(n, "document exceeds the limit of %d regions", p.opts.maxRegions)
	}
	p.doc.Regions = append(p.doc.Regions, Region{Bounds: bounds, Outcome: outcome})
	return nil
}

func (p *parser) parseOutcome(n int, token string) (Outcome, error) {
	l := Label(token)
	if l.Known() {
		return Discrete(l), nil
	}
	if v, ok := parseNumber(token); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Outcome{}, formatErrorf(n, "outcome value %q is not finite", token)
		}
		if p.doc.Values == nil {
			p.doc.Values = &ValueRange{Min: v, Max: v}
		} else {
			p.doc.Values.Min = math.Min(p.doc.Values.Min, v)
			p.doc.Values.Max = math.Max(p.doc.Values.Max, v)
		}
		return Continuous(v), nil
	}
	if p.opts.allowUnknown {
		return Discrete(l), nil
	}
	return Outcome{}, formatErrorf(n, "unknown outcome %q", token)
}

// finish backfills inferred domains from the observed bounding box.
func (p *parser) finish() {
	if p.declared {
		return
	}
	for i := range p.doc.Space.Parameters {
		p.doc.Space.Parameters[i].Min = p.obsMin[i]
		p.doc.Space.Parameters[i].Max = p.obsMax[i]
	}
}

// parseBoundsList parses "lo<=name<=hi(,lo<=name<=hi)*;". The trailing
// semicolon is mandatory; parameter names within one list must be unique.
func parseBoundsList(n int, s string) ([]boundsEntry, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ";") {
		return nil, formatErrorf(n, "missing terminating ';'")
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, formatErrorf(n, "empty bounds list")
	}

	parts := strings.Split(s, ",")
	entries := make([]boundsEntry, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, "<=")
		if len(fields) != 3 {
			return nil, formatErrorf(n, "malformed interval %q, want lo<=name<=hi", strings.TrimSpace(part))
		}
		name := strings.TrimSpace(fields[1])
		if !paramNameRE.MatchString(name) {
			return nil, formatErrorf(n, "invalid parameter name %q", name)
		}
		if seen[name] {
			return nil, formatErrorf(n, "duplicate parameter %q", name)
		}
		seen[name] = true

		lo, ok := parseNumber(strings.TrimSpace(fields[0]))
		if !ok {
			return nil, formatErrorf(n, "invalid bound %q for parameter %q", strings.TrimSpace(fields[0]), name)
		}
		hi, ok := parseNumber(strings.TrimSpace(fields[2]))
		if !ok {
			return nil, formatErrorf(n, "invalid bound %q for parameter %q", strings.TrimSpace(fields[2]), name)
		}
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil, formatErrorf(n, "bound for parameter %q is not finite", name)
		}
		entries = append(entries, boundsEntry{name: name, iv: Interval{Lo: lo, Hi: hi}})
	}
	return entries, nil
}

// parseNumber parses storm's numeric spellings: exact rationals
// ("1/10000"), decimals, integers, and exponent forms. Rationals stay
// exact until the single conversion to float64. Exponent forms go through
// strconv so an absurd exponent cannot make big.Rat materialize it.
func parseNumber(s string) (float64, bool) {
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		// Out-of-range values come back as ±Inf and are rejected by the
		// caller's finiteness check, with a better message than "invalid".
		return f, true
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, false
	}
	f, _ := r.Float64()
	return f, true
}
