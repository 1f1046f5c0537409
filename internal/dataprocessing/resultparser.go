package dataprocessing

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparseableResult marks a raw result string that yields no numeric value.
// Callers skip and count such rows; the error is never fatal to a run.
var ErrUnparseableResult = errors.New("unparseable result")

// Comparison records the inequality operator found on a raw result.
// The emitted value is always the bare magnitude: `<1` and `>5` collapse to
// 1 and 5 for compatibility with the historical reports. Strict mode keeps
// the operator as an annotation instead of discarding it.
type Comparison int

const (
	CompareNone Comparison = iota
	CompareLess
	CompareGreater
)

func (c Comparison) String() string {
	switch c {
	case CompareLess:
		return "<"
	case CompareGreater:
		return ">"
	default:
		return ""
	}
}

// DefaultUnitSuffixes lists the unit suffixes stripped from raw results.
var DefaultUnitSuffixes = []string{
	"cfu/100ml",
	"cfu/ml",
	"mg/l",
	"ug/l",
	"µg/l",
	"ntu",
	"ph units",
	"us/cm",
	"µs/cm",
}

// DefaultNonDetectTokens lists the tokens treated as non-detect readings.
// A non-detect is conventionally recorded as zero.
var DefaultNonDetectTokens = []string{
	"nd", "n/d", "not detected", "bdl", "below detection", "na", "n/a",
}

// thousandsPattern matches a signed number using comma thousand separators,
// e.g. "1,234" or "-12,345,678.9".
var thousandsPattern = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ResultParser turns messy free-text lab results into numeric values.
// All configuration is explicit; the parser holds no global state.
type ResultParser struct {
	suffixes []string
	zero     map[string]struct{}
	strict   bool
}

// NewResultParser builds a parser from the given suffix and non-detect sets.
// Empty slices fall back to the defaults.
func NewResultParser(unitSuffixes, nonDetectTokens []string, strict bool) *ResultParser {
	if len(unitSuffixes) == 0 {
		unitSuffixes = DefaultUnitSuffixes
	}
	if len(nonDetectTokens) == 0 {
		nonDetectTokens = DefaultNonDetectTokens
	}

	suffixes := make([]string, len(unitSuffixes))
	for i, s := range unitSuffixes {
		suffixes[i] = strings.ToLower(strings.TrimSpace(s))
	}
	zero := make(map[string]struct{}, len(nonDetectTokens))
	for _, tok := range nonDetectTokens {
		zero[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
	}

	return &ResultParser{suffixes: suffixes, zero: zero, strict: strict}
}

// Parse extracts a numeric value from a raw result string.
// Rules are applied in order: unit suffix stripping, non-detect tokens,
// comparison prefixes, thousand separators, then a standard decimal parse.
// Failure returns ErrUnparseableResult.
func (p *ResultParser) Parse(raw string) (float64, Comparison, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, CompareNone, ErrUnparseableResult
	}

	s = p.stripSuffix(s)

	if _, ok := p.zero[strings.ToLower(s)]; ok {
		return 0, CompareNone, nil
	}

	cmp := CompareNone
	switch {
	case strings.HasPrefix(s, "<"):
		cmp = CompareLess
		s = strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, ">"):
		cmp = CompareGreater
		s = strings.TrimSpace(s[1:])
	}
	if !p.strict {
		// Compatibility mode discards the operator entirely.
		cmp = CompareNone
	}

	s = stripThousands(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, CompareNone, ErrUnparseableResult
	}
	return v, cmp, nil
}

// stripSuffix removes a trailing unit suffix, case-insensitively.
func (p *ResultParser) stripSuffix(s string) string {
	lower := strings.ToLower(s)
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}

// stripThousands removes comma thousand separators and embedded grouping
// spaces ("10 000"). Commas that are not digit-group separators are kept.
func stripThousands(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	if thousandsPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}
