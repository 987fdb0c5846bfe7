package numeric

import (
	"math"
	"regexp"
	"strconv"
	"unicode"
)

// literalPattern matches the numeric literals produced by Convert plus any
// ASCII numbers already present in the recognized text.
var literalPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Candidate is a numeric literal located in converted text, before or after
// filtering.
type Candidate struct {
	// Raw is the literal as it appears in the converted text.
	Raw string

	// Start and End are rune offsets of the literal within the converted text.
	Start, End int

	// Value is the parsed numeric value.
	Value float64
}

// RejectReason classifies why a candidate was filtered out.
type RejectReason string

const (
	// RejectContextNoise marks an exact multiple of 100 with enough
	// surrounding context to be an incidental number, not a measurement.
	RejectContextNoise RejectReason = "context-noise"

	// RejectCommandEcho marks a multiple of 100 that also matches the
	// set-context command pattern; it already became a command upstream and
	// must not double-count as a measurement.
	RejectCommandEcho RejectReason = "command-echo"

	// RejectOutOfRange marks a value outside the configured bounds. The
	// candidate is discarded and reported, never silently clamped.
	RejectOutOfRange RejectReason = "out-of-range"
)

// Rejection pairs a filtered-out candidate with the reason.
type Rejection struct {
	Candidate Candidate
	Reason    RejectReason
}

// Config holds the filtering constants.
type Config struct {
	// MinValue and MaxValue bound accepted measurements. When both are zero
	// no range check is applied.
	MinValue, MaxValue float64

	// NoiseContextLen is the combined surrounding-context length (in
	// non-numeric, non-space runes) at which an exact multiple of 100 is
	// treated as contextual noise. Default: 2.
	NoiseContextLen int

	// IsSetContext reports whether text matches the set-context command
	// pattern. Used to reject multiples of 100 that already became a command.
	// May be nil, in which case the check is skipped.
	IsSetContext func(text string) bool
}

// Extractor applies the strict validation algorithm to recognized text.
// It is read-only after construction and safe for concurrent use.
type Extractor struct {
	cfg Config
}

// NewExtractor returns an Extractor with the supplied configuration.
// A zero NoiseContextLen defaults to 2.
func NewExtractor(cfg Config) *Extractor {
	if cfg.NoiseContextLen <= 0 {
		cfg.NoiseContextLen = 2
	}
	return &Extractor{cfg: cfg}
}

// Extract converts spoken numbers in text to literals and returns the
// candidates that survive filtering, plus the rejections for observability.
//
// The anti-false-positive contract:
//
//  1. An exact multiple of 100 whose combined left+right context length
//     reaches NoiseContextLen is contextual noise — "吃饭二百" converts to
//     "吃饭200", the 200 has two characters of left context, and is dropped.
//  2. A multiple of 100 that also matches the set-context command pattern is
//     dropped as a command echo.
//  3. Values outside [MinValue, MaxValue] are dropped as out of range.
//
// Pure standalone numerals and non-multiples of 100 pass through.
func (e *Extractor) Extract(text string) (accepted []Candidate, rejected []Rejection) {
	converted := Convert(text)
	candidates := locate(converted)

	for _, c := range candidates {
		if isHundredMultiple(c.Value) {
			if contextLen(converted, candidates, c) >= e.cfg.NoiseContextLen {
				rejected = append(rejected, Rejection{c, RejectContextNoise})
				continue
			}
			if e.cfg.IsSetContext != nil && e.cfg.IsSetContext(text) {
				rejected = append(rejected, Rejection{c, RejectCommandEcho})
				continue
			}
		}
		if e.outOfRange(c.Value) {
			rejected = append(rejected, Rejection{c, RejectOutOfRange})
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted, rejected
}

// isHundredMultiple reports whether v is an exact (integral) multiple of 100.
func isHundredMultiple(v float64) bool {
	if v != math.Trunc(v) {
		return false
	}
	return math.Mod(math.Abs(v), 100) == 0
}

func (e *Extractor) outOfRange(v float64) bool {
	if e.cfg.MinValue == 0 && e.cfg.MaxValue == 0 {
		return false
	}
	return v < e.cfg.MinValue || v > e.cfg.MaxValue
}

// locate finds every numeric literal in converted text, with rune offsets.
func locate(converted string) []Candidate {
	runes := []rune(converted)
	// Work on the rune slice so offsets are rune-based regardless of the
	// multi-byte characters around the literals.
	var out []Candidate
	for i := 0; i < len(runes); {
		if !isLiteralStart(runes, i) {
			i++
			continue
		}
		j := i
		if runes[j] == '-' {
			j++
		}
		for j < len(runes) && (unicode.IsDigit(runes[j]) || (runes[j] == '.' && j+1 < len(runes) && unicode.IsDigit(runes[j+1]) && !hasDot(runes[i:j]))) {
			j++
		}
		raw := string(runes[i:j])
		if literalPattern.MatchString(raw) {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				out = append(out, Candidate{Raw: raw, Start: i, End: j, Value: v})
			}
		}
		i = j
	}
	return out
}

func isLiteralStart(runes []rune, i int) bool {
	if unicode.IsDigit(runes[i]) {
		return true
	}
	return runes[i] == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])
}

func hasDot(runes []rune) bool {
	for _, r := range runes {
		if r == '.' {
			return true
		}
	}
	return false
}

// contextLen counts the surrounding non-numeric runes for a candidate: every
// rune in the sentence that is not part of any numeric literal and not
// whitespace, split into the portion left and right of the candidate and
// summed.
func contextLen(converted string, all []Candidate, c Candidate) int {
	runes := []rune(converted)

	inLiteral := make([]bool, len(runes))
	for _, cand := range all {
		for i := cand.Start; i < cand.End && i < len(runes); i++ {
			inLiteral[i] = true
		}
	}

	count := 0
	for i, r := range runes {
		if i >= c.Start && i < c.End {
			continue
		}
		if inLiteral[i] || unicode.IsSpace(r) {
			continue
		}
		count++
	}
	return count
}
