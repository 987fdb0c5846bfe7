// Package numeric converts spoken-number text to numeric literals and applies
// the strict contextual filtering that decides which numbers are measurements
// and which are incidental speech.
//
// The converter understands Chinese numeral words (一 二 三 … 十 百 千 万 亿,
// with 负 for negatives and 点 for decimals) alongside ASCII digits, including
// compound concatenated forms: a run like 一千二三百 reads as two separate
// values, 1200 and 300, because a second bare digit after a unit (or a unit
// that does not descend) cannot extend the number in progress and instead
// starts a new one. 零 is the exception: it marks a skipped unit inside one
// number (一百零五 → 105), never the start of the next.
package numeric

import (
	"strconv"
	"strings"
)

// zhDigits maps Chinese digit runes to their values.
var zhDigits = map[rune]int64{
	'零': 0, '〇': 0,
	'一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// zhSmallUnits maps the sub-myriad unit runes.
var zhSmallUnits = map[rune]int64{
	'十': 10, '百': 100, '千': 1000,
}

// zhBigUnits maps the grouping unit runes.
var zhBigUnits = map[rune]int64{
	'万': 10_000, '亿': 100_000_000,
}

const (
	runeNegative = '负'
	runePoint    = '点'
)

// Convert rewrites every spoken-number run in text as ASCII numeric literals,
// leaving all other characters in place. Runs that split into multiple values
// are emitted space-separated, e.g. "一千二三百" → "1200 300".
func Convert(text string) string {
	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(runes); {
		start, end := numeralRun(runes, i)
		if start < 0 {
			out.WriteRune(runes[i])
			i++
			continue
		}
		out.WriteString(strings.Join(parseRun(runes[start:end]), " "))
		i = end
	}
	return out.String()
}

// numeralRun returns the [start, end) bounds of a spoken-number run beginning
// at position i, or (-1, -1) when runes[i] does not start one. 负 starts a
// run only when followed by a numeral; 点 extends a run only between numerals.
func numeralRun(runes []rune, i int) (int, int) {
	isNumeral := func(r rune) bool {
		if _, ok := zhDigits[r]; ok {
			return true
		}
		if _, ok := zhSmallUnits[r]; ok {
			return true
		}
		_, ok := zhBigUnits[r]
		return ok
	}

	start := i
	if runes[i] == runeNegative {
		if i+1 >= len(runes) || !isNumeral(runes[i+1]) {
			return -1, -1
		}
		i++
	} else if !isNumeral(runes[i]) {
		return -1, -1
	}

	end := i
	for end < len(runes) {
		r := runes[end]
		if isNumeral(r) {
			end++
			continue
		}
		if r == runePoint && end+1 < len(runes) {
			if _, ok := zhDigits[runes[end+1]]; ok {
				end++
				continue
			}
		}
		break
	}
	return start, end
}

// runNumber accumulates one number while a run is parsed.
type runNumber struct {
	neg        bool
	total      int64 // completed myriad groups
	section    int64 // current sub-myriad section
	pending    int64 // digits awaiting a unit
	hasPending bool
	implicit   int64 // unit implied for a trailing digit (last unit / 10)
	zeroGap    bool  // 零 seen after a unit; next digit lands at the ones
	lastSmall  int64 // last small unit used in the current section
	anyUnit    bool
	inFrac     bool
	frac       []rune
	started    bool
}

// value renders the number, applying the trailing-digit implicit unit
// (一千二 → 1200, 二百三 → 230).
func (n *runNumber) value(includePending bool) string {
	v := n.total + n.section
	if includePending && n.hasPending {
		mult := n.implicit
		if mult < 1 {
			mult = 1
		}
		v += n.pending * mult
	}

	var b strings.Builder
	if n.neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(v, 10))
	if len(n.frac) > 0 {
		b.WriteByte('.')
		b.WriteString(string(n.frac))
	}
	return b.String()
}

// parseRun converts one contiguous numeral run into one or more decimal
// literals. Splits happen when a token cannot extend the number in progress:
// a second bare digit after unit context, or a unit that does not descend.
func parseRun(runes []rune) []string {
	var results []string
	cur := &runNumber{}

	flush := func(includePending bool) {
		if cur.started {
			results = append(results, cur.value(includePending))
		}
		cur = &runNumber{}
	}

	for _, r := range runes {
		switch {
		case r == runeNegative:
			if cur.started {
				flush(true)
			}
			cur.neg = true
			cur.started = true

		case r == runePoint:
			cur.started = true
			// Fold pending digits in as ones before the fraction (十二点五 → 12.5).
			if cur.hasPending {
				cur.section += cur.pending
				cur.pending = 0
				cur.hasPending = false
			}
			cur.inFrac = true

		default:
			if d, ok := zhDigits[r]; ok {
				cur.started = true
				switch {
				case cur.inFrac:
					cur.frac = append(cur.frac, rune('0'+d))
				case d == 0 && cur.anyUnit && !cur.hasPending:
					// Interior zero (一百零五): the units between here and
					// the next digit are skipped, the number continues.
					cur.zeroGap = true
				case cur.anyUnit && cur.hasPending:
					// Second bare digit after unit context: the number in
					// progress is complete, this digit begins the next one.
					flush(true)
					cur.started = true
					cur.pending = d
					cur.hasPending = true
				case cur.hasPending:
					// Digit-by-digit reading without units (一二三 → 123).
					cur.pending = cur.pending*10 + d
				default:
					cur.pending = d
					cur.hasPending = true
					if cur.zeroGap {
						// After 零 a trailing digit is ones, not the next
						// unit down (一百零五 → 105, not 150).
						cur.implicit = 1
						cur.zeroGap = false
					}
				}
				continue
			}

			if u, ok := zhSmallUnits[r]; ok {
				if cur.inFrac {
					flush(true)
				}
				cur.started = true
				if cur.anyUnit && cur.lastSmall != 0 && u >= cur.lastSmall {
					// Unit does not descend (二百三百): finish the current
					// number, the pending digit carries into the next.
					p, hasP := cur.pending, cur.hasPending
					flush(false)
					cur.started = true
					cur.pending, cur.hasPending = p, hasP
				}
				mult := int64(1)
				if cur.hasPending {
					mult = cur.pending
				}
				cur.section += mult * u
				cur.pending = 0
				cur.hasPending = false
				cur.lastSmall = u
				cur.anyUnit = true
				cur.implicit = u / 10
				continue
			}

			if b, ok := zhBigUnits[r]; ok {
				if cur.inFrac {
					flush(true)
				}
				cur.started = true
				if cur.hasPending {
					cur.section += cur.pending
					cur.pending = 0
					cur.hasPending = false
				}
				if cur.section == 0 {
					cur.section = 1
				}
				cur.total += cur.section * b
				cur.section = 0
				cur.lastSmall = 0
				cur.anyUnit = true
				cur.implicit = b / 10
			}
		}
	}
	flush(true)
	return results
}
