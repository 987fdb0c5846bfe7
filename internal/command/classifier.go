package command

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/voxtally/voxtally/internal/numeric"
)

const (
	defaultSimilarity  = 0.85
	defaultMinMatchLen = 2
)

// defaultFillers are discourse tokens stripped before matching. Recognizers
// frequently prepend or append them to otherwise clean commands.
var defaultFillers = []string{"呃", "嗯", "啊", "那个", "um", "uh"}

var literalPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Option is a functional option for configuring a [Classifier].
type Option func(*Classifier)

// WithSimilarity sets the minimum Jaro-Winkler score for a fuzzy phrase
// match. Default: 0.85.
func WithSimilarity(threshold float64) Option {
	return func(c *Classifier) {
		c.similarity = threshold
	}
}

// WithMinMatchLen sets the minimum candidate length in runes below which
// fuzzy matching is skipped, so one- or two-character fragments cannot
// accidentally resolve to a command. Exact containment still applies.
// Default: 2.
func WithMinMatchLen(n int) Option {
	return func(c *Classifier) {
		c.minMatchLen = n
	}
}

// WithVocabulary overrides trigger phrases per kind on top of
// [DefaultVocabulary].
func WithVocabulary(v Vocabulary) Option {
	return func(c *Classifier) {
		c.vocab = merged(c.vocab, v)
	}
}

// WithFillers replaces the filler tokens stripped before matching.
func WithFillers(fillers []string) Option {
	return func(c *Classifier) {
		c.fillers = fillers
	}
}

// Command is a classified control command.
type Command struct {
	Kind Kind

	// Phrase is the vocabulary phrase that matched.
	Phrase string

	// Score is the similarity of the match, 1 for exact containment.
	Score float64

	// Value is the numeric payload of a SetContext command.
	Value float64
}

// Classifier decides whether recognized text is a control command.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	vocab       Vocabulary
	fillers     []string
	similarity  float64
	minMatchLen int
}

// New returns a Classifier over [DefaultVocabulary], adjusted by opts.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		vocab:       DefaultVocabulary(),
		fillers:     defaultFillers,
		similarity:  defaultSimilarity,
		minMatchLen: defaultMinMatchLen,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify resolves text to a command. ok is false when no command matches,
// in which case the text should continue to numeric extraction.
//
// SetContext is checked first because it is the only kind that carries text
// beyond its trigger phrase (the numeric payload); the plain kinds require
// the whole normalized text to be the phrase, exactly or fuzzily.
func (c *Classifier) Classify(text string) (cmd Command, ok bool) {
	norm := c.normalize(text)
	if norm == "" {
		return Command{}, false
	}

	if cmd, ok := c.matchSetContext(norm); ok {
		return cmd, true
	}

	for _, kind := range []Kind{Pause, Resume, Stop} {
		if phrase, score, ok := c.matchPhrase(norm, c.vocab[kind]); ok {
			return Command{Kind: kind, Phrase: phrase, Score: score}, true
		}
	}
	return Command{}, false
}

// IsSetContext reports whether text contains a set-context trigger phrase.
// The numeric extractor uses this to reject multiples of 100 that already
// became a command.
func (c *Classifier) IsSetContext(text string) bool {
	norm := c.normalize(text)
	for _, phrase := range c.vocab[SetContext] {
		if strings.Contains(norm, normalizePhrase(phrase)) {
			return true
		}
	}
	return false
}

// normalize lowercases, strips fillers, and collapses whitespace.
func (c *Classifier) normalize(text string) string {
	s := strings.ToLower(text)
	for _, f := range c.fillers {
		s = strings.ReplaceAll(s, f, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

func normalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// matchPhrase tests norm against each phrase: equality first, then
// Jaro-Winkler when norm is long enough to be trusted to a fuzzy match.
func (c *Classifier) matchPhrase(norm string, phrases []string) (string, float64, bool) {
	if utf8.RuneCountInString(norm) < c.minMatchLen {
		return "", 0, false
	}

	var bestPhrase string
	var bestScore float64
	for _, phrase := range phrases {
		p := normalizePhrase(phrase)
		if p == "" {
			continue
		}
		if norm == p {
			return phrase, 1, true
		}
		if s := matchr.JaroWinkler(norm, p, false); s >= c.similarity && s > bestScore {
			bestPhrase, bestScore = phrase, s
		}
	}
	return bestPhrase, bestScore, bestPhrase != ""
}

// matchSetContext looks for a set-context phrase followed (or preceded) by a
// numeric payload, e.g. "标准三" or "set standard 3".
func (c *Classifier) matchSetContext(norm string) (Command, bool) {
	for _, phrase := range c.vocab[SetContext] {
		p := normalizePhrase(phrase)
		if p == "" || !strings.Contains(norm, p) {
			continue
		}
		rest := strings.TrimSpace(strings.Replace(norm, p, " ", 1))
		if rest == "" {
			continue
		}
		if v, ok := firstValue(rest); ok {
			return Command{Kind: SetContext, Phrase: phrase, Score: 1, Value: v}, true
		}
	}
	return Command{}, false
}

// firstValue converts spoken numbers in text and returns the first numeric
// literal found.
func firstValue(text string) (float64, bool) {
	converted := numeric.Convert(text)
	raw := literalPattern.FindString(converted)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
