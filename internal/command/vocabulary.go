// Package command classifies recognized text as a session control command or
// as measurement text to hand on to numeric extraction.
//
// The vocabulary is data: a mapping from canonical command kind to the spoken
// phrases that trigger it. Matching combines exact containment for short
// ideographic phrases with Jaro-Winkler similarity for longer or misrecognized
// ones, gated by a minimum length so one- or two-character fragments cannot
// accidentally match a command.
package command

// Kind is the canonical command a spoken phrase resolves to.
type Kind int

const (
	// None means the text matched no command and should go to extraction.
	None Kind = iota

	// Pause suspends measurement capture until resumed.
	Pause

	// Resume continues a paused session.
	Resume

	// Stop ends the session. Terminal.
	Stop

	// SetContext changes the grouping value tagged onto subsequent
	// measurements. Carries a numeric payload.
	SetContext
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case Stop:
		return "stop"
	case SetContext:
		return "set-context"
	default:
		return "none"
	}
}

// Vocabulary maps each command kind to its trigger phrases.
type Vocabulary map[Kind][]string

// DefaultVocabulary returns the built-in bilingual trigger phrases.
// Configurations may replace or extend it per kind.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Pause:      {"暂停", "暂停记录", "pause"},
		Resume:     {"继续", "继续记录", "resume", "continue"},
		Stop:       {"停止", "停止记录", "结束", "stop"},
		SetContext: {"标准", "设置标准", "standard", "set standard"},
	}
}

// merged returns base with overrides applied per kind. A kind present in
// overrides replaces the base phrases for that kind entirely.
func merged(base, overrides Vocabulary) Vocabulary {
	if len(overrides) == 0 {
		return base
	}
	out := make(Vocabulary, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
