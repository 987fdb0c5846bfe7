package command

import "testing"

func TestClassifier_Classify(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		text     string
		wantKind Kind
		wantOK   bool
	}{
		{"pause exact", "暂停", Pause, true},
		{"pause long form", "暂停记录", Pause, true},
		{"pause english", "pause", Pause, true},
		{"resume exact", "继续", Resume, true},
		{"stop exact", "停止", Stop, true},
		{"stop alternate", "结束", Stop, true},
		{"filler stripped before match", "那个暂停", Pause, true},
		{"leading filler english", "um pause", Pause, true},
		{"case folded", "PAUSE", Pause, true},
		{"fuzzy misrecognition", "pawse", Pause, true},
		{"measurement text is not a command", "二百", None, false},
		{"plain sentence is not a command", "温度五十度", None, false},
		{"empty text", "", None, false},
		{"whitespace only", "   ", None, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := c.Classify(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && cmd.Kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %v, want %v", tt.text, cmd.Kind, tt.wantKind)
			}
		})
	}
}

func TestClassifier_SetContext(t *testing.T) {
	c := New()

	tests := []struct {
		name      string
		text      string
		wantValue float64
		wantOK    bool
	}{
		{"chinese phrase with numeral", "标准三", 3, true},
		{"chinese phrase with compound numeral", "标准二十五", 25, true},
		{"english phrase with ascii number", "set standard 3", 3, true},
		{"short english phrase", "standard 12", 12, true},
		{"decimal payload", "标准三点五", 3.5, true},
		{"phrase without a number is not set-context", "标准", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := c.Classify(tt.text)
			if tt.wantOK {
				if !ok || cmd.Kind != SetContext {
					t.Fatalf("Classify(%q) = %+v ok=%v, want set-context", tt.text, cmd, ok)
				}
				if cmd.Value != tt.wantValue {
					t.Errorf("value = %v, want %v", cmd.Value, tt.wantValue)
				}
			} else if ok && cmd.Kind == SetContext {
				t.Fatalf("Classify(%q) matched set-context, want none", tt.text)
			}
		})
	}
}

func TestClassifier_IsSetContext(t *testing.T) {
	c := New()

	if !c.IsSetContext("标准二百") {
		t.Error("IsSetContext(标准二百) = false, want true")
	}
	if !c.IsSetContext("set standard 200") {
		t.Error("IsSetContext(set standard 200) = false, want true")
	}
	if c.IsSetContext("吃饭二百") {
		t.Error("IsSetContext(吃饭二百) = true, want false")
	}
}

func TestClassifier_MinMatchLen(t *testing.T) {
	c := New(WithMinMatchLen(4), WithVocabulary(Vocabulary{
		Stop: {"停", "stop"},
	}))

	// Below the length gate nothing matches, even a vocabulary phrase.
	if _, ok := c.Classify("停"); ok {
		t.Error("single-rune text matched below min length")
	}
	if cmd, ok := c.Classify("stop"); !ok || cmd.Kind != Stop {
		t.Error("four-rune text failed to match at the gate")
	}
}

func TestClassifier_VocabularyOverride(t *testing.T) {
	c := New(WithVocabulary(Vocabulary{
		Pause: {"hold on"},
	}))

	if cmd, ok := c.Classify("hold on"); !ok || cmd.Kind != Pause {
		t.Error("override phrase did not match")
	}
	if _, ok := c.Classify("暂停"); ok {
		t.Error("replaced default phrase still matched")
	}
	// Other kinds keep their defaults.
	if cmd, ok := c.Classify("停止"); !ok || cmd.Kind != Stop {
		t.Error("untouched kind lost its defaults")
	}
}
