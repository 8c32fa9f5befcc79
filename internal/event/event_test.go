package event

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id1 := GenerateID(SourcePattern, 3, "annual meetup|March 3, 2025")
	id2 := GenerateID(SourcePattern, 3, "annual meetup|March 3, 2025")

	if id1 != id2 {
		t.Errorf("GenerateID should be deterministic, got different IDs: %s vs %s", id1, id2)
	}
	if len(id1) != 36 {
		t.Errorf("expected UUID length of 36, got %d", len(id1))
	}
	if other := GenerateID(SourcePattern, 4, "annual meetup|March 3, 2025"); other == id1 {
		t.Error("different sequence numbers should produce different IDs")
	}
	if other := GenerateID(SourceTable, 3, "annual meetup|March 3, 2025"); other == id1 {
		t.Error("different sources should produce different IDs")
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name  string
		a, b  [2]string
		equal bool
	}{
		{
			name:  "case and whitespace are folded",
			a:     [2]string{"  Tech   SUMMIT ", "March 10, 2025"},
			b:     [2]string{"tech summit", "March 10, 2025"},
			equal: true,
		},
		{
			name:  "compatibility characters are normalized",
			a:     [2]string{"Ｔｅｃｈ Summit", "March 10, 2025"},
			b:     [2]string{"tech summit", "March 10, 2025"},
			equal: true,
		},
		{
			name:  "different dates differ",
			a:     [2]string{"Tech Summit", "March 10, 2025"},
			b:     [2]string{"Tech Summit", "March 11, 2025"},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sa := Signature(tt.a[0], tt.a[1])
			sb := Signature(tt.b[0], tt.b[1])
			if (sa == sb) != tt.equal {
				t.Errorf("Signature(%q) == Signature(%q) is %v, want %v", sa, sb, sa == sb, tt.equal)
			}
		})
	}
}

func TestSignature_Bounded(t *testing.T) {
	sig := Signature(strings.Repeat("a", 500), "March 10, 2025")
	if got := len([]rune(sig)); got != MaxSignatureLength {
		t.Errorf("signature length = %d, want %d", got, MaxSignatureLength)
	}
	if !strings.HasSuffix(sig, "|March 10, 2025") {
		t.Errorf("signature lost its date: %q", sig)
	}

	sig = Signature("Gala", strings.Repeat("9", 500))
	if got := len([]rune(sig)); got > MaxSignatureLength {
		t.Errorf("signature length = %d, want at most %d", got, MaxSignatureLength)
	}
}

func TestSignature_LongNameKeepsDatesApart(t *testing.T) {
	name := strings.Repeat("Riverside Community Harvest Festival ", 6)
	first := Signature(name, "March 10, 2025")
	second := Signature(name, "March 17, 2025")
	if first == second {
		t.Errorf("signatures collide for different dates: %q", first)
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Gala", true},
		{"  Fun ", false},
		{"", false},
		{"Tech Summit", true},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEvent_FieldPresence(t *testing.T) {
	evt := &Event{
		Name:        "Tech Summit",
		Date:        DateNotFound,
		Description: NoDescription,
		Location:    "Main Hall",
	}

	if evt.HasDate() {
		t.Error("HasDate() should be false for the sentinel")
	}
	if evt.HasDescription() {
		t.Error("HasDescription() should be false for the sentinel")
	}
	if !evt.HasLocation() {
		t.Error("HasLocation() should be true")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this sentence is too long", 10, "this se..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	text := "\n  ab \n   Spring   Gala  \nMain Hall"
	if got := FirstLine(text, 5); got != "Spring Gala" {
		t.Errorf("FirstLine() = %q, want %q", got, "Spring Gala")
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		signals Signals
		want    Confidence
	}{
		{"structured data is always high", SourceStructuredData, Signals{}, ConfidenceHigh},
		{"microdata is always high", SourceMicrodata, Signals{}, ConfidenceHigh},
		{"all fields present", SourcePattern, Signals{ReliableDate: true, HasDescription: true, HasLocation: true}, ConfidenceHigh},
		{"date and description", SourcePattern, Signals{ReliableDate: true, HasDescription: true}, ConfidenceMedium},
		{"date only pattern match", SourcePattern, Signals{ReliableDate: true}, ConfidenceMedium},
		{"date only table match", SourceTable, Signals{ReliableDate: true}, ConfidenceMedium},
		{"no reliable date", SourceFreeText, Signals{HasDescription: true, HasLocation: true}, ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assess(tt.source, tt.signals); got != tt.want {
				t.Errorf("Assess() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConfidence_Rank(t *testing.T) {
	if !(ConfidenceHigh.Rank() > ConfidenceMedium.Rank() && ConfidenceMedium.Rank() > ConfidenceLow.Rank()) {
		t.Error("expected High > Medium > Low")
	}
}
