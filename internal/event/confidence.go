package event

// Confidence is the qualitative trust tier attached to a candidate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Rank orders tiers so that a higher rank means more trust.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Signals are the extraction facts the confidence model looks at.
type Signals struct {
	ReliableDate   bool // a date was found and parsed to a calendar date
	HasDescription bool
	HasLocation    bool
}

// Assess assigns a confidence tier to a freshly created candidate.
// Structured sources are always High. Heuristic sources need a reliable
// date to reach Medium, and description plus location on top of it for High.
func Assess(source Source, s Signals) Confidence {
	switch source {
	case SourceStructuredData, SourceMicrodata:
		return ConfidenceHigh
	}
	switch {
	case s.ReliableDate && s.HasDescription && s.HasLocation:
		return ConfidenceHigh
	case s.ReliableDate:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
