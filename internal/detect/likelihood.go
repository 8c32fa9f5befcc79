package detect

import (
	"regexp"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
)

var (
	eventKeywords = regexp.MustCompile(`(?i)\b(?:events?|conferences?|workshops?|seminars?|webinars?|concerts?|festivals?|meetups?|meetings?|sessions?|talks?|presentations?|lectures?|exhibitions?|performances?|summits?|symposium|gala|gatherings?|parties|party|classes|tournaments?)\b`)
	actionKeywords = regexp.MustCompile(`(?i)\b(?:register|registration|rsvp|tickets?|sign\s+up|book\s+now|join\s+us)\b`)
	eventClass     = regexp.MustCompile(`(?i)event|calendar|schedule|meeting|conference`)
	timeWords      = regexp.MustCompile(`(?i)\b(?:\d{1,2}(?::\d{2})?\s*[ap]\.?m\b|noon|midnight|morning|afternoon|evening|tonight)`)
	locationWords  = regexp.MustCompile(`(?i)\b(?:venue|location|hall|room|center|centre|theater|theatre|auditorium|park|street|avenue|campus|library|online|virtual|zoom)\b`)
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// LooksLikeEvent judges whether a container reads like an event listing:
// event or call-to-action vocabulary, an event-ish class name, or a heading
// accompanied by a time, a place or a link.
func LooksLikeEvent(n dom.Node) bool {
	text := event.CleanText(n.Text())
	if eventKeywords.MatchString(text) || actionKeywords.MatchString(text) {
		return true
	}
	if class, ok := n.Attr("class"); ok && eventClass.MatchString(class) {
		return true
	}
	if len(n.Find(headingSelector)) == 0 {
		return false
	}
	return timeWords.MatchString(text) ||
		event.ExtractTime(text) != "" ||
		locationWords.MatchString(text) ||
		len(n.Find("a[href]")) > 0
}
