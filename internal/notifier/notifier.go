package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

// tweetLimit is Twitter's status length in characters.
const tweetLimit = 280

// maxListedEvents bounds how many event names a message lists.
const maxListedEvents = 5

// Notifier defines the interface for delivering new-event notifications
type Notifier interface {
	// Notify delivers one notification
	Notify(ctx context.Context, n *storage.Notification) error
}

// formatMessage renders a notification as a short status message.
func formatMessage(n *storage.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n%s\n", n.Title, n.Message)

	for i, evt := range n.Events {
		if i == maxListedEvents {
			fmt.Fprintf(&b, "\n…and %d more", len(n.Events)-maxListedEvents)
			break
		}
		b.WriteString("\n• " + evt.Name)
		if evt.HasDate() {
			b.WriteString(" (" + evt.Date + ")")
		}
	}
	if n.URL != "" {
		b.WriteString("\n\n🔗 " + n.URL)
	}

	return event.Truncate(b.String(), tweetLimit)
}
