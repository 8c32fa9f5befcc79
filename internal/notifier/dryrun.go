package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/storage"
)

// DryRunNotifier prints what would be posted without posting it
type DryRunNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	count int
}

// NewDryRunNotifier creates a dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message that would be posted
func (d *DryRunNotifier) Notify(_ context.Context, n *storage.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count++
	msg := formatMessage(n)
	_, err := fmt.Fprintf(d.out, "--- Notification %d ---\n%s\n\n(Length: %d characters)\n\n",
		d.count, msg, utf8.RuneCountInString(msg))
	return err
}
