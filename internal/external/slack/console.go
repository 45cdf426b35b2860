package slack

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleNotifier prints messages instead of posting them.
// Used when no Slack token is configured. It has no upload capability.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier writes to out, or stdout when out is nil
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

// PostMessage prints "[channel] text"
func (n *ConsoleNotifier) PostMessage(ctx context.Context, channel, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, err := fmt.Fprintf(n.out, "[%s] %s\n", channel, text)
	return err
}
