package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Bar renders a single operation's checkpoint progress: a message and a
// 0-100 percentage. Set is safe to call from the operation worker while
// the renderer goroutine reads String.
type Bar struct {
	mu sync.Mutex

	message      string
	messageWidth int

	percent int
}

func NewBar(message string) *Bar {
	return &Bar{
		message:      message,
		messageWidth: 40,
	}
}

func (b *Bar) Set(message string, percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if message != "" {
		b.message = message
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	b.percent = percent
}

func (b *Bar) Percent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.percent
}

func (b *Bar) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = defaultTermWidth
	}

	var pre, mid strings.Builder

	message := strings.TrimSpace(b.message)
	if len(message) > b.messageWidth {
		message = message[:b.messageWidth]
	}
	fmt.Fprintf(&pre, "%s", message)
	if padding := b.messageWidth - pre.Len(); padding > 0 {
		pre.WriteString(strings.Repeat(" ", padding))
	}
	fmt.Fprintf(&pre, " %3d%% ", b.percent)

	// 3 extra columns: 2 boundary characters and 1 trailing space
	f := termWidth - pre.Len() - 3
	n := f * b.percent / 100

	if f > 0 {
		mid.WriteString("▕")
		mid.WriteString(strings.Repeat("█", n))
		if f-n > 0 {
			mid.WriteString(strings.Repeat(" ", f-n))
		}
		mid.WriteString("▏")
	}

	return pre.String() + mid.String()
}
