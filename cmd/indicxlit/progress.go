package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	defaultTermWidth = 80
	statsWidth       = 36
	redrawInterval   = 100 * time.Millisecond
)

// progressBar renders download progress on one terminal line.
type progressBar struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	width   func() int
	now     func() time.Time

	started time.Time
	drawn   time.Time
	current int64
	total   int64
}

func newProgressBar(w io.Writer, message string) *progressBar {
	now := time.Now
	return &progressBar{
		w:       w,
		message: message,
		width:   stderrWidth,
		now:     now,
		started: now(),
	}
}

func stderrWidth() int {
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// Update has the shape of dictionary.Progress. Redraws are throttled.
func (b *progressBar) Update(downloaded, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = downloaded
	b.total = total
	now := b.now()
	if now.Sub(b.drawn) < redrawInterval {
		return
	}
	b.drawn = now
	_, _ = fmt.Fprintf(b.w, "\r%s", b.render(b.width(), now.Sub(b.started)))
}

// Finish draws the final state and ends the line.
func (b *progressBar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total > 0 {
		b.current = b.total
	}
	_, _ = fmt.Fprintf(b.w, "\r%s\n", b.render(b.width(), b.now().Sub(b.started)))
}

func (b *progressBar) percent() float64 {
	if b.total <= 0 {
		return 0
	}
	return math.Min(float64(b.current)/float64(b.total)*100, 100)
}

func (b *progressBar) render(termWidth int, elapsed time.Duration) string {
	var pre, mid, suf strings.Builder

	if b.message != "" {
		pre.WriteString(strings.TrimSpace(b.message))
		pre.WriteString(" ")
	}

	if b.total > 0 {
		fmt.Fprintf(&pre, "%3.0f%% ", math.Floor(b.percent()))
		fmt.Fprintf(&suf, "(%s/%s", humanBytes(b.current), humanBytes(b.total))
	} else {
		fmt.Fprintf(&suf, "(%s", humanBytes(b.current))
	}
	if secs := elapsed.Seconds(); secs > 0 && b.current > 0 {
		fmt.Fprintf(&suf, ", %s/s", humanBytes(int64(float64(b.current)/secs)))
	}
	suf.WriteString(")")
	if suf.Len() < statsWidth {
		suf.WriteString(strings.Repeat(" ", statsWidth-suf.Len()))
	}
	suf.WriteString(formatDuration(elapsed))

	if b.total > 0 {
		// two boundary characters and one separating space
		f := termWidth - len([]rune(pre.String())) - len([]rune(suf.String())) - 3
		if f > 0 {
			n := int(float64(f) * b.percent() / 100)
			mid.WriteString("▕")
			mid.WriteString(strings.Repeat("█", n))
			mid.WriteString(strings.Repeat(" ", f-n))
			mid.WriteString("▏ ")
		}
	}

	return pre.String() + mid.String() + suf.String()
}

// formatDuration keeps at most two units.
func formatDuration(d time.Duration) string {
	if d >= 100*time.Hour {
		return "99h+"
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return d.Round(time.Second).String()
}

func humanBytes(n int64) string {
	const (
		kb = 1000
		mb = 1000 * kb
		gb = 1000 * mb
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
