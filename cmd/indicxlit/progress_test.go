package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgressBarRender(t *testing.T) {
	b := &progressBar{message: "ta", current: 500, total: 1000}
	got := b.render(80, 2*time.Second)

	if !strings.HasPrefix(got, "ta  50% ▕") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "(500 B/1.0 KB, 250 B/s)") {
		t.Fatalf("missing stats: %q", got)
	}
	if !strings.HasSuffix(got, "2s") {
		t.Fatalf("missing elapsed: %q", got)
	}
	if n := len([]rune(got)); n != 80 {
		t.Fatalf("rendered width = %d, want 80", n)
	}
}

func TestProgressBarUnknownTotal(t *testing.T) {
	b := &progressBar{current: 2_500_000}
	got := b.render(80, time.Second)
	if strings.Contains(got, "▕") || strings.Contains(got, "%") {
		t.Fatalf("bar drawn without a total: %q", got)
	}
	if !strings.HasPrefix(got, "(2.5 MB, 2.5 MB/s)") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestProgressBarNarrowTerminal(t *testing.T) {
	b := &progressBar{message: "download", current: 1, total: 2}
	if got := b.render(10, 0); strings.Contains(got, "▕") {
		t.Fatalf("bar should be dropped when it does not fit: %q", got)
	}
}

func TestProgressBarThrottlesRedraws(t *testing.T) {
	var buf bytes.Buffer
	clock := time.Unix(0, 0)
	b := &progressBar{
		w:       &buf,
		width:   func() int { return 60 },
		now:     func() time.Time { return clock },
		started: clock,
	}

	clock = clock.Add(time.Second)
	b.Update(10, 100)
	b.Update(20, 100)
	clock = clock.Add(redrawInterval)
	b.Update(30, 100)
	b.Finish()

	if n := strings.Count(buf.String(), "\r"); n != 3 {
		t.Fatalf("redraws = %d, want 3: %q", n, buf.String())
	}
	if !strings.Contains(buf.String(), "100%") || !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("Finish should draw a complete bar: %q", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		1500 * time.Millisecond:     "2s",
		90 * time.Second:            "1m30s",
		2*time.Hour + 5*time.Minute: "2h5m",
		101 * time.Hour:             "99h+",
	}
	for d, want := range cases {
		if got := formatDuration(d); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
