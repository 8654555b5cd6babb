package main

import (
	"errors"
	"io"
	"testing"
)

func feedAll(t *testing.T, e *lineEditor, input string) (string, bool, error) {
	t.Helper()
	for i := 0; i < len(input); i++ {
		line, done, err := e.feed(input[i])
		if err != nil || done {
			return line, done, err
		}
	}
	return "", false, nil
}

func TestLineEditorEditing(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "amma\r", "amma"},
		{"backspace", "ammx\x7fa\r", "amma"},
		{"cursor insert", "ama\x1b[D\x1b[Dm\r", "amma"},
		{"home end", "mma\x01a\x05!\r", "amma!"},
		{"ctrl w", "hello world\x17there\r", "hello there"},
		{"ctrl u", "junk\x15amma\r", "amma"},
		{"delete key", "amma\x1b[H\x1b[3~\r", "mma"},
		{"alt b", "foo bar\x1bbX\r", "foo Xbar"},
		{"utf8", "அம்மா\r", "அம்மா"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newLineEditor("> ", io.Discard)
			got, done, err := feedAll(t, e, tc.input)
			if err != nil || !done {
				t.Fatalf("done=%v err=%v", done, err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLineEditorHistory(t *testing.T) {
	e := newLineEditor("> ", io.Discard)
	for _, in := range []string{"first\r", "second\r", "   \r"} {
		e.reset()
		if _, _, err := feedAll(t, e, in); err != nil {
			t.Fatal(err)
		}
	}
	if len(e.history) != 2 {
		t.Fatalf("blank lines should not enter history: %q", e.history)
	}

	e.reset()
	got, _, _ := feedAll(t, e, "draft\x1b[A\x1b[A\r")
	if got != "first" {
		t.Fatalf("two ups: got %q", got)
	}

	e.reset()
	got, _, _ = feedAll(t, e, "draft\x1b[A\x1b[B\r")
	if got != "draft" {
		t.Fatalf("up then down should restore the draft: got %q", got)
	}
}

func TestLineEditorEOF(t *testing.T) {
	e := newLineEditor("> ", io.Discard)
	if _, _, err := feedAll(t, e, "\x04"); !errors.Is(err, io.EOF) {
		t.Fatalf("Ctrl+D on empty line: %v", err)
	}

	e.reset()
	if _, done, err := feedAll(t, e, "ab\x04"); err != nil || done {
		t.Fatalf("Ctrl+D with text should be ignored: done=%v err=%v", done, err)
	}

	e.reset()
	if _, _, err := feedAll(t, e, "ab\x03"); !errors.Is(err, io.EOF) {
		t.Fatalf("Ctrl+C: %v", err)
	}
}

func TestTrimTrailingNewline(t *testing.T) {
	for in, want := range map[string]string{"a\r\n": "a", "a\n": "a", "a": "a", "": ""} {
		if got := trimTrailingNewline(in); got != want {
			t.Fatalf("trimTrailingNewline(%q) = %q", in, got)
		}
	}
}
