package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

var stdinReader = bufio.NewReader(os.Stdin)

// lineEditor is the key handling behind the interactive prompt. It is fed
// raw terminal bytes one at a time and echoes edits to out.
type lineEditor struct {
	prompt string
	out    io.Writer

	line   []rune
	cursor int

	history  []string
	histPos  int
	browsing bool
	draft    string

	esc     int
	escBuf  strings.Builder
	pending []byte
}

func newLineEditor(prompt string, out io.Writer) *lineEditor {
	return &lineEditor{prompt: prompt, out: out}
}

// reset prepares for a new line and keeps the history.
func (e *lineEditor) reset() {
	e.line = e.line[:0]
	e.cursor = 0
	e.histPos = len(e.history)
	e.browsing = false
	e.draft = ""
	e.esc = 0
	e.pending = e.pending[:0]
}

// feed consumes one byte. done reports a completed line; err is io.EOF on
// Ctrl+C or Ctrl+D on an empty line.
func (e *lineEditor) feed(b byte) (line string, done bool, err error) {
	if e.esc != 0 {
		e.escape(b)
		return "", false, nil
	}
	if len(e.pending) > 0 || b >= utf8.RuneSelf {
		e.pending = append(e.pending, b)
		if utf8.FullRune(e.pending) {
			r, _ := utf8.DecodeRune(e.pending)
			e.pending = e.pending[:0]
			if r != utf8.RuneError {
				e.insert(r)
			}
		}
		return "", false, nil
	}

	switch b {
	case 27: // ESC
		e.esc = 1
	case '\r', '\n':
		_, _ = fmt.Fprint(e.out, "\r\n")
		out := string(e.line)
		if strings.TrimSpace(out) != "" {
			e.history = append(e.history, out)
		}
		return out, true, nil
	case 3: // Ctrl+C
		_, _ = fmt.Fprint(e.out, "^C\r\n")
		return "", false, io.EOF
	case 4: // Ctrl+D
		if len(e.line) == 0 {
			_, _ = fmt.Fprint(e.out, "\r\n")
			return "", false, io.EOF
		}
	case 127, 8: // backspace
		if e.cursor > 0 {
			e.line = append(e.line[:e.cursor-1], e.line[e.cursor:]...)
			e.cursor--
			e.redraw()
		}
	case 1: // Ctrl+A
		e.cursor = 0
		e.redraw()
	case 5: // Ctrl+E
		e.cursor = len(e.line)
		e.redraw()
	case 21: // Ctrl+U
		e.line = append(e.line[:0], e.line[e.cursor:]...)
		e.cursor = 0
		e.redraw()
	case 23: // Ctrl+W
		e.deleteWordBack()
	default:
		if b >= 32 {
			e.insert(rune(b))
		}
	}
	return "", false, nil
}

func (e *lineEditor) insert(r rune) {
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = r
	e.cursor++
	e.redraw()
}

func (e *lineEditor) escape(b byte) {
	switch e.esc {
	case 1:
		e.esc = 0
		switch b {
		case '[':
			e.esc = 2
			e.escBuf.Reset()
		case 'b', 'B':
			e.moveWord(-1)
		case 'f', 'F':
			e.moveWord(1)
		case 127:
			e.deleteWordBack()
		}
	case 2:
		e.escBuf.WriteByte(b)
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			e.csi(e.escBuf.String())
			e.esc = 0
		}
	}
}

func (e *lineEditor) csi(seq string) {
	switch seq {
	case "A":
		e.historyPrev()
	case "B":
		e.historyNext()
	case "D":
		if e.cursor > 0 {
			e.cursor--
			e.redraw()
		}
	case "C":
		if e.cursor < len(e.line) {
			e.cursor++
			e.redraw()
		}
	case "H":
		e.cursor = 0
		e.redraw()
	case "F":
		e.cursor = len(e.line)
		e.redraw()
	case "3~":
		if e.cursor < len(e.line) {
			e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
			e.redraw()
		}
	case "1;5D", "5D":
		e.moveWord(-1)
	case "1;5C", "5C":
		e.moveWord(1)
	}
}

func (e *lineEditor) historyPrev() {
	if len(e.history) == 0 {
		return
	}
	if !e.browsing {
		e.draft = string(e.line)
		e.browsing = true
		e.histPos = len(e.history)
	}
	if e.histPos > 0 {
		e.histPos--
		e.setLine(e.history[e.histPos])
	}
}

func (e *lineEditor) historyNext() {
	if !e.browsing {
		return
	}
	if e.histPos < len(e.history)-1 {
		e.histPos++
		e.setLine(e.history[e.histPos])
		return
	}
	e.histPos = len(e.history)
	e.browsing = false
	e.setLine(e.draft)
}

func (e *lineEditor) setLine(s string) {
	e.line = append(e.line[:0], []rune(s)...)
	e.cursor = len(e.line)
	e.redraw()
}

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

func (e *lineEditor) moveWord(dir int) {
	if dir < 0 {
		for e.cursor > 0 && isBlank(e.line[e.cursor-1]) {
			e.cursor--
		}
		for e.cursor > 0 && !isBlank(e.line[e.cursor-1]) {
			e.cursor--
		}
	} else {
		for e.cursor < len(e.line) && isBlank(e.line[e.cursor]) {
			e.cursor++
		}
		for e.cursor < len(e.line) && !isBlank(e.line[e.cursor]) {
			e.cursor++
		}
	}
	e.redraw()
}

func (e *lineEditor) deleteWordBack() {
	start := e.cursor
	for start > 0 && isBlank(e.line[start-1]) {
		start--
	}
	for start > 0 && !isBlank(e.line[start-1]) {
		start--
	}
	if start == e.cursor {
		return
	}
	e.line = append(e.line[:start], e.line[e.cursor:]...)
	e.cursor = start
	e.redraw()
}

func (e *lineEditor) redraw() {
	_, _ = fmt.Fprintf(e.out, "\r%s%s\x1b[K", e.prompt, string(e.line))
	if e.cursor < len(e.line) {
		_, _ = fmt.Fprintf(e.out, "\r%s%s", e.prompt, string(e.line[:e.cursor]))
	}
}

func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
