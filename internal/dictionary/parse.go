// Package dictionary reads, stores and downloads per-language word
// probability tables.
package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Dict maps a target-script word to its corpus probability.
type Dict map[string]float64

// Prob implements rescore.Dictionary.
func (d Dict) Prob(word string) (float64, bool) {
	p, ok := d[word]
	return p, ok
}

// Stats describes one parse.
type Stats struct {
	Entries int
	Skipped int
}

// maxLine bounds one dictionary line. Longer lines are skipped.
const maxLine = 1 << 20

// Parse reads a flat JSON object written one `"word": prob` pair per line.
// Lines that do not have that shape, or exceed maxLine, are skipped and
// counted; keys are unquoted as JSON strings so \uXXXX escapes are resolved.
func Parse(ctx context.Context, r io.Reader) (Dict, Stats, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	d := make(Dict)
	var st Stats
	var buf []byte
	n := 0
	for {
		raw, long, err := readLine(br, buf[:0])
		buf = raw
		if err != nil && err != io.EOF {
			return nil, st, fmt.Errorf("read dictionary: %w", err)
		}
		eof := err == io.EOF
		if len(raw) == 0 && !long && eof {
			break
		}

		n++
		if n%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, st, err
			}
		}
		if long {
			st.Skipped++
		} else if line := strings.TrimSpace(string(raw)); !isFraming(line) {
			word, prob, ok := parseLine(line)
			if ok {
				d[word] = prob
			} else {
				st.Skipped++
			}
		}
		if eof {
			break
		}
	}
	st.Entries = len(d)
	return d, st, nil
}

// readLine appends the next line of br to buf. Once a line passes maxLine the
// rest of it is drained and long is set.
func readLine(br *bufio.Reader, buf []byte) (line []byte, long bool, err error) {
	for {
		frag, err := br.ReadSlice('\n')
		if !long {
			if len(buf)+len(frag) > maxLine {
				long = true
				buf = buf[:0]
			} else {
				buf = append(buf, frag...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return buf, long, err
	}
}

func isFraming(line string) bool {
	switch line {
	case "", "{", "}", "{}":
		return true
	}
	return false
}

func parseLine(line string) (string, float64, bool) {
	line = strings.TrimSuffix(line, ",")
	if len(line) < 2 || line[0] != '"' {
		return "", 0, false
	}
	end := closingQuote(line)
	if end < 0 {
		return "", 0, false
	}
	rest := strings.TrimSpace(line[end+1:])
	value, found := strings.CutPrefix(rest, ":")
	if !found {
		return "", 0, false
	}

	var word string
	if err := json.Unmarshal([]byte(line[:end+1]), &word); err != nil || word == "" {
		return "", 0, false
	}
	prob, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(prob) || math.IsInf(prob, 0) {
		return "", 0, false
	}
	return word, prob, true
}

// closingQuote returns the index of the quote ending the string that opens at
// line[0], or -1.
func closingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
