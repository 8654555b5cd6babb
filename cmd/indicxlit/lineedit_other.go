//go:build !linux

package main

import (
	"io"
	"os"
)

func readInteractiveLine(prompt string) (string, error) {
	_, _ = os.Stdout.WriteString(prompt)
	s, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return trimTrailingNewline(s), nil
}
