//go:build linux

package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var interactive = newLineEditor("", os.Stdout)

func readInteractiveLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		s, err := stdinReader.ReadString('\n')
		if err != nil && (err != io.EOF || s == "") {
			return "", err
		}
		return trimTrailingNewline(s), nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	raw := *oldState
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}()

	interactive.prompt = prompt
	interactive.reset()
	fmt.Print(prompt)

	var buf [16]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		for _, b := range buf[:n] {
			line, done, err := interactive.feed(b)
			if err != nil {
				return "", err
			}
			if done {
				return line, nil
			}
		}
	}
}
