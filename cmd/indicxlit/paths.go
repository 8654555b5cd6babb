package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envModelDir   = "INDICXLIT_MODEL_DIR"
	envDictDir    = "INDICXLIT_DICT_DIR"
	envORTLibrary = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

	defaultDictSubdir = "word_prob_dicts"
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

func resolveModelDir(flag string) (string, error) {
	dir := strings.TrimSpace(flag)
	if dir == "" {
		return "", fmt.Errorf("--model-dir is required unless %s is set", envModelDir)
	}
	st, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return "", fmt.Errorf("model path is not a directory: %s", dir)
	}
	return filepath.Clean(dir), nil
}

// resolveDictDir prefers an explicit dictionary directory and falls back to
// <model-dir>/word_prob_dicts.
func resolveDictDir(dictFlag, modelFlag string) (string, error) {
	if d := strings.TrimSpace(dictFlag); d != "" {
		return filepath.Clean(d), nil
	}
	if m := strings.TrimSpace(modelFlag); m != "" {
		return filepath.Join(filepath.Clean(m), defaultDictSubdir), nil
	}
	return "", fmt.Errorf("--dict-dir or --model-dir is required unless %s or %s is set", envDictDir, envModelDir)
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
