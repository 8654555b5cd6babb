package dictionary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound reports a dictionary absent from disk or from the archive.
	ErrNotFound = errors.New("dictionary not found")
	// ErrNetwork reports a failed or rejected download.
	ErrNetwork = errors.New("dictionary download failed")
	// ErrExtraction reports an unreadable archive or a failed write.
	ErrExtraction = errors.New("dictionary extraction failed")
	// ErrTooManyRedirects reports a redirect chain longer than MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// FileName is the on-disk name of the dictionary for lang.
func FileName(lang string) string {
	return lang + "_word_prob_dict.json"
}

// Store is a directory of dictionary files.
type Store struct {
	Dir string
}

func (s Store) Path(lang string) string {
	return filepath.Join(s.Dir, FileName(lang))
}

// Has reports whether the dictionary file for lang exists. It never touches
// the network.
func (s Store) Has(lang string) bool {
	info, err := os.Stat(s.Path(lang))
	return err == nil && info.Mode().IsRegular()
}

// Load parses the dictionary for lang from disk.
func (s Store) Load(ctx context.Context, lang string) (Dict, Stats, error) {
	f, err := os.Open(s.Path(lang))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Stats{}, fmt.Errorf("%w for %q in %s", ErrNotFound, lang, s.Dir)
		}
		return nil, Stats{}, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f)
}
