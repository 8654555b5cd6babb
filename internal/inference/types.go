package inference

import (
	"fmt"
	"path/filepath"

	"github.com/samcharles93/indicxlit/internal/backend"
	"github.com/samcharles93/indicxlit/internal/backend/onnx"
	"github.com/samcharles93/indicxlit/internal/logger"
	"github.com/samcharles93/indicxlit/internal/rescore"
)

const (
	DefaultBeamWidth = 4
	DefaultMaxLen    = 20
	DefaultCount     = 5

	dictSubdir = "word_prob_dicts"
)

// ScoredWord is one ranked transliteration. Score is the length-normalized
// log-probability, or the blended probability when rescoring is enabled.
type ScoredWord = rescore.Word

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// ModelDir holds vocab.json and the encoder and decoder graphs.
	ModelDir string
	// DictDir holds <lang>_word_prob_dict.json files. Defaults to
	// ModelDir/word_prob_dicts.
	DictDir string

	BeamWidth int
	MaxLen    int

	Rescore bool
	// RescoreAlpha weights model probability against dictionary
	// probability. Nil selects 0.9.
	RescoreAlpha *float64

	// Parallelism bounds concurrent decoder calls per step. Defaults to
	// the beam width of the request.
	Parallelism int

	Provider    string
	Threads     int
	LibraryPath string

	// DictURL overrides the dictionary archive location.
	DictURL string

	Logger logger.Logger
	// Opener loads the model; defaults to ONNX Runtime.
	Opener backend.Opener
}

func (o Options) withDefaults() (Options, error) {
	if o.ModelDir == "" {
		return o, fmt.Errorf("model directory is required")
	}
	if o.DictDir == "" {
		o.DictDir = filepath.Join(o.ModelDir, dictSubdir)
	}
	if o.BeamWidth == 0 {
		o.BeamWidth = DefaultBeamWidth
	}
	if o.BeamWidth < 0 {
		return o, fmt.Errorf("beam width must be positive, got %d", o.BeamWidth)
	}
	if o.MaxLen == 0 {
		o.MaxLen = DefaultMaxLen
	}
	if o.MaxLen < 0 {
		return o, fmt.Errorf("max length must be positive, got %d", o.MaxLen)
	}
	if o.RescoreAlpha == nil {
		a := rescore.DefaultAlpha
		o.RescoreAlpha = &a
	}
	if a := *o.RescoreAlpha; a < 0 || a > 1 {
		return o, fmt.Errorf("rescore alpha must be within [0, 1], got %v", a)
	}
	if o.Parallelism < 0 {
		return o, fmt.Errorf("parallelism must not be negative, got %d", o.Parallelism)
	}
	provider, err := backend.Normalize(o.Provider)
	if err != nil {
		return o, err
	}
	o.Provider = provider
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	if o.Opener == nil {
		o.Opener = onnx.Open
	}
	return o, nil
}
