package main

import (
	"context"

	"github.com/samcharles93/indicxlit/internal/inference"
	"github.com/samcharles93/indicxlit/internal/logger"
)

// newEngine builds an engine from the resolved engine flags. The model is
// not loaded until first use or Initialize.
func newEngine(ctx context.Context) (*inference.Engine, error) {
	dir, err := resolveModelDir(modelDir)
	if err != nil {
		return nil, err
	}
	alpha := rescoreAlpha
	return inference.New(inference.Options{
		ModelDir:     dir,
		DictDir:      dictDir,
		BeamWidth:    int(beamWidth),
		MaxLen:       int(maxLen),
		Rescore:      rescoreFlag,
		RescoreAlpha: &alpha,
		Parallelism:  int(parallelism),
		Provider:     provider,
		Threads:      int(threads),
		LibraryPath:  ortLibrary,
		DictURL:      dictURL,
		Logger:       logger.FromContext(ctx),
	})
}
