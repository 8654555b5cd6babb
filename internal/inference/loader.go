package inference

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/samcharles93/indicxlit/internal/backend"
	"github.com/samcharles93/indicxlit/internal/tokenizer"
	"github.com/samcharles93/indicxlit/internal/vocab"
)

// resources is the loaded state of an engine. It is replaced, never
// mutated, so a request that holds one sees a consistent set.
type resources struct {
	vocab *vocab.Vocab
	tok   *tokenizer.Tokenizer
	model backend.Model

	// ctx is cancelled by Dispose; requests bind to it.
	ctx    context.Context
	cancel context.CancelFunc
	active sync.WaitGroup
}

func (e *Engine) load(ctx context.Context) (*resources, error) {
	start := time.Now()

	v, err := vocab.Load(filepath.Join(e.opts.ModelDir, vocab.FileName))
	if err != nil {
		return nil, wrap(ErrModelLoad, "load vocabulary", err)
	}

	model, err := e.opts.Opener(ctx, backend.Config{
		Dir:         e.opts.ModelDir,
		Provider:    e.opts.Provider,
		Threads:     e.opts.Threads,
		LibraryPath: e.opts.LibraryPath,
	})
	if err != nil {
		return nil, wrap(ErrModelLoad, "open model", err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	res := &resources{
		vocab:  v,
		tok:    tokenizer.New(v),
		model:  model,
		ctx:    sctx,
		cancel: cancel,
	}
	e.log.Info("model loaded",
		"dir", e.opts.ModelDir,
		"provider", e.opts.Provider,
		"src_vocab", len(v.Src),
		"tgt_vocab", v.TgtSize(),
		"elapsed", time.Since(start),
	)
	return res, nil
}

func (r *resources) close() error {
	r.cancel()
	r.active.Wait()
	if err := r.model.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	return nil
}
