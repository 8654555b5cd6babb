package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samcharles93/indicxlit/internal/backend"
	"github.com/samcharles93/indicxlit/internal/beam"
	"github.com/samcharles93/indicxlit/internal/logger"
	"github.com/samcharles93/indicxlit/internal/rescore"
)

// Transliterate returns up to count distinct spellings of word in the script
// of lang, best first.
func (e *Engine) Transliterate(ctx context.Context, word, lang string, count int) ([]string, error) {
	scored, err := e.TransliterateScored(ctx, word, lang, count)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Word
	}
	return out, nil
}

// TransliterateScored is Transliterate with the final score of each word.
func (e *Engine) TransliterateScored(ctx context.Context, word, lang string, count int) ([]ScoredWord, error) {
	if ctx == nil {
		return nil, newInvalidInput("context is required")
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, newInvalidInput("word must not be empty")
	}
	if count <= 0 {
		return nil, newInvalidInput(fmt.Sprintf("count must be positive, got %d", count))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// Dispose cancels res.ctx; the request stops with it.
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(res.ctx, cancel)
	defer stop()

	out, err := e.run(rctx, res, word, lang, count)
	if err != nil {
		if res.ctx.Err() != nil && ctx.Err() == nil {
			return nil, ErrDisposed
		}
		return nil, err
	}
	return out, nil
}

func (e *Engine) run(ctx context.Context, res *resources, word, lang string, count int) ([]ScoredWord, error) {
	start := time.Now()
	log := e.log.With("lang", lang)
	ctx = logger.WithContext(ctx, log)

	src, err := res.tok.Encode(word, lang)
	if err != nil {
		return nil, err
	}

	enc, err := safeEncode(ctx, res.model, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, wrap(ErrDecode, "encode", err)
	}
	defer enc.Close()

	width := max(e.opts.BeamWidth, count)
	cands, err := beam.Search(ctx, res.model, enc, beam.Config{
		Width:       width,
		MaxLen:      e.opts.MaxLen,
		EOS:         res.vocab.Special.EOS,
		Alpha:       beam.DefaultAlpha,
		Parallelism: e.opts.Parallelism,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, wrap(ErrDecode, "beam search", err)
	}

	keep := count
	if e.opts.Rescore {
		keep = max(2*count, 10)
	}
	words := e.unique(res, beam.Rank(cands, beam.DefaultAlpha), keep)

	if e.opts.Rescore {
		dict, err := e.dictionary(ctx, lang)
		if err != nil {
			return nil, err
		}
		words = rescore.Apply(words, dict, *e.opts.RescoreAlpha)
	}
	if len(words) > count {
		words = words[:count]
	}

	log.Debug("transliterated", "word", word, "candidates", len(cands), "results", len(words), "elapsed", time.Since(start))
	return words, nil
}

// unique detokenizes ranked candidates and keeps the first occurrence of each
// non-empty word, stopping at limit.
func (e *Engine) unique(res *resources, ranked []beam.Ranked, limit int) []ScoredWord {
	seen := make(map[string]struct{}, limit)
	out := make([]ScoredWord, 0, limit)
	for _, r := range ranked {
		w := res.tok.Decode(r.Tokens)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, ScoredWord{Word: w, Score: r.Normalized})
		if len(out) == limit {
			break
		}
	}
	return out
}

func safeEncode(ctx context.Context, m backend.Model, src []int) (st backend.State, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Encode: %v", rec)
		}
	}()
	st, err = m.Encode(ctx, src)
	if err == nil && st == nil {
		err = errors.New("encoder returned no state")
	}
	return st, err
}
