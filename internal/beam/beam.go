// Package beam implements beam search over a step-wise decoder.
package beam

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/indicxlit/internal/backend"
	"github.com/samcharles93/indicxlit/internal/logger"
	"github.com/samcharles93/indicxlit/internal/logits"
)

const (
	// MinLen is the number of tokens a candidate must emit before eos is allowed.
	MinLen = 1
	// lookahead is the number of extra tokens assumed when bounding the best
	// score an active beam can still reach.
	lookahead = 3
)

// ErrMalformedLogits reports decoder output that does not fit the request.
var ErrMalformedLogits = errors.New("malformed decoder output")

// Candidate is one hypothesis. Tokens starts with the eos start marker.
type Candidate struct {
	Score    float64
	Tokens   []int
	Finished bool
}

// Emitted is the number of tokens produced after the start marker.
func (c Candidate) Emitted() int {
	return len(c.Tokens) - 1
}

// extend returns a new candidate; the parent's tokens are never shared.
func (c Candidate) extend(tok int, logProb float64, eos int) Candidate {
	tokens := make([]int, len(c.Tokens)+1)
	copy(tokens, c.Tokens)
	tokens[len(c.Tokens)] = tok
	return Candidate{Score: c.Score + logProb, Tokens: tokens, Finished: tok == eos}
}

type Config struct {
	Width  int
	MaxLen int
	EOS    int
	// Alpha is the length penalty exponent used by the early stop bound.
	Alpha float64
	// Parallelism bounds concurrent DecodeStep calls within one step.
	Parallelism int
}

// StepError wraps a decoder failure with the step it happened in.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("decode step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Search runs beam search from the start marker and returns every finished
// candidate in the order it finished, followed by the beams still active when
// the search stopped.
func Search(ctx context.Context, model backend.Model, enc backend.State, cfg Config) ([]Candidate, error) {
	if cfg.Width <= 0 {
		return nil, fmt.Errorf("beam width must be positive, got %d", cfg.Width)
	}
	if cfg.MaxLen <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", cfg.MaxLen)
	}
	par := cfg.Parallelism
	if par <= 0 {
		par = cfg.Width
	}
	log := logger.FromContext(ctx)

	active := []Candidate{{Score: 0, Tokens: []int{cfg.EOS}}}
	var finished []Candidate

	step := 0
	for ; step < cfg.MaxLen && len(active) > 0; step++ {
		expansions := make([][]Candidate, len(active))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(par)
		for i, b := range active {
			g.Go(func() error {
				out, err := expand(gctx, model, enc, b, cfg)
				if err != nil {
					return err
				}
				expansions[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &StepError{Step: step, Err: err}
		}

		var pool []Candidate
		for _, exp := range expansions {
			for _, c := range exp {
				if c.Finished {
					finished = append(finished, c)
				} else {
					pool = append(pool, c)
				}
			}
		}
		slices.SortStableFunc(pool, func(a, b Candidate) int {
			return compareDesc(a.Score, b.Score)
		})
		if len(pool) > cfg.Width {
			pool = pool[:cfg.Width]
		}
		active = pool

		if canStop(active, finished, cfg) {
			step++
			break
		}
	}

	log.Debug("beam search finished", "steps", step, "finished", len(finished), "active", len(active))
	return append(finished, active...), nil
}

func expand(ctx context.Context, model backend.Model, enc backend.State, b Candidate, cfg Config) (_ []Candidate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in DecodeStep: %v", rec)
		}
	}()

	flat, err := model.DecodeStep(ctx, b.Tokens, enc)
	if err != nil {
		return nil, err
	}
	n := len(b.Tokens)
	if len(flat) == 0 || len(flat)%n != 0 {
		return nil, fmt.Errorf("%w: %d logits for %d positions", ErrMalformedLogits, len(flat), n)
	}
	vocabSize := len(flat) / n
	if cfg.EOS >= vocabSize {
		return nil, fmt.Errorf("%w: eos id %d outside vocabulary of %d", ErrMalformedLogits, cfg.EOS, vocabSize)
	}

	row := make([]float32, vocabSize)
	copy(row, flat[(n-1)*vocabSize:])
	if logits.HasNaN(row) {
		return nil, fmt.Errorf("%w: NaN logits", ErrMalformedLogits)
	}
	if b.Emitted() < MinLen {
		row[cfg.EOS] = float32(math.Inf(-1))
	}

	lp := logits.LogSoftmax(nil, row)
	top := logits.TopK(lp, 2*cfg.Width)
	out := make([]Candidate, 0, len(top))
	for _, tok := range top {
		out = append(out, b.extend(tok, lp[tok], cfg.EOS))
	}
	return out, nil
}

// canStop reports whether no active beam can still beat the worst finished
// candidate once enough candidates have finished.
func canStop(active, finished []Candidate, cfg Config) bool {
	if len(active) == 0 {
		return true
	}
	if len(finished) < cfg.Width {
		return false
	}
	worst := math.Inf(1)
	for _, c := range finished {
		if s := Normalize(c, cfg.Alpha); s < worst {
			worst = s
		}
	}
	best := active[0]
	bound := best.Score / LengthPenalty(best.Emitted()+lookahead, cfg.Alpha)
	return bound < worst
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
