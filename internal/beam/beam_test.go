package beam

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/samcharles93/indicxlit/internal/backend"
	"github.com/samcharles93/indicxlit/internal/logits"
)

const (
	testEOS   = 2
	testVocab = 6
)

type nopState struct{}

func (nopState) Close() error { return nil }

// scriptedModel returns logits that depend only on how many tokens the
// prefix has emitted, repeated for every position.
type scriptedModel struct {
	rows  map[int][]float32
	fail  int // emitted count at which DecodeStep fails; -1 disables
	calls atomic.Int64
}

var errBackend = errors.New("backend exploded")

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		fail: -1,
		rows: map[int][]float32{
			0: {0, 0, 2, 0, 3, 1},
			1: {0, 0, 1, 0, 0.5, 3},
			2: {0, 0, 3, 0, 1, 0.5},
		},
	}
}

func (m *scriptedModel) row(emitted int) []float32 {
	if r, ok := m.rows[emitted]; ok {
		return r
	}
	return []float32{0, 0, 5, 0, 0, 0}
}

func (m *scriptedModel) Encode(context.Context, []int) (backend.State, error) {
	return nopState{}, nil
}

func (m *scriptedModel) DecodeStep(ctx context.Context, prev []int, _ backend.State) ([]float32, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emitted := len(prev) - 1
	if emitted == m.fail {
		return nil, errBackend
	}
	r := m.row(emitted)
	out := make([]float32, 0, len(prev)*len(r))
	for range prev {
		out = append(out, r...)
	}
	return out, nil
}

func (m *scriptedModel) Close() error { return nil }

func testConfig(width int) Config {
	return Config{Width: width, MaxLen: 10, EOS: testEOS, Alpha: DefaultAlpha, Parallelism: width}
}

func TestSearchScoresAreExactPathSums(t *testing.T) {
	t.Parallel()

	m := newScriptedModel()
	cands, err := Search(context.Background(), m, nopState{}, testConfig(3))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected candidates")
	}

	for _, c := range cands {
		if c.Tokens[0] != testEOS {
			t.Fatalf("candidate %v does not start with the start marker", c.Tokens)
		}
		var want float64
		for k := 1; k < len(c.Tokens); k++ {
			row := append([]float32(nil), m.row(k-1)...)
			if k-1 < MinLen {
				row[testEOS] = float32(math.Inf(-1))
			}
			lp := logits.LogSoftmax(nil, row)
			want += lp[c.Tokens[k]]
		}
		if c.Score != want {
			t.Fatalf("candidate %v score = %v, want exact sum %v", c.Tokens, c.Score, want)
		}
	}
}

func TestSearchFirstTokenIsNeverEOS(t *testing.T) {
	t.Parallel()

	m := newScriptedModel()
	// eos is the strongest logit on the first step.
	m.rows[0] = []float32{0, 0, 9, 0, 1, 0.5}
	cands, err := Search(context.Background(), m, nopState{}, testConfig(2))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, c := range cands {
		if len(c.Tokens) > 1 && c.Tokens[1] == testEOS {
			t.Fatalf("candidate %v terminated on the first emitted token", c.Tokens)
		}
	}
}

func TestSearchFinishedCandidatesEndWithEOS(t *testing.T) {
	t.Parallel()

	cands, err := Search(context.Background(), newScriptedModel(), nopState{}, testConfig(2))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	sawFinished := false
	for _, c := range cands {
		last := c.Tokens[len(c.Tokens)-1]
		if c.Finished != (last == testEOS) {
			t.Fatalf("candidate %v finished=%v", c.Tokens, c.Finished)
		}
		sawFinished = sawFinished || c.Finished
	}
	if !sawFinished {
		t.Fatal("expected at least one finished candidate")
	}
}

func TestSearchMaxLenKeepsActiveBeams(t *testing.T) {
	t.Parallel()

	cfg := testConfig(2)
	cfg.MaxLen = 1
	cands, err := Search(context.Background(), newScriptedModel(), nopState{}, cfg)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("len(cands) = %d, want 2", len(cands))
	}
	for _, c := range cands {
		if c.Finished || len(c.Tokens) != 2 {
			t.Fatalf("unexpected candidate %+v", c)
		}
	}
	if cands[0].Tokens[1] != 4 || cands[1].Tokens[1] != 5 {
		t.Fatalf("active beams not ordered by score: %v, %v", cands[0].Tokens, cands[1].Tokens)
	}
}

func TestSearchParallelismDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	seq := testConfig(3)
	seq.Parallelism = 1
	want, err := Search(context.Background(), newScriptedModel(), nopState{}, seq)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	got, err := Search(context.Background(), newScriptedModel(), nopState{}, testConfig(3))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parallel result differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestSearchDecodeErrorAborts(t *testing.T) {
	t.Parallel()

	m := newScriptedModel()
	m.fail = 1
	cands, err := Search(context.Background(), m, nopState{}, testConfig(2))
	if cands != nil {
		t.Fatalf("expected no partial output, got %v", cands)
	}
	if !errors.Is(err, errBackend) {
		t.Fatalf("Search() error = %v, want backend error", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != 1 {
		t.Fatalf("expected StepError at step 1, got %v", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Search(ctx, newScriptedModel(), nopState{}, testConfig(2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Search() error = %v, want context.Canceled", err)
	}
}

func TestSearchMalformedLogits(t *testing.T) {
	t.Parallel()

	m := newScriptedModel()
	m.rows[0] = []float32{0, 0, float32(math.NaN()), 0, 1, 1}
	_, err := Search(context.Background(), m, nopState{}, testConfig(2))
	if !errors.Is(err, ErrMalformedLogits) {
		t.Fatalf("Search() error = %v, want ErrMalformedLogits", err)
	}
}

func TestSearchValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := Search(context.Background(), newScriptedModel(), nopState{}, Config{Width: 0, MaxLen: 5}); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := Search(context.Background(), newScriptedModel(), nopState{}, Config{Width: 2, MaxLen: 0}); err == nil {
		t.Fatal("expected error for zero max length")
	}
}

func TestExtendDoesNotAlias(t *testing.T) {
	t.Parallel()

	parent := Candidate{Tokens: make([]int, 1, 8)}
	parent.Tokens[0] = testEOS
	a := parent.extend(4, -1, testEOS)
	b := parent.extend(5, -2, testEOS)
	if a.Tokens[1] != 4 || b.Tokens[1] != 5 {
		t.Fatalf("siblings share storage: %v %v", a.Tokens, b.Tokens)
	}
	if !b.extend(testEOS, -0.5, testEOS).Finished {
		t.Fatal("eos extension should be finished")
	}
	if b.Score != -2 {
		t.Fatalf("b.Score = %v", b.Score)
	}
}

func TestCanStop(t *testing.T) {
	t.Parallel()

	cfg := testConfig(1)
	finished := []Candidate{{Score: -0.1, Tokens: []int{2, 4, 2}, Finished: true}}
	weak := []Candidate{{Score: -50, Tokens: []int{2, 4, 5}}}
	strong := []Candidate{{Score: -0.01, Tokens: []int{2, 4, 5}}}

	if !canStop(nil, finished, cfg) {
		t.Fatal("empty active set should stop")
	}
	if !canStop(weak, finished, cfg) {
		t.Fatal("hopeless frontier should stop")
	}
	if canStop(strong, finished, cfg) {
		t.Fatal("competitive frontier should continue")
	}
	if canStop(weak, nil, cfg) {
		t.Fatal("should not stop before enough candidates finish")
	}
}

func TestCanStopNormalizesEachFinishedCandidate(t *testing.T) {
	t.Parallel()

	cfg := testConfig(2)
	// -1/LP(1) = -1 and -6/LP(10) = -2.4; the worst finished score is -2.4.
	finished := []Candidate{
		{Score: -1, Tokens: []int{2, 2}, Finished: true},
		{Score: -6, Tokens: []int{2, 4, 4, 4, 4, 4, 4, 4, 4, 4, 2}, Finished: true},
	}
	// Bound uses emitted+3 = 5 tokens: -5/LP(5) = -3.
	active := []Candidate{{Score: -5, Tokens: []int{2, 4, 5}}}

	if !canStop(active, finished, cfg) {
		t.Fatal("bound -3 is below the worst finished score -2.4; search should stop")
	}

	// -3/LP(5) = -1.8 can still beat the worst finished score.
	active = []Candidate{{Score: -3, Tokens: []int{2, 4, 5}}}
	if canStop(active, finished, cfg) {
		t.Fatal("bound -1.8 can still beat -2.4; search should continue")
	}
}
