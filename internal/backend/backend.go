package backend

import (
	"context"
	"fmt"
	"strings"
)

// Execution providers understood by Normalize.
const (
	CPU  = "cpu"
	CUDA = "cuda"
	Auto = "auto"
)

// Model is an encoder/decoder sequence model. Implementations must allow
// DecodeStep to be called concurrently for the same State.
type Model interface {
	// Encode runs the encoder once over the source ids.
	Encode(ctx context.Context, src []int) (State, error)
	// DecodeStep runs the decoder over prev and returns the flat logits for
	// every position, row-major [len(prev) x vocab].
	DecodeStep(ctx context.Context, prev []int, enc State) ([]float32, error)
	// Close releases the underlying sessions.
	Close() error
}

// State is an encoder output owned by one request.
type State interface {
	Close() error
}

// Config selects and tunes a backend.
type Config struct {
	// Dir holds the exported encoder and decoder graphs.
	Dir string
	// Provider is one of cpu, cuda or auto.
	Provider string
	// Threads bounds intra-op parallelism; 0 picks a default.
	Threads int
	// LibraryPath points at the ONNX Runtime shared library.
	LibraryPath string
}

// Opener loads a Model. The engine takes an Opener so tests can substitute
// an in-memory model.
type Opener func(ctx context.Context, cfg Config) (Model, error)

func Normalize(name string) (string, error) {
	provider := strings.ToLower(strings.TrimSpace(name))
	if provider == "" {
		return Auto, nil
	}
	switch provider {
	case CPU, CUDA, Auto:
		return provider, nil
	default:
		return "", fmt.Errorf("unknown execution provider %q (expected auto, cpu, or cuda)", provider)
	}
}
