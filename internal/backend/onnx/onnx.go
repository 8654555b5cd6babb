// Package onnx runs the exported transliteration encoder and decoder through
// ONNX Runtime.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/cpuid/v2"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/samcharles93/indicxlit/internal/backend"
)

const (
	EncoderFile = "indicxlit_encoder.onnx"
	DecoderFile = "indicxlit_decoder_v2.onnx"

	// LibraryEnv overrides the shared library location.
	LibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"
)

var (
	encoderInputs  = []string{"src_tokens"}
	encoderOutputs = []string{"encoder_out"}
	decoderInputs  = []string{"prev_tokens", "encoder_out"}
	decoderOutputs = []string{"decoder_out"}
)

// ErrRuntimeUnavailable reports that the ONNX Runtime library could not be loaded.
var ErrRuntimeUnavailable = errors.New("onnx runtime unavailable")

var (
	envMu   sync.Mutex
	envLib  string
	envInit bool
)

// initEnvironment loads the shared library once per process. A later call with
// a different library path is an error since ORT cannot be reloaded.
func initEnvironment(lib string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if lib == "" {
		lib = os.Getenv(LibraryEnv)
	}
	if envInit {
		if lib != "" && lib != envLib {
			return fmt.Errorf("%w: already initialized with %q", ErrRuntimeUnavailable, envLib)
		}
		return nil
	}
	if lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}
	envLib = lib
	envInit = true
	return nil
}

// DefaultThreads is the number of physical cores, or 1 when unknown.
func DefaultThreads() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return 1
}

// Model holds the encoder and decoder sessions.
type Model struct {
	encoder *ort.DynamicAdvancedSession
	decoder *ort.DynamicAdvancedSession
}

var _ backend.Model = (*Model)(nil)

// Open is a backend.Opener.
func Open(ctx context.Context, cfg backend.Config) (backend.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	provider, err := backend.Normalize(cfg.Provider)
	if err != nil {
		return nil, err
	}

	encPath := filepath.Join(cfg.Dir, EncoderFile)
	decPath := filepath.Join(cfg.Dir, DecoderFile)
	for _, p := range []string{encPath, decPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model file: %w", err)
		}
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	opts, err := sessionOptions(provider, cfg.Threads)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	encoder, err := ort.NewDynamicAdvancedSession(encPath, encoderInputs, encoderOutputs, opts)
	if err != nil {
		return nil, fmt.Errorf("load encoder: %w", err)
	}
	cleanup := func() { _ = encoder.Destroy() }

	decoder, err := ort.NewDynamicAdvancedSession(decPath, decoderInputs, decoderOutputs, opts)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("load decoder: %w", err)
	}
	return &Model{encoder: encoder, decoder: decoder}, nil
}

func sessionOptions(provider string, threads int) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	if threads <= 0 {
		threads = DefaultThreads()
	}
	if err := opts.SetIntraOpNumThreads(threads); err != nil {
		_ = opts.Destroy()
		return nil, fmt.Errorf("set threads: %w", err)
	}
	if provider == backend.CPU {
		return opts, nil
	}

	cudaErr := appendCUDA(opts)
	if cudaErr != nil && provider == backend.CUDA {
		_ = opts.Destroy()
		return nil, fmt.Errorf("cuda provider: %w", cudaErr)
	}
	// auto falls back to the default CPU provider.
	return opts, nil
}

func appendCUDA(opts *ort.SessionOptions) error {
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cuda.Destroy()
	return opts.AppendExecutionProviderCUDA(cuda)
}

type state struct {
	out ort.Value
}

func (s *state) Close() error {
	if s.out == nil {
		return nil
	}
	err := s.out.Destroy()
	s.out = nil
	return err
}

func (m *Model) Encode(ctx context.Context, src []int) (backend.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := idsTensor(src)
	if err != nil {
		return nil, err
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := m.encoder.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("run encoder: %w", err)
	}
	return &state{out: outputs[0]}, nil
}

func (m *Model) DecodeStep(ctx context.Context, prev []int, enc backend.State) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, ok := enc.(*state)
	if !ok || st.out == nil {
		return nil, errors.New("decode: invalid encoder state")
	}
	in, err := idsTensor(prev)
	if err != nil {
		return nil, err
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := m.decoder.Run([]ort.Value{in, st.out}, outputs); err != nil {
		return nil, fmt.Errorf("run decoder: %w", err)
	}
	defer outputs[0].Destroy()

	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("decoder output: unexpected type %T", outputs[0])
	}
	// The tensor memory is released on return.
	data := t.GetData()
	logits := make([]float32, len(data))
	copy(logits, data)
	return logits, nil
}

func (m *Model) Close() error {
	var errs []error
	if m.decoder != nil {
		errs = append(errs, m.decoder.Destroy())
		m.decoder = nil
	}
	if m.encoder != nil {
		errs = append(errs, m.encoder.Destroy())
		m.encoder = nil
	}
	return errors.Join(errs...)
}

func idsTensor(ids []int) (*ort.Tensor[int64], error) {
	data := make([]int64, len(ids))
	for i, id := range ids {
		data[i] = int64(id)
	}
	t, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	return t, nil
}
