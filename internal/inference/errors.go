package inference

import (
	"errors"

	"github.com/samcharles93/indicxlit/internal/tokenizer"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrModelLoad         = errors.New("model load failed")
	ErrDecode            = errors.New("decode failed")
	ErrDictionaryMissing = errors.New("word probability dictionary missing")
	ErrDisposed          = errors.New("engine disposed")

	// Shared with the tokenizer so errors.Is matches at either level.
	ErrUnsupportedLanguage  = tokenizer.ErrUnsupportedLanguage
	ErrUnsupportedDirection = tokenizer.ErrUnsupportedDirection
)

// UnsupportedLanguageError lists the codes that would have been accepted.
type UnsupportedLanguageError = tokenizer.UnsupportedLanguageError

type invalidInputError struct {
	msg string
}

func (e invalidInputError) Error() string {
	return e.msg
}

func (e invalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func newInvalidInput(msg string) error {
	return invalidInputError{msg: msg}
}

// wrapError tags err with kind while keeping err reachable through errors.Is.
type wrapError struct {
	kind error
	msg  string
	err  error
}

func (e *wrapError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrapError) Unwrap() []error {
	return []error{e.kind, e.err}
}

func wrap(kind error, msg string, err error) error {
	return &wrapError{kind: kind, msg: msg, err: err}
}
