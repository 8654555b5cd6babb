package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/indicxlit/internal/dictionary"
	"github.com/samcharles93/indicxlit/internal/inference"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps an engine error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, inference.ErrInvalidInput),
		errors.Is(err, inference.ErrUnsupportedLanguage),
		errors.Is(err, inference.ErrUnsupportedDirection):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, inference.ErrDictionaryMissing):
		return http.StatusConflict, "dictionary_missing_error"
	case errors.Is(err, inference.ErrDisposed):
		return http.StatusServiceUnavailable, "unavailable_error"
	case errors.Is(err, dictionary.ErrTooManyRedirects),
		errors.Is(err, dictionary.ErrNetwork),
		errors.Is(err, dictionary.ErrExtraction):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
