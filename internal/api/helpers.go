package api

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/indicxlit/internal/inference"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, ResponseError{Message: msg, Type: "invalid_request_error"})
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, ResponseError{Message: msg, Type: "not_found_error"})
}

func writeError(c *echo.Context, status int, body ResponseError) error {
	return c.JSON(status, map[string]any{"error": body})
}

// writeEngineError renders err with the status its kind maps to.
func writeEngineError(c *echo.Context, err error, param string) error {
	status, typ := classify(err)
	body := ResponseError{Message: err.Error(), Type: typ, Param: param}
	var langErr *inference.UnsupportedLanguageError
	if errors.As(err, &langErr) {
		body.Valid = langErr.Valid
	}
	return writeError(c, status, body)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
