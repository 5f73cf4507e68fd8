package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError renders err in the unified error envelope. Coded errors keep
// their status and code. Anything else is logged and rendered as
// SERVER_ERROR, with the cause only when expose is set.
func writeError(w http.ResponseWriter, err error, expose bool) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		jsonResponse(w, appErr.Status(), errorResponse{Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	slog.Error("request failed", "error", err)
	body := errorBody{Code: apperr.CodeServerError, Message: "Internal server error"}
	if expose {
		body.Details = err.Error()
	}
	jsonResponse(w, http.StatusInternalServerError, errorResponse{Error: body})
}

var errInvalidBody = apperr.Validation(apperr.CodeValidation, "Invalid request body")

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errInvalidBody.WithCause(err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody.WithCause(err)
	}
	return nil
}

// pageFromQuery reads the page and limit query parameters. Missing values
// fall back to the store defaults.
func pageFromQuery(r *http.Request) (store.Page, error) {
	var p store.Page
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"limit", &p.Limit}} {
		s := q.Get(f.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, apperr.Newf(apperr.KindValidation, apperr.CodeValidation,
				"%s must be a positive integer", f.name)
		}
		*f.dst = n
	}
	return p, nil
}
