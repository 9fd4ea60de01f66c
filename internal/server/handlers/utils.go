package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/server/responses"
)

// writeJSON serializes the provided value to JSON and writes it with the given
// status code. Encoding goes through a buffer so a failed encode never sends a
// partial response.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

// writeJSONPretty pretty prints when ?pretty=1 or ?pretty=true is set.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if r != nil {
		if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
			b, err := json.MarshalIndent(v, "", "  ")
			if err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(status)
				if _, werr := w.Write(append(b, '\n')); werr != nil {
					slog.Error("failed writing pretty JSON", logfields.Error(werr))
					return werr
				}
				return nil
			}
			slog.Warn("pretty JSON marshal failed, falling back to standard encode", logfields.Error(err))
		}
	}
	return writeJSON(w, status, v)
}

// writeError writes an ErrorResponse. The category comes from the error chain.
func writeError(w http.ResponseWriter, status int, err error) {
	body := responses.ErrorResponse{
		Error:    err.Error(),
		Category: string(perrors.GetCategory(err)),
	}
	if pe, ok := perrors.As(err); ok {
		body.Error = pe.Message
		if pe.Cause != nil {
			body.Error += ": " + pe.Cause.Error()
		}
	}
	if werr := writeJSON(w, status, body); werr != nil {
		http.Error(w, err.Error(), status)
	}
}
