package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/domain"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = &domain.StatusError{Status: http.StatusBadRequest, Message: "invalid JSON body"}

type apiFunc func(http.ResponseWriter, *http.Request) error

// handle adapts an error-returning handler and maps its failure to a response.
func (h *Handler) handle(fn apiFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.writeError(w, r, err)
		}
	})
}

// writeError renders a plain-text error. Validation failures report the first
// failing field; unclassified errors are logged and hidden behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(http.StatusInternalServerError)

	var statusErr *domain.StatusError
	if v, ok := domain.AsValidation(err); ok {
		status, message = http.StatusBadRequest, v.Message
	} else if errors.As(err, &statusErr) {
		status, message = statusErr.Status, statusErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger := zerolog.Ctx(r.Context())
		if logger.GetLevel() == zerolog.Disabled {
			logger = &h.logger
		}
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// readFields collects form fields from a JSON, multipart or urlencoded body.
// JSON scalars are stringified so every encoding flows through the same coercion.
func readFields(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	switch {
	case mediaType == "application/json":
		var raw map[string]json.RawMessage
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, errMalformedBody
		}
		fields := url.Values{}
		for key, value := range raw {
			fields.Set(key, jsonScalar(value))
		}
		return fields, nil
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, &domain.StatusError{Status: http.StatusBadRequest, Message: "invalid form body"}
		}
		return r.PostForm, nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, &domain.StatusError{Status: http.StatusBadRequest, Message: "invalid form body"}
		}
		return r.PostForm, nil
	}
}

func jsonScalar(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}
