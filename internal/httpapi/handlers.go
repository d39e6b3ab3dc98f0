package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vvka-141/intake/internal/forms"
	"github.com/vvka-141/intake/pkg/intake"
)

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleSubmit(form forms.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := forms.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			w.Header().Set("X-Request-Id", uuid.NewString())
			msg := "Request body must be valid JSON."
			if errors.Is(err, forms.ErrNotObject) {
				msg = "Request body must be a JSON object."
			}
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msg})
			return
		}

		req, err := form.Build(fields)
		if err != nil {
			w.Header().Set("X-Request-Id", uuid.NewString())
			var verr *intake.ValidationError
			if errors.As(err, &verr) {
				s.logger.Verbose("Rejected %s submission: %v", form.Name, verr)
				writeJSON(w, http.StatusBadRequest, map[string]string{form.Missing.Key: form.Missing.Message})
				return
			}
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
			return
		}
		w.Header().Set("X-Request-Id", req.ID().String())

		// The write outlives a client that hangs up, bounded by WriteTimeout.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.WriteTimeout)
		defer cancel()

		outcome := s.recorder.Record(ctx, req)
		if !outcome.Succeeded() {
			writeJSON(w, http.StatusInternalServerError, messageResponse{
				Message: "Database error",
				Error:   outcome.Reason(),
			})
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Success!"})
	}
}

func (s *Server) handleKeepalive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
