package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shineum/contact-relay/internal/submission"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

type response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func writeOutcome(w http.ResponseWriter, o submission.Outcome) {
	if o.OK() {
		writeJSON(w, response{Status: statusOK}, http.StatusOK)
		return
	}
	writeError(w, o.Message, o.HTTPStatus())
}

func writeError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, response{Status: statusError, Error: msg}, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
