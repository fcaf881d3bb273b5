package response

import (
	"encoding/json"
	"net/http"

	zlog "github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Envelope wraps every successful API body as {"data": ...}.
type Envelope struct {
	Data any `json:"data"`
}

// WriteJSON writes v as-is. API handlers use OK and Created; the probes
// write bare bodies through this.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are gone; the client hung up or the value is not encodable
		zlog.Debug().Err(err).Int("status", status).Msg("response encode failed")
	}
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Data: data})
}
