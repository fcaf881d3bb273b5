package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/devstudio/site-api/internal/domain"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 1 << 20

// DecodeJSON decodes a single JSON value from the request body into dst.
// Unknown fields are ignored; trailing values and oversized bodies are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBody))

	if err := dec.Decode(dst); err != nil {
		return decodeErr(err)
	}

	// Disallow trailing data: {}{}
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeErr(err)
	}

	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}

func decodeErr(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return domain.ErrPayloadTooLarge(tooBig.Limit)
	}
	return domain.ErrInvalidJSON(err)
}
