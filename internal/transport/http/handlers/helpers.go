package http_handlers

import (
	"errors"
	"net/http"

	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/transport/http/dto"
	"github.com/devstudio/site-api/internal/transport/http/response"
)

// decodeAndValidate writes the error response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := response.DecodeJSON(w, r, dst); err != nil {
		response.WriteError(w, r, err)
		return false
	}
	if err := dto.Validate(dst); err != nil {
		response.WriteError(w, r, err)
		return false
	}
	return true
}

func errCode(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}
