package response

import (
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/logger"
	appCtx "github.com/devstudio/site-api/internal/pkg/context"
)

// ErrorBody is the wire shape of every failure:
// {"error":{"code","message","meta","request_id"}}.
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

var kindStatus = map[domain.ErrKind]int{
	domain.KindValidation:     http.StatusBadRequest,
	domain.KindAuth:           http.StatusUnauthorized,
	domain.KindForbidden:      http.StatusForbidden,
	domain.KindNotFound:       http.StatusNotFound,
	domain.KindConflict:       http.StatusConflict,
	domain.KindTooLarge:       http.StatusRequestEntityTooLarge,
	domain.KindRateLimited:    http.StatusTooManyRequests,
	domain.KindUpstream:       http.StatusBadGateway,
	domain.KindInfrastructure: http.StatusServiceUnavailable,
	domain.KindInternal:       http.StatusInternalServerError,
}

func statusFromKind(kind domain.ErrKind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WriteError renders err for the client. Anything that is not a domain error
// becomes internal_error. Causes are logged for 5xx and never serialized.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = &domain.Error{Kind: domain.KindInternal, Code: "internal_error", Message: "internal error", Cause: err}
	}
	status := statusFromKind(de.Kind)

	if status >= http.StatusInternalServerError {
		l := logger.WithCtx(r.Context(), zlog.Logger)
		l.Error().Err(err).Str("code", de.Code).Int("status", status).
			Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}

	WriteJSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      de.Code,
			Message:   de.Message,
			Meta:      de.Meta,
			RequestID: appCtx.GetRequestID(r.Context()),
		},
	})
}
