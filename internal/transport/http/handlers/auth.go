package http_handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/application/auth"
	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/logger"
	"github.com/devstudio/site-api/internal/transport/http/dto"
	"github.com/devstudio/site-api/internal/transport/http/middleware"
	"github.com/devstudio/site-api/internal/transport/http/response"
)

const (
	msgSignupOK   = "Sign-up successful. A verification link has been sent to your inbox."
	msgVerifiedOK = "Email verified successfully"
)

type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (domain.User, error)
	Login(ctx context.Context, email, password string) (auth.AuthResult, error)
	OAuthLogin(ctx context.Context, in auth.OAuthInput) (auth.AuthResult, error)
	VerifyEmail(ctx context.Context, token string) (domain.User, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.svc.Signup(r.Context(), req.Input())
	if err != nil {
		middleware.SignupsTotal.WithLabelValues(errCode(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.SignupsTotal.WithLabelValues("success").Inc()

	l := logger.WithCtx(r.Context(), zlog.Logger)
	l.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user_signed_up")

	response.Created(w, dto.MessageData{Message: msgSignupOK})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues(errCode(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	response.OK(w, dto.AuthData{Token: res.Token, User: dto.NewUserView(res.User)})
}

// OAuth handles POST /api/auth/oauth/{provider}
func (h *AuthHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var req dto.OAuthRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.OAuthLogin(r.Context(), req.Input(provider))
	if err != nil {
		middleware.OAuthLoginsTotal.WithLabelValues(metricProvider(provider), errCode(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.OAuthLoginsTotal.WithLabelValues(metricProvider(provider), "success").Inc()

	response.OK(w, dto.AuthData{Token: res.Token, User: dto.NewUserView(res.User)})
}

// Verify handles GET /api/auth/verify/{token}
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageData{Message: msgVerifiedOK})
}

// Profile handles GET /api/auth/profile. Auth has already loaded the account.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	response.OK(w, dto.UserData{User: dto.NewUserView(u.User)})
}

// metricProvider keeps label cardinality bounded.
func metricProvider(p string) string {
	if domain.IsValidProvider(p) {
		return strings.ToLower(p)
	}
	return "other"
}
