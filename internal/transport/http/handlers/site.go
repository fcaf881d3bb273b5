package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devstudio/site-api/internal/application/site"
	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/transport/http/dto"
	"github.com/devstudio/site-api/internal/transport/http/middleware"
	"github.com/devstudio/site-api/internal/transport/http/response"
)

const (
	msgContactOK = "Message stored. We will be in touch soon."
	msgReplyOK   = "Reply sent"
)

type SiteService interface {
	SubmitContact(ctx context.Context, in site.ContactInput) (domain.ContactMessage, error)
	ListActiveAds(ctx context.Context) ([]domain.Ad, error)
	ListAds(ctx context.Context) ([]domain.Ad, error)
	CreateAd(ctx context.Context, in site.AdInput) (domain.Ad, error)
	UpdateAd(ctx context.Context, id string, patch domain.AdPatch) (domain.Ad, error)
	ListMessages(ctx context.Context) ([]domain.ContactMessage, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	Reply(ctx context.Context, adminID string, in site.ReplyInput) error
}

// SiteHandler serves the public contact/ads endpoints and the admin dashboard API.
type SiteHandler struct {
	svc SiteService
	now func() time.Time
}

func NewSiteHandler(svc SiteService) *SiteHandler {
	return &SiteHandler{svc: svc, now: time.Now}
}

// Contact handles POST /api/contact
func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	m, err := h.svc.SubmitContact(r.Context(), req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.ContactData{Message: msgContactOK, Contact: dto.NewContactView(m)})
}

// ActiveAds handles GET /api/ads
func (h *SiteHandler) ActiveAds(w http.ResponseWriter, r *http.Request) {
	ads, err := h.svc.ListActiveAds(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewAdViews(ads))
}

// Status handles GET /api/status
func (h *SiteHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, dto.StatusData{Status: "ok", Timestamp: h.now().UTC().Format(time.RFC3339)})
}

// -------- admin --------

func (h *SiteHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ListMessages(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewContactViews(ms))
}

func (h *SiteHandler) Users(w http.ResponseWriter, r *http.Request) {
	us, err := h.svc.ListUsers(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserViews(us))
}

func (h *SiteHandler) Ads(w http.ResponseWriter, r *http.Request) {
	ads, err := h.svc.ListAds(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewAdViews(ads))
}

func (h *SiteHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAdRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ad, err := h.svc.CreateAd(r.Context(), req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.NewAdView(ad))
}

func (h *SiteHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAdRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ad, err := h.svc.UpdateAd(r.Context(), chi.URLParam(r, "id"), req.Patch())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewAdView(ad))
}

func (h *SiteHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req dto.ReplyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	adminID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.svc.Reply(r.Context(), adminID, req.Input()); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageData{Message: msgReplyOK})
}
