package http_handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/devstudio/site-api/internal/application/profile"
	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/transport/http/dto"
	"github.com/devstudio/site-api/internal/transport/http/middleware"
	"github.com/devstudio/site-api/internal/transport/http/response"
)

const (
	msgUploadOK = "Profile uploaded successfully"

	fieldResume    = "resumeFile"
	fieldPortfolio = "portfolioFile"
	fieldProject   = "projectZip"
	fieldLinks     = "portfolioLinks"

	// parts above this are spooled to disk by mime/multipart
	multipartMemory = 8 << 20
)

type ProfileService interface {
	Upload(ctx context.Context, userID string, in profile.UploadInput) (domain.User, error)
}

type UploadHandler struct {
	svc         ProfileService
	maxFileSize int64
}

func NewUploadHandler(svc ProfileService, maxFileSize int64) *UploadHandler {
	if maxFileSize <= 0 {
		maxFileSize = profile.MaxFileSize
	}
	return &UploadHandler{svc: svc, maxFileSize: maxFileSize}
}

// Profile handles POST /api/uploads/profile (multipart/form-data).
func (h *UploadHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	// 3 fields x MaxFilesPerField files, plus headroom for text fields and part headers
	limit := 3*profile.MaxFilesPerField*h.maxFileSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.WriteError(w, r, domain.ErrPayloadTooLarge(h.maxFileSize))
			return
		}
		response.WriteError(w, r, domain.ErrInvalidUpload("malformed multipart body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	for field := range r.MultipartForm.File {
		switch field {
		case fieldResume, fieldPortfolio, fieldProject:
		default:
			response.WriteError(w, r, domain.ErrInvalidUpload("unexpected file field "+field))
			return
		}
	}

	in := profile.UploadInput{PortfolioLinks: r.FormValue(fieldLinks)}
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for field, dst := range map[string]*[]profile.File{
		fieldResume:    &in.ResumeFiles,
		fieldPortfolio: &in.PortfolioFiles,
		fieldProject:   &in.ProjectFiles,
	} {
		for _, fh := range r.MultipartForm.File[field] {
			if fh.Size > h.maxFileSize {
				response.WriteError(w, r, domain.ErrPayloadTooLarge(h.maxFileSize))
				return
			}
			f, err := fh.Open()
			if err != nil {
				response.WriteError(w, r, domain.ErrInvalidUpload("unreadable file part"))
				return
			}
			opened = append(opened, f)
			*dst = append(*dst, profile.File{
				OriginalName: fh.Filename,
				ContentType:  fh.Header.Get("Content-Type"),
				Size:         fh.Size,
				Body:         f,
			})
		}
	}

	u, err := h.svc.Upload(r.Context(), userID, in)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.UploadData{Message: msgUploadOK, User: dto.NewUserView(u)})
}
