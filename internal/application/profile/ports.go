package profile

import (
	"context"
	"io"

	"github.com/devstudio/site-api/internal/domain"
)

type UserRepo interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	// AppendAttachments appends files and merges links, returning the updated user.
	AppendAttachments(ctx context.Context, userID string, patch domain.AttachmentsPatch) (domain.User, error)
}

// FileStore persists an uploaded file under key and returns its public URL.
// Delete of a missing key is not an error.
type FileStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (url string, err error)
	Delete(ctx context.Context, key string) error
}
