package domain

import (
	"strings"
	"time"
)

// SessionTTL is the fixed lifetime of a session token.
const SessionTTL = 7 * 24 * time.Hour

// User is the account record. PasswordHash and VerificationToken never leave
// the service layer; transport maps users through dto.UserView.
type User struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Verified          bool
	VerificationToken *string
	Role              string
	ContactPhone      string

	ResumeFiles    []UploadedFile
	PortfolioFiles []UploadedFile
	ProjectFiles   []UploadedFile
	PortfolioLinks []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UploadedFile is the metadata kept for one stored profile file.
type UploadedFile struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// AttachmentsPatch is appended to a user by the upload workflow.
type AttachmentsPatch struct {
	ResumeFiles    []UploadedFile
	PortfolioFiles []UploadedFile
	ProjectFiles   []UploadedFile
	PortfolioLinks []string
}

func (p AttachmentsPatch) Empty() bool {
	return len(p.ResumeFiles) == 0 && len(p.PortfolioFiles) == 0 &&
		len(p.ProjectFiles) == 0 && len(p.PortfolioLinks) == 0
}

// Apply appends the patch to u. Links are merged keeping first-seen order.
func (p AttachmentsPatch) Apply(u *User) {
	u.ResumeFiles = append(u.ResumeFiles, p.ResumeFiles...)
	u.PortfolioFiles = append(u.PortfolioFiles, p.PortfolioFiles...)
	u.ProjectFiles = append(u.ProjectFiles, p.ProjectFiles...)
	u.PortfolioLinks = MergeLinks(u.PortfolioLinks, p.PortfolioLinks)
}

// MergeLinks returns existing followed by the unseen entries of incoming.
func MergeLinks(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, l := range append(append([]string{}, existing...), incoming...) {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// NormalizeEmail returns the canonical identity form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
