package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/domain"
)

const (
	MaxFilesPerField = 2
	MaxFileSize      = 50 << 20

	discardTimeout = 10 * time.Second
)

// File is one multipart part handed over by the transport layer.
type File struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

type UploadInput struct {
	ResumeFiles    []File
	PortfolioFiles []File
	ProjectFiles   []File
	// PortfolioLinks is the raw form value: a JSON array or a comma separated list.
	PortfolioLinks string
}

type Service struct {
	users UserRepo
	files FileStore

	now     func() time.Time
	randInt func() int
	audit   func(ctx context.Context, action string, fields map[string]string)
	lg      zerolog.Logger
}

func NewService(users UserRepo, files FileStore) *Service {
	return &Service{
		users:   users,
		files:   files,
		now:     time.Now,
		randInt: func() int { return rand.IntN(1_000_000_001) },
		audit:   func(context.Context, string, map[string]string) {},
		lg:      zerolog.Nop(),
	}
}

func (s *Service) WithAudit(fn func(ctx context.Context, action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithLogger(lg zerolog.Logger) *Service {
	s.lg = lg.With().Str("component", "profile_service").Logger()
	return s
}

// Upload stores the files and appends their metadata to the user's profile.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (domain.User, error) {
	for field, files := range map[string][]File{
		"resumeFile":    in.ResumeFiles,
		"portfolioFile": in.PortfolioFiles,
		"projectZip":    in.ProjectFiles,
	} {
		if len(files) > MaxFilesPerField {
			return domain.User{}, domain.ErrInvalidUpload(fmt.Sprintf("at most %d files for %s", MaxFilesPerField, field))
		}
		for _, f := range files {
			if f.Size > MaxFileSize {
				return domain.User{}, domain.ErrPayloadTooLarge(MaxFileSize)
			}
		}
	}

	var (
		patch  domain.AttachmentsPatch
		stored []string
		err    error
	)
	patch.PortfolioLinks = ParsePortfolioLinks(in.PortfolioLinks)
	for _, group := range []struct {
		dst   *[]domain.UploadedFile
		files []File
	}{
		{&patch.ResumeFiles, in.ResumeFiles},
		{&patch.PortfolioFiles, in.PortfolioFiles},
		{&patch.ProjectFiles, in.ProjectFiles},
	} {
		*group.dst, stored, err = s.store(ctx, userID, group.files, stored)
		if err != nil {
			s.discard(userID, stored)
			return domain.User{}, err
		}
	}

	if patch.Empty() {
		return s.users.GetByID(ctx, userID)
	}

	u, err := s.users.AppendAttachments(ctx, userID, patch)
	if err != nil {
		// nothing references the files now
		s.discard(userID, stored)
		return domain.User{}, err
	}

	s.audit(ctx, "profile.upload", map[string]string{
		"user_id": userID,
		"files":   fmt.Sprint(len(patch.ResumeFiles) + len(patch.PortfolioFiles) + len(patch.ProjectFiles)),
		"links":   fmt.Sprint(len(patch.PortfolioLinks)),
	})
	return u, nil
}

// store puts files and returns their metadata along with keys extended by
// every key written, so the caller can discard them on a later failure.
func (s *Service) store(ctx context.Context, userID string, files []File, keys []string) ([]domain.UploadedFile, []string, error) {
	out := make([]domain.UploadedFile, 0, len(files))
	for _, f := range files {
		name := StoredFilename(s.now(), s.randInt(), f.OriginalName)
		url, err := s.files.Put(ctx, name, f.ContentType, f.Body, f.Size)
		if err != nil {
			s.lg.Error().Err(err).Str("user_id", userID).Str("file", name).Msg("file store failed")
			if domain.KindOf(err) == domain.KindValidation {
				return nil, keys, err
			}
			return nil, keys, domain.ErrStorageUnavailable(err)
		}
		keys = append(keys, name)
		out = append(out, domain.UploadedFile{
			Filename:     name,
			OriginalName: f.OriginalName,
			URL:          url,
			UploadedAt:   s.now().UTC(),
		})
	}
	return out, keys, nil
}

// discard removes files written by a failed upload. It runs on its own
// context since the request one may be what failed.
func (s *Service) discard(userID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), discardTimeout)
	defer cancel()
	for _, k := range keys {
		if err := s.files.Delete(ctx, k); err != nil {
			s.lg.Warn().Err(err).Str("user_id", userID).Str("file", k).Msg("orphaned upload not removed")
		}
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// StoredFilename is "{unix millis}-{random}-{original name with whitespace runs as '-'}".
// Path separators are replaced too so a name can never leave the upload root.
func StoredFilename(now time.Time, random int, original string) string {
	safe := whitespaceRun.ReplaceAllString(original, "-")
	safe = strings.NewReplacer("/", "-", `\`, "-").Replace(safe)
	if safe == "" || safe == "." || safe == ".." {
		safe = "file"
	}
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), random, safe)
}

// ParsePortfolioLinks accepts a JSON array of strings, falling back to a comma
// separated list when the value is not valid JSON. Entries are trimmed and
// empty ones dropped.
func ParsePortfolioLinks(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		arr, ok := parsed.([]any)
		if !ok {
			return nil
		}
		var out []string
		for _, v := range arr {
			if s, ok := v.(string); ok && s != "" {
				if t := strings.TrimSpace(s); t != "" {
					out = append(out, t)
				}
			}
		}
		return out
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
