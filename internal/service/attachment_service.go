package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/observability"
	"bulletin/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// UploadURLPrefix is the public path under which stored attachments are served.
	UploadURLPrefix = "/uploads/"
	// DefaultMaxUploadBytes is the per-file limit when none is configured.
	DefaultMaxUploadBytes int64 = 5 * 1024 * 1024
	maxSanitizedLength        = 100
)

var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// Upload is one file received with a post.
type Upload struct {
	Filename string
	Content  []byte
}

// Size returns the byte length of the upload.
func (u Upload) Size() int64 { return int64(len(u.Content)) }

// StoredFile is the result of storing one upload.
type StoredFile struct {
	URL        string
	Attachment models.Attachment
}

// AttachmentService validates, stores, serves and removes post attachments.
type AttachmentService struct {
	store    storage.Store
	maxBytes int64
}

// NewAttachmentService returns an AttachmentService writing through store.
// A maxBytes of 0 selects DefaultMaxUploadBytes.
func NewAttachmentService(store storage.Store, maxBytes int64) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &AttachmentService{store: store, maxBytes: maxBytes}
}

// MaxBytes returns the per-file size limit.
func (s *AttachmentService) MaxBytes() int64 { return s.maxBytes }

// Validate checks the extension and size of an upload.
func (s *AttachmentService) Validate(up Upload) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.Filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		observability.AttachmentRejections.WithLabelValues("type").Inc()
		return models.NewUnsupportedTypeError(fmt.Sprintf("File type not allowed: %s (allowed: jpg, jpeg, png, gif, webp)", displayName(up.Filename)))
	}
	if up.Size() > s.maxBytes {
		observability.AttachmentRejections.WithLabelValues("size").Inc()
		return models.NewTooLargeError(fmt.Sprintf("File too large: %s (max %dMB)", displayName(up.Filename), s.maxBytes/(1024*1024)))
	}
	return nil
}

// Store writes an upload as "<postID>_<sanitized name>" and returns its
// public URL together with the attachment metadata.
func (s *AttachmentService) Store(ctx context.Context, postID uint, up Upload) (*StoredFile, error) {
	return s.storeAs(ctx, StoredNames(postID, []Upload{up})[0], postID, up)
}

// StoreAll stores every upload of one post under distinct names. When one
// upload fails the ones already written are removed.
func (s *AttachmentService) StoreAll(ctx context.Context, postID uint, uploads []Upload) ([]models.Attachment, error) {
	names := StoredNames(postID, uploads)
	stored := make([]models.Attachment, 0, len(uploads))
	for i, up := range uploads {
		sf, err := s.storeAs(ctx, names[i], postID, up)
		if err != nil {
			s.RemoveAll(ctx, stored)
			return nil, err
		}
		stored = append(stored, sf.Attachment)
	}
	return stored, nil
}

// StoredNames returns the stored name of every upload of one post. Uploads
// whose sanitized names collide get a -1, -2, ... suffix before the extension.
func StoredNames(postID uint, uploads []Upload) []string {
	names := make([]string, len(uploads))
	taken := make(map[string]struct{}, len(uploads))
	for i, up := range uploads {
		base := SanitizeFilename(up.Filename)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)

		name := base
		for n := 1; ; n++ {
			if _, dup := taken[strings.ToLower(name)]; !dup {
				break
			}
			name = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		taken[strings.ToLower(name)] = struct{}{}
		names[i] = fmt.Sprintf("%d_%s", postID, name)
	}
	return names
}

func (s *AttachmentService) storeAs(ctx context.Context, storedName string, postID uint, up Upload) (*StoredFile, error) {
	if err := s.Validate(up); err != nil {
		return nil, err
	}

	contentType := mimetype.Detect(up.Content).String()

	if err := s.store.Put(ctx, storedName, bytes.NewReader(up.Content), up.Size(), contentType); err != nil {
		return nil, models.NewStoreError(err)
	}
	observability.AttachmentsStored.WithLabelValues(s.store.Backend()).Inc()
	observability.AttachmentBytes.Observe(float64(up.Size()))

	width, height := probeDimensions(up.Content)
	url := UploadURLPrefix + storedName
	return &StoredFile{
		URL: url,
		Attachment: models.Attachment{
			PostID:       postID,
			StoredName:   storedName,
			URL:          url,
			OriginalName: displayName(up.Filename),
			ContentType:  contentType,
			SizeBytes:    up.Size(),
			Width:        width,
			Height:       height,
		},
	}, nil
}

// Remove deletes the file behind a URL previously returned by Store.
// Failures are logged and counted, never returned.
func (s *AttachmentService) Remove(ctx context.Context, url string) {
	name, ok := strings.CutPrefix(url, UploadURLPrefix)
	if !ok || name == "" || name != path.Base(name) {
		return
	}
	err := s.store.Remove(ctx, name)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return
	}
	observability.CleanupFailures.Inc()
	middleware.Logger.WarnContext(ctx, "attachment cleanup failed",
		slog.String("name", name), slog.String("error", err.Error()))
}

// RemoveAll removes the files of every attachment in stored.
func (s *AttachmentService) RemoveAll(ctx context.Context, stored []models.Attachment) {
	for _, a := range stored {
		s.Remove(ctx, a.URL)
	}
}

// Open returns the stored object called name and its sniffed content type.
// Names containing characters Store never writes are reported as NotFound.
func (s *AttachmentService) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !isSafeName(name) {
		return nil, "", models.NewNotFoundError("File", name)
	}

	rc, err := s.store.Open(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", models.NewNotFoundError("File", name)
	}
	if err != nil {
		return nil, "", models.NewStoreError(err)
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		_ = rc.Close()
		return nil, "", models.NewStoreError(err)
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()

	return readCloser{Reader: io.MultiReader(bytes.NewReader(head), rc), Closer: rc}, contentType, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// SanitizeFilename reduces a client-supplied filename to a safe single path
// element: directories are stripped, spaces become underscores, only
// [A-Za-z0-9._-] survives, leading dots are dropped and the extension is
// lower-cased. A name with nothing left falls back to a short random stem.
func SanitizeFilename(name string) string {
	// Clients on Windows send backslash-separated paths.
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case safeRune(r):
			b.WriteRune(r)
		}
	}
	raw := b.String()

	ext := strings.ToLower(filepath.Ext(raw))
	stem := strings.Trim(strings.TrimSuffix(raw, filepath.Ext(raw)), "_-.")
	if stem == "" {
		stem = uuid.NewString()[:8]
	}
	out := stem + ext
	if len(out) > maxSanitizedLength {
		if len(ext) < maxSanitizedLength/2 {
			out = stem[:maxSanitizedLength-len(ext)] + ext
		} else {
			out = out[:maxSanitizedLength]
		}
	}
	return out
}

// isSafeName reports whether name could have been produced by Store.
func isSafeName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	for _, r := range name {
		if !safeRune(r) {
			return false
		}
	}
	return true
}

// safeRune reports whether r may appear in a stored name: [A-Za-z0-9._-].
func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return r == '.' || r == '_' || r == '-'
	}
}

// displayName is the client filename without any directory part.
func displayName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}

// probeDimensions reads image dimensions from the header only; undecodable
// content reports 0x0.
func probeDimensions(content []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
