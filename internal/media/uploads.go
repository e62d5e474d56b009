// Package media stores downloaded images in the local upload area.
package media

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"post_syncer/internal/domain"
)

// FilenamePrefix seeds every generated upload filename.
const FilenamePrefix = "image_"

const defaultExtension = "jpg"

var mimeExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

var extensionMimes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// ExtensionFor maps a Content-Type header to a file extension.
// Unknown or missing types fall back to jpg.
func ExtensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return defaultExtension
	}
	if ext, ok := mimeExtensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	return defaultExtension
}

// MimeTypeFor derives the MIME type from a filename's extension.
func MimeTypeFor(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if m, ok := extensionMimes[ext]; ok {
		return m
	}
	return ""
}

// Uploads writes files under {root}/{YYYY}/{MM}/ with collision-free names.
type Uploads struct {
	root string
	mu   sync.Mutex
}

func NewUploads(root string) (*Uploads, error) {
	if root == "" {
		return nil, errors.New("upload root cannot be empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}

	return &Uploads{root: root}, nil
}

func (u *Uploads) Root() string {
	return u.root
}

// Save writes data to a new file named image_<id>.<ext> in the dated directory for now.
func (u *Uploads) Save(data []byte, ext string, now time.Time) (*domain.StoredFile, error) {
	if ext == "" {
		ext = defaultExtension
	}

	rel := filepath.Join(now.Format("2006"), now.Format("01"))
	dir := filepath.Join(u.root, rel)

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate filename: %w", err)
	}

	filename := uniqueFilename(dir, FilenamePrefix+id+"."+ext)

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &domain.StoredFile{
		Filename: filename,
		Path:     filepath.ToSlash(filepath.Join(rel, filename)),
		Size:     int64(len(data)),
	}, nil
}

// uniqueFilename appends -1, -2, ... before the extension until the name is free.
func uniqueFilename(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = stem + "-" + strconv.Itoa(i) + ext
	}
}
