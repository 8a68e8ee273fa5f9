// Package storage persists uploaded ad photos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const URLPrefix = "/uploads/"

var (
	ErrForeignURL  = errors.New("image url is not managed by this store")
	ErrUnsupported = errors.New("unsupported image type")
)

// extensions is the allow-list of stored photo types. The file extension
// decides the Content-Type the photo is served with.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ExtensionFor maps a sniffed content type to the stored extension.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := extensions[contentType]
	return ext, ok
}

type ImageStore interface {
	// Save stores r for owner and returns its public URL. contentType must be
	// one of the allow-listed image types.
	Save(ctx context.Context, owner uint, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

func ownerPrefix(owner uint) string {
	return "photo-" + strconv.FormatUint(uint64(owner), 10) + "-"
}

// Managed reports whether url points into the upload directory.
func Managed(url string) bool {
	return strings.HasPrefix(url, URLPrefix)
}

// OwnedBy reports whether url is a stored photo uploaded by owner.
func OwnedBy(url string, owner uint) bool {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name != path.Base(name) {
		return false
	}
	return strings.HasPrefix(name, ownerPrefix(owner))
}

type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, owner uint, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, contentType)
	}

	name := ownerPrefix(owner) + uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage: close: %w", err)
	}
	return URLPrefix + name, nil
}

// Delete removes the file behind url. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || name != path.Base(name) {
		return fmt.Errorf("%w: %q", ErrForeignURL, url)
	}

	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// References reports whether an ad other than exceptAd still uses url.
type References interface {
	ImageInUse(ctx context.Context, url string, exceptAd uint) (bool, error)
}

// Release deletes the photo of ad adID once no other ad refers to it. Photos
// that owner did not upload are never deleted. It reports whether Delete ran.
func Release(ctx context.Context, s ImageStore, refs References, url string, owner, adID uint) (bool, error) {
	if s == nil || !OwnedBy(url, owner) {
		return false, nil
	}
	inUse, err := refs.ImageInUse(ctx, url, adID)
	if err != nil {
		return false, fmt.Errorf("storage: check references: %w", err)
	}
	if inUse {
		return false, nil
	}
	return true, s.Delete(ctx, url)
}
