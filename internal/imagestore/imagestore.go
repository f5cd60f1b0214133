// Package imagestore stores the bytes of user images. Metadata lives in the
// user_images table; a backend only knows opaque storage keys.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ImageStore is implemented by every blob backend. Get and Delete return an
// error wrapping domain.ErrImageNotFound for unknown keys.
type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey returns a unique flat key such as "glass_item_A3F9K2_<uuid>.png".
func NewKey(prefix, mimeType string) string {
	prefix = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, prefix)
	if prefix == "" {
		prefix = "image"
	}
	return fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), MimeTypeToExt(mimeType))
}

func MimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

func ExtToMimeType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
