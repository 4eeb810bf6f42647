package blobservice

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned by Save when the declared content type
	// is not on the image allow-list.
	ErrUnsupportedType = errors.New("unsupported content type")
)

// allowedTypes maps the accepted upload content types to a file extension.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpeg",
}

// Store saves uploaded blobs and hands back an opaque reference. Deleting a
// reference that no longer exists is not an error; references are
// single-use and never reassigned.
type Store interface {
	Save(ctx context.Context, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// newRef mints a fresh blob reference for the given content type.
func newRef(contentType string) (string, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	return uuid.New().String() + ext, nil
}

// ContentTypeFor reports the content type a reference was stored with,
// derived from its extension.
func ContentTypeFor(ref string) string {
	for contentType, ext := range allowedTypes {
		if len(ref) > len(ext) && ref[len(ref)-len(ext):] == ext {
			return contentType
		}
	}
	return "application/octet-stream"
}
