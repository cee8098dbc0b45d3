// Package upload is the blob side-channel for the editor: it accepts image
// files, enforces the type/size policy and returns a retrievable URL. It has
// no relationship to articles — the client embeds the URL into content on
// its own.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrRejected marks a policy violation (bad type or oversize file). It is
// the caller's fault and maps to a 400.
var ErrRejected = errors.New("upload rejected")

// allowedTypes maps the accepted raster image MIME types to the file
// extension used for locally stored blobs.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Gateway stores one uploaded image and reports its retrieval URL plus
// whatever metadata the backend can determine.
type Gateway interface {
	Store(ctx context.Context, filename string, size int64, r io.Reader) (*Image, error)
}

// Policy is the shared validation applied by every backend before any bytes
// are persisted.
type Policy struct {
	MaxBytes int64
}

// ReadAndValidate drains the upload, rejecting it if the declared or actual
// size exceeds the ceiling or if the sniffed content type is not an allowed
// image format. The declared type from the client is ignored; only the
// bytes are trusted.
func (p Policy) ReadAndValidate(declaredSize int64, r io.Reader) (data []byte, mime string, err error) {
	if declaredSize > p.MaxBytes {
		return nil, "", fmt.Errorf("%w: file too large, maximum size is %d bytes", ErrRejected, p.MaxBytes)
	}
	data, err = io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, "", fmt.Errorf("%w: file too large, maximum size is %d bytes", ErrRejected, p.MaxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty file", ErrRejected)
	}

	mime = http.DetectContentType(data)
	if _, ok := allowedTypes[mime]; !ok {
		return nil, "", fmt.Errorf("%w: invalid file type %q, only images are allowed", ErrRejected, mime)
	}
	return data, mime, nil
}

// probe decodes just the image header for dimensions and format. A failed
// decode is not fatal; the metadata fields stay zero.
func probe(data []byte) (format string, width, height int) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0
	}
	return format, cfg.Width, cfg.Height
}
