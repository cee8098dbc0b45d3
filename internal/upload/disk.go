package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"
)

// DiskGateway writes blobs under a local uploads directory; the files are
// served back by the HTTP layer under baseURL.
type DiskGateway struct {
	dir     string
	baseURL string
	policy  Policy
}

func NewDiskGateway(dir, baseURL string, policy Policy) (*DiskGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &DiskGateway{dir: dir, baseURL: baseURL, policy: policy}, nil
}

// Dir is the directory blobs are written to, for the static file route.
func (g *DiskGateway) Dir() string { return g.dir }

func (g *DiskGateway) Store(ctx context.Context, filename string, size int64, r io.Reader) (*Image, error) {
	data, mime, err := g.policy.ReadAndValidate(size, r)
	if err != nil {
		return nil, err
	}

	// Millisecond timestamp names, like the extension chosen from the
	// sniffed type rather than the client's filename.
	name := fmt.Sprintf("%d%s", time.Now().UnixMilli(), allowedTypes[mime])
	if err := os.WriteFile(filepath.Join(g.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing upload: %w", err)
	}

	format, width, height := probe(data)
	return &Image{
		Key:       name,
		URL:       path.Join(g.baseURL, name),
		Format:    format,
		Width:     width,
		Height:    height,
		Bytes:     int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}, nil
}
