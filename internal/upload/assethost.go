package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// AssetHostGateway pushes blobs to a remote asset-hosting service and hands
// back the host's CDN URL. The host owns storage, transformation and
// delivery; we only speak its upload API.
type AssetHostGateway struct {
	baseURL string
	apiKey  string
	policy  Policy
	client  *http.Client
}

func NewAssetHostGateway(baseURL, apiKey string, policy Policy) *AssetHostGateway {
	return &AssetHostGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		policy:  policy,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// assetHostResponse is the host's upload result envelope.
type assetHostResponse struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Bytes  int64  `json:"bytes"`
}

func (g *AssetHostGateway) Store(ctx context.Context, filename string, size int64, r io.Reader) (*Image, error) {
	data, _, err := g.policy.ReadAndValidate(size, r)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset host unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("asset host returned %s", resp.Status)
	}

	var result assetHostResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding asset host response: %w", err)
	}

	// Fill in anything the host did not report from the bytes we already
	// hold.
	format, width, height := probe(data)
	img := &Image{
		Key:       result.Key,
		URL:       result.URL,
		Format:    result.Format,
		Width:     result.Width,
		Height:    result.Height,
		Bytes:     result.Bytes,
		CreatedAt: time.Now().UTC(),
	}
	if img.Format == "" {
		img.Format = format
	}
	if img.Width == 0 {
		img.Width = width
	}
	if img.Height == 0 {
		img.Height = height
	}
	if img.Bytes == 0 {
		img.Bytes = int64(len(data))
	}
	return img, nil
}
