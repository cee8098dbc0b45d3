package server

import (
	"net/http"

	"go.uber.org/zap"

	"inkwell/internal/upload"
)

// uploadResponse mirrors the asset-host style flat shape the editing
// client's image plugin expects, rather than the article envelope.
type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Key     string `json:"key,omitempty"`
	Format  string `json:"format,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Bytes   int64  `json:"bytes"`
}

type imageListResponse struct {
	Success bool           `json:"success"`
	Images  []upload.Image `json:"images"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	img, err := s.uploads.Store(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// The blob is already durable; a failed index write only costs the
	// image a spot in the recent-uploads listing.
	if st, err := s.store.Connect(r.Context()); err != nil {
		s.logger.Warn("upload not indexed", zap.Error(err))
	} else if err := st.RecordImage(r.Context(), *img); err != nil {
		s.logger.Warn("upload not indexed", zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, uploadResponse{
		Success: true,
		URL:     img.URL,
		Key:     img.Key,
		Format:  img.Format,
		Width:   img.Width,
		Height:  img.Height,
		Bytes:   img.Bytes,
	})
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	images, err := st.ListImages(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, imageListResponse{Success: true, Images: images})
}
