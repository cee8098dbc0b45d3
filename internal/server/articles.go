package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"inkwell/internal/model"
)

// articleRequest is the client-supplied body for create and update.
type articleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) decodeArticleRequest(w http.ResponseWriter, r *http.Request) (*articleRequest, bool) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return &req, true
}

func (s *Server) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid article id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	articles, err := st.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, articles)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeArticleRequest(w, r)
	if !ok {
		return
	}

	article, err := model.New(req.Title, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := st.Create(r.Context(), article); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, article)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	article, err := st.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, article)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeArticleRequest(w, r)
	if !ok {
		return
	}

	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	article, err := st.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := article.Apply(req.Title, req.Content, time.Now()); err != nil {
		s.writeError(w, err)
		return
	}
	if err := st.Replace(r.Context(), article); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, article)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := st.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, struct{}{})
}
