package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

type uploadRequest struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	ParentID models.ID `json:"parentId"`
	IsPublic bool      `json:"isPublic"`
	Data     string    `json:"data"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	node, err := s.files.Upload(r.Context(), token(r), services.UploadRequest{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNode(node))
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	node, err := s.files.Show(r.Context(), token(r), models.ID(r.PathValue("id")))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNode(node))
}

// handleList serves ?parentId=&page=. A missing or malformed page is page 0.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 0
	}

	nodes, err := s.files.List(r.Context(), token(r), models.ID(q.Get("parentId")), page)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	out := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toNode(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetPublic(public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node, err := s.files.SetPublic(r.Context(), token(r), models.ID(r.PathValue("id")), public)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toNode(node))
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	c, err := s.files.Fetch(r.Context(), token(r), models.ID(r.PathValue("id")), r.URL.Query().Get("size"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", c.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(c.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Data)
}
