package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

const (
	msgUnauthorized = "Unauthorized"
	msgNotFound     = "Not found"
	msgInternal     = "Internal server error"
	msgBadBody      = "Invalid request body"
	msgBodyTooLarge = "Request body too large"
)

type errorBody struct {
	Error string `json:"error"`
}

type userResponse struct {
	ID    models.ID `json:"id"`
	Email string    `json:"email"`
}

type nodeResponse struct {
	ID       models.ID `json:"id"`
	UserID   models.ID `json:"userId"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	IsPublic bool      `json:"isPublic"`
	ParentID models.ID `json:"parentId"`
}

func toNode(n *models.FileNode) nodeResponse {
	parent := n.ParentID
	if parent.IsRoot() {
		parent = models.RootID
	}
	return nodeResponse{
		ID:       n.ID,
		UserID:   n.UserID,
		Name:     n.Name,
		Type:     string(n.Type),
		IsPublic: n.IsPublic,
		ParentID: parent,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON body of at most maxBody bytes into v and answers
// 400 itself when that fails.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	msg := msgBadBody
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		msg = msgBodyTooLarge
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
	return false
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: msgUnauthorized})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgNotFound})
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal})
	}
}
