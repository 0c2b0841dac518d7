package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
)

func token(r *http.Request) string {
	return r.Header.Get(common.TokenHeaderName)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"redis": st.Sessions, "db": st.DB})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.status.Stats(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"users": stats.Users, "files": stats.Files})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Me(r.Context(), token(r))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email})
}

// handleConnect exchanges Basic credentials for a session token. The
// password is everything after the first colon.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: msgUnauthorized})
		return
	}

	tok, err := s.users.Connect(r.Context(), email, password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Disconnect(r.Context(), token(r)); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
