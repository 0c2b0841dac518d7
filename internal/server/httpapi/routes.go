package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /stats", s.handleStats)

	s.mux.HandleFunc("POST /users", s.handleRegister)
	s.mux.HandleFunc("GET /users/me", s.handleMe)

	s.mux.HandleFunc("GET /connect", s.rateLimited(s.handleConnect))
	s.mux.HandleFunc("GET /disconnect", s.handleDisconnect)

	s.mux.HandleFunc("POST /files", s.handleUpload)
	s.mux.HandleFunc("GET /files", s.handleList)
	s.mux.HandleFunc("GET /files/{id}", s.handleShow)
	s.mux.HandleFunc("PUT /files/{id}/publish", s.handleSetPublic(true))
	s.mux.HandleFunc("PUT /files/{id}/unpublish", s.handleSetPublic(false))
	s.mux.HandleFunc("GET /files/{id}/data", s.handleData)

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}
