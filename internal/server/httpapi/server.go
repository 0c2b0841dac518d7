// Package httpapi exposes the services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout     = 10 * time.Second
	defaultMaxBodyBytes = 32 << 20
)

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Connect(ctx context.Context, email, password string) (string, error)
	Disconnect(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*models.User, error)
}

type FileService interface {
	Upload(ctx context.Context, token string, req services.UploadRequest) (*models.FileNode, error)
	Show(ctx context.Context, token string, id models.ID) (*models.FileNode, error)
	List(ctx context.Context, token string, parentID models.ID, page int) ([]*models.FileNode, error)
	SetPublic(ctx context.Context, token string, id models.ID, public bool) (*models.FileNode, error)
	Fetch(ctx context.Context, token string, id models.ID, size string) (*services.Content, error)
}

type StatusService interface {
	Status(ctx context.Context) services.Status
	Stats(ctx context.Context) (*services.Stats, error)
}

// Options tunes the HTTP server.
type Options struct {
	Address string

	// ConnectRate and ConnectBurst limit credential checks on /connect
	// across all clients. A zero rate disables the limit.
	ConnectRate  float64
	ConnectBurst int

	// MaxBodyBytes caps JSON request bodies. Zero means 32 MiB.
	MaxBodyBytes int64

	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry
}

type Server struct {
	address  string
	mux      *http.ServeMux
	handler  http.Handler
	users    UserService
	files    FileService
	status   StatusService
	limiter  *rate.Limiter
	maxBody  int64
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	logger   logging.Logger
}

func NewServer(opts Options, users UserService, files FileService, status StatusService, l logging.Logger) *Server {
	s := &Server{
		address:  opts.Address,
		mux:      http.NewServeMux(),
		users:    users,
		files:    files,
		status:   status,
		registry: opts.Registry,
		maxBody:  opts.MaxBodyBytes,
		logger:   l.With("module", "http_server"),
	}
	if opts.ConnectRate > 0 {
		burst := opts.ConnectBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.ConnectRate), burst)
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.requests = promauto.With(s.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "filevault_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	s.initRoutes()
	s.handler = s.recoverMiddleware(s.loggingMiddleware(s.mux))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
