// Package api serves the latest battery status over HTTP on a unix socket.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/events"
	"github.com/battind/battind/pkg/status"
)

const shutdownTimeout = 5 * time.Second

// Refresher triggers an out-of-schedule poll, e.g. a *poller.Scheduler.
type Refresher interface {
	Refresh()
}

// Server is the local status API.
type Server struct {
	store     *status.Store
	hub       *events.Hub
	refresher Refresher
	metrics   http.Handler

	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithEvents streams the hub's events on GET /events.
func WithEvents(hub *events.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// New builds the router. store and refresher must not be nil.
func New(store *status.Store, refresher Refresher, opts ...Option) *Server {
	s := &Server{
		store:     store,
		refresher: refresher,
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))

	router.GET("/status", s.getStatus)
	router.GET("/title", s.getTitle)
	router.GET("/detail", s.getDetail)
	router.POST("/refresh", s.postRefresh)
	router.GET("/version", getVersion)
	if s.hub != nil {
		router.GET("/events", s.getEvents)
	}
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	return router
}

// Handler returns the http.Handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the unix socket at path until ctx is done. A stale
// socket file left behind by a previous run is removed first.
func (s *Server) Serve(ctx context.Context, path string) error {
	if err := removeStaleSocket(path); err != nil {
		return err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", path)
	}
	defer os.Remove(path)

	srv := &http.Server{
		Handler: s.router,
		// Long-lived requests such as /events end with ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("status api listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return pkgerrors.Wrap(err, "status api stopped unexpectedly")
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("shutting down status api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "failed to shutdown status api")
	}
	return nil
}

func removeStaleSocket(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to stat %s", path)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return pkgerrors.Errorf("%s exists and is not a socket", path)
	}

	// Someone is still serving on it.
	if conn, err := net.DialTimeout("unix", path, time.Second); err == nil {
		_ = conn.Close()
		return pkgerrors.Errorf("%s is in use by another instance", path)
	}

	logrus.WithField("path", path).Debug("removing stale socket")
	return pkgerrors.Wrapf(os.Remove(path), "failed to remove stale socket %s", path)
}
