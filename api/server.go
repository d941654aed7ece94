package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP surface and the WebSocket hub.
type Server struct {
	httpServer *http.Server
	hub        *WebSocketHub
	logger     *zap.Logger
}

// NewServer builds the router for addr. hub must be the broadcaster the
// service layer publishes to.
func NewServer(addr string, h *Handlers, hub *WebSocketHub, opts RouteOptions, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, h, hub, opts, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		hub:    hub,
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			zap.String("addr", s.httpServer.Addr),
			zap.String("ws", "ws://"+s.httpServer.Addr+"/ws"),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
