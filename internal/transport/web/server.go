package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/config"
)

type Server struct {
	log    *zap.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *zap.Logger, cfg *config.Config, deps Deps) *Server {
	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(logger, deps),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second, // ERP process calls can be slow
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

// Handler exposes the router, mainly for tests.
func (ws *Server) Handler() http.Handler { return ws.server.Handler }

func (ws *Server) Run() {
	ws.log.Info("started", zap.String("addr", ws.server.Addr))
	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ws.log.Fatal("listen failed", zap.Error(err))
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Warn("forced to shutdown", zap.Error(err))
	}
	ws.log.Info("exited gracefully")
}
