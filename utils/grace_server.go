package utils

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second
)

// Server wraps http.Server and drains in-flight requests on SIGINT or SIGTERM.
type Server struct {
	*http.Server

	ShutdownTimeout time.Duration
	// OnShutdown runs after the listener has closed and requests have drained.
	OnShutdown func()

	signals chan os.Signal
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
		signals:         make(chan os.Signal, 1),
	}
}

// ListenAndServe listens on Addr and blocks until the server has shut down.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return srv.Serve(ln)
}

// Serve accepts on ln until a termination signal arrives.
func (srv *Server) Serve(ln net.Listener) error {
	signal.Notify(srv.signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signals)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Server.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-srv.signals:
		Sugar.Infow("graceful shutting down HTTP server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	if err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}
	if srv.OnShutdown != nil {
		srv.OnShutdown()
	}
	return err
}

// Stop triggers the same path as a SIGTERM.
func (srv *Server) Stop() {
	select {
	case srv.signals <- syscall.SIGTERM:
	default:
	}
}

// GraceServer starts an HTTP server with graceful shutdown.
func GraceServer(addr string, handler http.Handler, onShutdown func()) error {
	srv := NewServer(addr, handler, DefaultReadTimeout, DefaultWriteTimeout)
	srv.OnShutdown = onShutdown
	return srv.ListenAndServe()
}
