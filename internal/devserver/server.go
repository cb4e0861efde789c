package devserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/tash-vibe/subway/internal/mimetype"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop.
const shutdownTimeout = 5 * time.Second

// Server runs a Handler on a listener.
type Server struct {
	srv   *http.Server
	grace time.Duration
}

// New returns a Server serving root with content types from types.
func New(root http.FileSystem, types *mimetype.Table) *Server {
	return &Server{
		srv:   &http.Server{Handler: NewHandler(root, types)},
		grace: shutdownTimeout,
	}
}

// Serve accepts connections on ln until ctx is done. It then stops accepting,
// waits for in-flight requests, and closes ln.
//
// Serve returns nil when it stopped because ctx was done, and an error if
// the listener failed first.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v. Closing open connections.", err)
		if err := s.srv.Close(); err != nil {
			log.Printf("Failed to close server: %v", err)
		}
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}
