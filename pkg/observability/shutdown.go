package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 30 * time.Second

// ErrShutdownTimeout is returned when cleanup outlives the shutdown timeout
var ErrShutdownTimeout = errors.New("shutdown timeout reached")

// ShutdownFunc releases one resource during shutdown
type ShutdownFunc func(context.Context) error

// ShutdownManager stops an HTTP server and then releases registered
// resources, all within one timeout
type ShutdownManager struct {
	logger          *logrus.Logger
	server          *http.Server
	shutdownTimeout time.Duration

	mu    sync.Mutex
	funcs []ShutdownFunc
}

// NewShutdownManager creates a manager for server, which may be nil. A zero
// timeout means 30s.
func NewShutdownManager(logger *logrus.Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ShutdownManager{logger: logger, server: server, shutdownTimeout: timeout}
}

// RegisterShutdownFunc adds fn to the functions run after the server stops
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.funcs = append(sm.funcs, fn)
}

// WaitForShutdown blocks until SIGINT, SIGTERM or cancellation of ctx, then
// shuts everything down
func (sm *ShutdownManager) WaitForShutdown(ctx context.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		sm.logger.Infof("Received %s, shutting down", sig)
	case <-ctx.Done():
		sm.logger.Info("Shutting down")
	}
	return sm.Shutdown()
}

// Shutdown stops the server, then runs the registered functions
// concurrently. Every function error is returned, joined.
func (sm *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()

	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		sm.logger.Debug("HTTP server stopped")
	}

	sm.mu.Lock()
	funcs := append([]ShutdownFunc(nil), sm.funcs...)
	sm.mu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
		g     errgroup.Group
	)
	for _, fn := range funcs {
		fn := fn
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sm.logger.Warnf("Shutdown did not finish within %s", sm.shutdownTimeout)
		return ErrShutdownTimeout
	}

	if err := errors.Join(errs...); err != nil {
		sm.logger.WithError(err).Error("Shutdown completed with errors")
		return err
	}
	sm.logger.Info("Shutdown complete")
	return nil
}
