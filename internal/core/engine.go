package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/api"
	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
	"github.com/werdnum/telegram-bot-api-mock/internal/webhook"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

// Engine owns the mock's state and everything serving it: the webhook
// deliverer, the router and the HTTP server
type Engine struct {
	config    *Config
	state     *state.Server
	deliverer *webhook.Deliverer
	handler   http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	serveErr   chan error
	stopped    bool
}

// NewEngine creates an Engine from config. Nothing listens until Start or Run.
func NewEngine(config *Config, opts ...state.Option) (*Engine, error) {
	server := state.NewServer(opts...)

	deliverer, err := webhook.New(server, webhook.Config{
		Timeout: config.WebhookTimeout(),
		Workers: config.Webhook.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook deliverer: %w", err)
	}

	return &Engine{
		config:    config,
		state:     server,
		deliverer: deliverer,
		handler:   api.NewHandler(server, deliverer).Routes(),
		serveErr:  make(chan error, 1),
	}, nil
}

// State returns the shared state, mainly for tests and embedding
func (e *Engine) State() *state.Server {
	return e.state
}

// Handler returns the router without starting a server
func (e *Engine) Handler() http.Handler {
	return e.handler
}

// Addr returns the address the server is bound to, or "" before Start
func (e *Engine) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Start binds the listener and serves in the background
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return errors.New("engine already stopped")
	}
	if e.httpServer != nil {
		return errors.New("engine already started")
	}

	ln, err := net.Listen("tcp", e.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", e.config.Address(), err)
	}

	e.listener = ln
	e.httpServer = &http.Server{
		Handler:           e.handler,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	go e.serve(e.httpServer, ln)
	return nil
}

// serve runs the HTTP server until Shutdown is called
func (e *Engine) serve(srv *http.Server, ln net.Listener) {
	logger.WithField("address", ln.Addr().String()).Info("http-server-listening")

	// Shutdown makes Serve return ErrServerClosed
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithField("error", err).Error("http-server-error")
		e.serveErr <- err
		return
	}

	logger.Info("http-server-stopped")
}

// Run starts the engine and blocks until ctx is cancelled or the server fails
func (e *Engine) Run(ctx context.Context) error {
	logger.WithFields(logrus.Fields{
		"address":         e.config.Address(),
		"webhook_workers": e.config.Webhook.Workers,
		"webhook_timeout": e.config.Webhook.Timeout,
	}).Info("starting-telegram-mock-engine")

	if err := e.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return e.Stop()
	case err := <-e.serveErr:
		_ = e.Stop()
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Stop gracefully stops the HTTP server, then drains the delivery pool
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	srv := e.httpServer
	e.mu.Unlock()

	logger.Info("stopping-telegram-mock-engine")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("failed-to-gracefully-stop-http-server: %v", err)
			// Force close if graceful shutdown fails
			srv.Close()
		} else {
			logger.Info("http-server-stopped-gracefully")
		}
	}

	if err := e.deliverer.Close(); err != nil {
		logger.WithField("error", err).Warn("webhook-pool-release-timeout")
	}

	logger.Info("engine-stopped")
	return nil
}
