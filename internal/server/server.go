// Package server streams simulation frames to browsers and tools over
// websockets and serves the latest frame over plain HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/zeusync/steerkit/internal/config"
	"github.com/zeusync/steerkit/internal/core/events/bus"
	"github.com/zeusync/steerkit/internal/core/observability/log"
	"github.com/zeusync/steerkit/internal/core/simulation"
)

// Server represents the frame streaming endpoint of a simulation.
type Server struct {
	cfg    config.ServerConfig
	world  *simulation.World
	hub    *Hub
	log    log.Log
	sub    bus.Subscription
	latest atomic.Pointer[[]byte]

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
	done     chan error
	closed   bool
}

// New subscribes to the world's frames. Frames are broadcast whether or not
// the HTTP listener is running.
func New(cfg config.ServerConfig, world *simulation.World, logger log.Log) (*Server, error) {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultWriteTimeout
	}
	logger = logger.With(log.String("component", "server"))
	s := &Server{
		cfg:   cfg,
		world: world,
		hub:   NewHub(cfg.SendBuffer, logger),
		log:   logger,
	}
	sub, err := world.Events().SubscribeTopic(bus.TopicFrames, simulation.EventFrame, s.onFrame)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return s, nil
}

func (s *Server) onFrame(e bus.Event) error {
	frame, ok := e.Data().(simulation.Frame)
	if !ok {
		return nil
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.latest.Store(&b)
	s.hub.Broadcast(b)
	return nil
}

// Handler routes /ws, /scene and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", requireToken(s.cfg.Token, http.HandlerFunc(s.serveStream)))
	mux.Handle("/scene", requireToken(s.cfg.Token, http.HandlerFunc(s.serveScene)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (s *Server) serveScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if b := s.latest.Load(); b != nil {
		_, _ = w.Write(*b)
		return
	}
	if err := json.NewEncoder(w).Encode(s.world.LastFrame()); err != nil {
		s.log.Warn("encode scene", log.Error(err))
	}
}

// Hub exposes the connected clients.
func (s *Server) Hub() *Hub { return s.hub }

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.http != nil {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.Join(ErrListenerFailed, err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.done = make(chan error, 1)
	go func() {
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	s.log.Info("server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops the frame feed, disconnects clients and shuts the listener down
// within ctx.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	s.closed = true

	err := s.world.Events().Unsubscribe(s.sub)
	s.hub.Close()
	if s.http == nil {
		return err
	}
	if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
		return errors.Join(err, shutdownErr)
	}
	s.log.Info("server stopped")
	return errors.Join(err, <-s.done)
}
