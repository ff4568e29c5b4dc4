// Package intake exposes the HTTP endpoint external systems use to submit
// alerts for relay.
package intake

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"hookrelay/internal/discord"
	"hookrelay/pkg/logx"
)

const maxBodyBytes = 1 << 20 // alerts are short; anything bigger is abuse

// Config controls the intake listener.
type Config struct {
	Enabled bool
	Address string
	Token   string // optional bearer token

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = "127.0.0.1:8477"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = time.Minute
	}
	return c
}

// Sink accepts submitted alerts; satisfied by both discord.Client and
// discord.Deferred.
type Sink interface {
	AddAlert(discord.Alert)
}

// Server manages lifecycle for the intake HTTP listener.
type Server struct {
	mu    sync.Mutex
	log   logx.Logger
	sink  Sink
	srv   *http.Server
	ln    net.Listener
	addr  string
	token string
}

func NewServer(sink Sink, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{sink: sink, log: log.With(logx.String("comp", "intake"))}
}

// Addr returns the bound listen address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Apply starts/stops the listener according to cfg.
func (s *Server) Apply(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		s.stopLocked(ctx)
		return
	}
	if s.srv != nil && s.addr == cfg.Address && s.token == cfg.Token {
		return
	}

	s.stopLocked(ctx)
	s.startLocked(cfg)
}

func (s *Server) startLocked(cfg Config) {
	s.token = cfg.Token

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/v1/alerts", s.handleAlerts)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		s.log.Warn("intake listen failed", logx.String("addr", cfg.Address), logx.Err(err))
		return
	}

	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("intake server error", logx.Err(err))
		}
	}()
	s.log.Info("intake listening", logx.String("addr", s.addr), logx.Bool("token_set", cfg.Token != ""))
}

// Stop gracefully shuts down the listener.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	srv := s.srv
	addr := s.addr
	s.srv = nil
	s.ln = nil
	s.addr = ""

	shutdownCtx := ctx
	if shutdownCtx == nil {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	s.log.Info("intake stopped", logx.String("addr", addr))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	alert, err := decodeAlert(r.Body)
	if err != nil {
		s.log.Debug("intake rejected body", logx.Err(err))
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.sink.AddAlert(alert)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"queued"}`))
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return true
	}
	got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	b, _ := json.Marshal(map[string]string{"error": msg})
	_, _ = w.Write(b)
}
