// Package display exposes the monitor's derived state over HTTP: read-only
// JSON snapshots, a websocket push stream, and prometheus metrics. It never
// reaches into the pipeline; the service hands it one completed snapshot per
// tick.
package display

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Snapshot is the per-tick view handed to the display layer: the waveform with
// derived time values, the signal quality, and the BPM or its absence.
type Snapshot struct {
	UpdatedAt time.Time `json:"updated_at"`
	Quality   string    `json:"quality"`
	BPM       *int      `json:"bpm"`
	Times     []float64 `json:"t"`
	Values    []int     `json:"v"`
}

// Vitals is the lightweight view without the waveform.
type Vitals struct {
	UpdatedAt time.Time `json:"updated_at"`
	Quality   string    `json:"quality"`
	BPM       *int      `json:"bpm"`
	Samples   int       `json:"samples"`
}

// Server serves the display surface.
type Server struct {
	addr   string
	logger zerolog.Logger
	hub    *Hub

	mu     sync.RWMutex
	latest *Snapshot

	httpServer *http.Server
}

// NewServer builds the display server for the given listen address.
func NewServer(addr string, logger zerolog.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger.With().Str("component", "display").Logger(),
		hub:    newHub(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/vitals", s.handleVitals).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/waveform", s.handleWaveform).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWS)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.httpServer = &http.Server{Addr: addr, Handler: router}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("display server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Publish stores the latest snapshot and pushes it to websocket clients.
// Called once per tick by the monitor; handlers only ever read.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	if s.hub.count() == 0 {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal snapshot for broadcast")
		return
	}
	s.hub.broadcast(payload)
}

func (s *Server) snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleVitals(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data yet"})
		return
	}
	writeJSON(w, http.StatusOK, Vitals{
		UpdatedAt: snap.UpdatedAt,
		Quality:   snap.Quality,
		BPM:       snap.BPM,
		Samples:   len(snap.Values),
	})
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
