// Package server exposes the desk over HTTP: a JSON API for position
// actions and a WebSocket that pushes curve, annotation and summary frames
// to browser surfaces.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"options-desk/internal/engine"
	apperrors "options-desk/internal/errors"
	"options-desk/internal/models"
	"options-desk/internal/surface"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{Addr: "127.0.0.1:8787"}
}

// Server bridges the engine to browser surfaces. It implements both
// surface.RenderSurface and surface.SummarySink; every engine render pass
// turns into broadcast frames.
type Server struct {
	cfg    Config
	eng    *engine.Engine
	hub    *hub
	httpd  *http.Server
	logger zerolog.Logger
}

// New creates a server bound to an engine. Call Start to begin serving.
func New(cfg Config, eng *engine.Engine, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		eng:    eng,
		hub:    newHub(logger.With().Str("component", "ws").Logger()),
		logger: logger.With().Str("component", "server").Logger(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.serveWS)
	mux.HandleFunc("/api/health", s.apiHealth)
	mux.HandleFunc("/api/positions", s.apiPositions)
	mux.HandleFunc("/api/buy", s.apiTrade(models.SideBuy))
	mux.HandleFunc("/api/sell", s.apiTrade(models.SideSell))
	mux.HandleFunc("/api/reduce", s.apiReduce)
	mux.HandleFunc("/api/clear", s.apiClear)
	mux.HandleFunc("/api/symbol", s.apiSymbol)
	mux.HandleFunc("/api/expiry", s.apiExpiry)
	s.httpd = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route table.
func (s *Server) Handler() http.Handler { return s.httpd.Handler }

// Start runs the hub and listens on the configured address. It blocks until
// the listener fails or Shutdown is called.
func (s *Server) Start() error {
	go s.hub.run()
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("Serving dashboard API")
	err := s.httpd.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener and disconnects all WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.hub.stop)
	return s.httpd.Shutdown(ctx)
}

// SetCurve implements surface.RenderSurface.
func (s *Server) SetCurve(points []models.PayoffPoint) {
	s.hub.push("curve", points)
}

// SetAnnotations implements surface.RenderSurface.
func (s *Server) SetAnnotations(breakevens []float64, spot float64) {
	s.hub.push("annotations", map[string]interface{}{
		"breakevens": breakevens,
		"spot":       spot,
	})
}

// Clear implements surface.RenderSurface.
func (s *Server) Clear() {
	s.hub.push("clear", nil)
}

// SetSummary implements surface.SummarySink.
func (s *Server) SetSummary(sum surface.Summary) {
	s.hub.push("summary", sum)
}

func (s *Server) apiHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// apiPositions serves the JSON leg array on GET and atomically replaces it
// on POST.
func (s *Server) apiPositions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.eng.Export()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(data)
	case http.MethodPost:
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.eng.Import(raw); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, apperrors.ErrMalformedImport) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	default:
		http.Error(w, "GET or POST required", http.StatusMethodNotAllowed)
	}
}

type tradeRequest struct {
	Strike float64           `json:"strike"`
	Type   models.OptionType `json:"optionType"`
}

func (s *Server) apiTrade(side models.Side) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req tradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var leg models.Leg
		var err error
		if side == models.SideBuy {
			leg, err = s.eng.Buy(req.Strike, req.Type)
		} else {
			leg, err = s.eng.Sell(req.Strike, req.Type)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, apperrors.ErrInvalidKey) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, leg)
	}
}

func (s *Server) apiReduce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Strike float64           `json:"strike"`
		Type   models.OptionType `json:"optionType"`
		Side   models.Side       `json:"side"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	leg, removed := s.eng.Reduce(models.LegKey{Strike: req.Strike, Type: req.Type, Side: req.Side})
	writeJSON(w, http.StatusOK, map[string]interface{}{"leg": leg, "removed": removed})
}

func (s *Server) apiClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.eng.ClearAll()
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) apiSymbol(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}
	s.eng.SetSymbol(req.Symbol)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "symbol": req.Symbol})
}

func (s *Server) apiExpiry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Expiry string `json:"expiry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	expiry, err := time.Parse("2006-01-02", req.Expiry)
	if err != nil {
		http.Error(w, "expiry must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	s.eng.SetExpiry(expiry)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "expiry": req.Expiry})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
