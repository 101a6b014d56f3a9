// Package serve exposes cached artifacts over HTTP and a WebSocket stream.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tradepulse/internal/filecache"
	"tradepulse/internal/snapshot"
)

// Reader is the read side of the snapshot cache.
type Reader interface {
	Get(name string) (any, bool)
	GetVersioned(name string) (any, filecache.Version)
	Status() []filecache.ArtifactStatus
}

type Server struct {
	addr         string
	reader       Reader
	gatherer     prometheus.Gatherer
	pushInterval time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.Logger
	server       *http.Server
}

func NewServer(addr string, reader Reader, gatherer prometheus.Gatherer, pushInterval time.Duration, logger *zap.Logger) *Server {
	if pushInterval <= 0 {
		pushInterval = time.Second
	}
	s := &Server{
		addr:         addr,
		reader:       reader,
		gatherer:     gatherer,
		pushInterval: pushInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.Named("serve"),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/trades/recent", s.structured(snapshot.RecentTrades))
	mux.HandleFunc("GET /api/trades/whales", s.structured(snapshot.Whales))
	mux.HandleFunc("GET /api/traders/top", s.structured(snapshot.TopTraders))
	mux.HandleFunc("GET /api/markets", s.structured(snapshot.MarketStats))
	mux.HandleFunc("GET /api/markets/{market}", s.handleMarket)
	mux.HandleFunc("GET /api/orderflow", s.structured(snapshot.OrderFlow))
	mux.HandleFunc("GET /api/full/sorted", s.tabular(snapshot.FullTradesBySize))
	mux.HandleFunc("GET /api/full/chrono", s.tabular(snapshot.FullTradesChrono))

	mux.HandleFunc("GET /ws/trades", s.handleTradeStream)

	return mux
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"artifacts": s.reader.Status(),
	})
}

func (s *Server) structured(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.reader.Get(name)
		if !ok {
			notFound(w, "File not found or not loaded.")
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func (s *Server) tabular(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.reader.Get(name)
		text, isText := data.(string)
		if !ok || !isText {
			notFound(w, "File not found or not loaded.")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(text))
	}
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	data, ok := s.reader.Get(snapshot.MarketStats)
	if !ok {
		notFound(w, "File not found or not loaded.")
		return
	}

	market := r.PathValue("market")
	markets, _ := data.(map[string]any)
	stats, found := markets[market]
	if !found || stats == nil {
		notFound(w, "Market '"+market+"' not found.")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func notFound(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
