package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stablecoin-explorer/internal/explorer/config"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/service"
	"stablecoin-explorer/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "explorer-api"

// Explorer 由 *service.Explorer 实现
type Explorer interface {
	Transaction(ctx context.Context, id string) (*model.Transaction, error)
	Address(ctx context.Context, address string) (*model.Address, error)
	Search(ctx context.Context, query string) (service.Result, error)
}

// Server 只读查询 API
type Server struct {
	explorer Explorer
	logger   *zap.Logger
	server   *http.Server
}

type errorBody struct {
	Error string `json:"error"`
	Query string `json:"query,omitempty"`
}

func New(cfg config.ServerConfig, explorer Explorer, logger *zap.Logger) *Server {
	s := &Server{explorer: explorer, logger: logger}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler 路由表，测试直接挂到 httptest 上
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /tx/{id}", s.handleTransaction)
	mux.HandleFunc("GET /address/{address}", s.handleAddress)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run 非阻塞启动
func (s *Server) Run() {
	go func() {
		s.logger.Info("API server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server exited", zap.Error(err))
		}
	}()
}

// Stop 优雅关闭，等待进行中的查询结束
func (s *Server) Stop(ctx context.Context) error {
	s.server.SetKeepAlivesEnabled(false)
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := logger.StartSpanWithRequest(r, tracerName, "GET /search")
	defer span.End()

	q := r.URL.Query().Get("q")
	span.SetAttributes(attribute.String("query", q))
	res, err := s.explorer.Search(ctx, q)
	if err != nil {
		s.writeError(ctx, w, q, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, span := logger.StartSpanWithRequest(r, tracerName, "GET /tx/{id}")
	defer span.End()

	id := r.PathValue("id")
	tx, err := s.explorer.Transaction(ctx, id)
	if err != nil {
		s.writeError(ctx, w, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	ctx, span := logger.StartSpanWithRequest(r, tracerName, "GET /address/{address}")
	defer span.End()

	address := r.PathValue("address")
	addr, err := s.explorer.Address(ctx, address)
	if err != nil {
		s.writeError(ctx, w, address, err)
		return
	}
	s.writeJSON(w, http.StatusOK, addr)
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, query string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		status, msg = http.StatusBadRequest, "invalid address or transaction format"
	case errors.Is(err, model.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}
	logger.WithTrace(ctx, s.logger).Info("Query failed",
		zap.String("query", query), zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, errorBody{Error: msg, Query: query})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("Encode response failed", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
