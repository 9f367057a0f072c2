package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stablecoin-explorer/internal/explorer/config"
	"stablecoin-explorer/pkg/jsonrpc"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type MetricsServer struct {
	cfg    config.MonitorConfig
	server *http.Server
	logger *zap.Logger
}

func NewMetricsServer(cfg config.MonitorConfig, logger *zap.Logger) *MetricsServer {
	if !cfg.Enable || cfg.PrometheusAddr == "" {
		return &MetricsServer{cfg: cfg, logger: logger}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:              cfg.PrometheusAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run 启动指标暴露服务
func (s *MetricsServer) Run() {
	if s.server == nil {
		return // disabled
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server exited", zap.Error(err))
		}
	}()
}

// Stop 优雅关闭 HTTP 服务
func (s *MetricsServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil // disabled
	}

	s.server.SetKeepAlivesEnabled(false)
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// RPCHooks 把 jsonrpc 客户端的请求生命周期记录到 prometheus
func RPCHooks(chain string) jsonrpc.Hooks {
	return jsonrpc.Hooks{
		OnDispatch: func(method string, dispatchedAt time.Time, waited time.Duration) {
			RPCPacingWait.WithLabelValues(chain).Observe(waited.Seconds())
		},
		OnDone: func(method string, kind string, elapsed time.Duration) {
			RPCRequests.WithLabelValues(chain, method, kind).Inc()
			RPCRequestDuration.WithLabelValues(chain, method).Observe(elapsed.Seconds())
		},
	}
}

// Degraded 记录一次降级
func Degraded(chain, field string) {
	DecodeDegradations.WithLabelValues(chain, field).Inc()
}
