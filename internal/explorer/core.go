package explorer

import (
	"context"

	"stablecoin-explorer/internal/explorer/config"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/repository"
	"stablecoin-explorer/internal/explorer/server"
	"stablecoin-explorer/internal/explorer/service"

	"go.uber.org/zap"
)

type Core struct {
	cfg      config.Config
	tl       *zap.Logger
	repo     repository.Repository
	explorer *service.Explorer
	api      *server.Server
	metrics  *monitor.MetricsServer
}

// New 只组装，不发起任何网络请求
func New(cfg config.Config, logger *zap.Logger) *Core {
	// 初始化repo
	repo := repository.New(cfg, logger)

	explorer := service.NewFromRepository(repo, logger)

	return &Core{
		cfg:      cfg,
		tl:       logger,
		repo:     repo,
		explorer: explorer,
		api:      server.New(cfg.Server, explorer, logger.Named("api")),
		metrics:  monitor.NewMetricsServer(cfg.Monitor, logger),
	}
}

// Explorer CLI 的一次性查询直接使用，不启动 HTTP 服务
func (c *Core) Explorer() *service.Explorer {
	return c.explorer
}

func (c *Core) Repository() repository.Repository {
	return c.repo
}

// Start 启动 API 与监控服务，阻塞到 ctx 结束
func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting explorer core...")
	// 启动监控服务
	c.metrics.Run()

	c.api.Run()
	c.tl.Info("Explorer started successfully", zap.String("addr", c.cfg.Server.Addr))

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down explorer due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping explorer core...")

	if err := c.api.Stop(ctx); err != nil {
		c.tl.Warn("API server shutdown", zap.Error(err))
	}

	// 停止 Prometheus 监控服务
	if err := c.metrics.Stop(ctx); err != nil {
		c.tl.Warn("Metrics server shutdown", zap.Error(err))
	}

	c.Close()
	c.tl.Info("Explorer core stopped.")
}

// Close 释放 RPC 连接
func (c *Core) Close() {
	if err := c.repo.Close(); err != nil {
		c.tl.Warn("Close repository", zap.Error(err))
	}
}
