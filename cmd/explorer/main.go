package main

import (
	"context"
	"fmt"
	"os"

	"stablecoin-explorer/internal/explorer"
	"stablecoin-explorer/internal/explorer/config"
	"stablecoin-explorer/pkg/logger"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	// 通过 ldflags 注入
	version = "dev"
	commit  = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "explorer",
		Usage: "Stablecoin transaction and address lookup for Base (EVM) and Solana",
		Description: `Classifies a transaction hash, signature or address, resolves it against
the configured JSON-RPC endpoints and prints the result as JSON.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default ./config/config.explorer.yaml when present)",
				EnvVars: []string{"EXPLORER_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Also write logs to stderr",
			},
		},
		Commands: []*cli.Command{
			lookupCommand(),
			txCommand(),
			addressCommand(),
			supplyCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session 单次命令的运行环境
type session struct {
	cfg      config.Config
	tl       *zap.Logger
	core     *explorer.Core
	shutdown func(context.Context) error
}

func setup(c *cli.Context, service string, overrides ...func(*config.Config)) (*session, error) {
	cfgPath := c.String("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, override := range overrides {
		override(&cfg)
	}

	// 初始化 trace provider
	shutdown := logger.InitTrace("stablecoin-explorer", service)

	// 创建 root logger
	tl := logger.NewLogger(service, logger.LogOption{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console || c.Bool("verbose"),
	})

	// 启动配置热加载监听，只同步日志级别
	if err := config.WatchConfig(cfgPath, func(next config.Config) {
		logger.SetLogLevel(next.Log.Level)
	}); err != nil {
		tl.Warn("Config watch disabled", zap.Error(err))
	}

	return &session{
		cfg:      cfg,
		tl:       tl,
		core:     explorer.New(cfg, tl),
		shutdown: shutdown,
	}, nil
}

func (r *session) close() {
	r.core.Close()
	_ = r.shutdown(context.Background())
	_ = r.tl.Sync()
}
