package repository

import (
	"errors"

	"stablecoin-explorer/internal/explorer/classifier"
	"stablecoin-explorer/internal/explorer/config"
	"stablecoin-explorer/internal/explorer/evm"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/solana"
	"stablecoin-explorer/pkg/jsonrpc"

	"go.uber.org/zap"
)

const userAgent = "stablecoin-explorer/1.0"

// New 每条链一个 jsonrpc 客户端，同一条链的所有调用共享它的节流器
func New(cfg config.Config, logger *zap.Logger) Repository {
	r := &repositoryImpl{
		cfg:    cfg,
		logger: logger,
	}
	r.init()
	return r
}

type repositoryImpl struct {
	cfg       config.Config
	logger    *zap.Logger
	evmRPC    *jsonrpc.Client
	solanaRPC *jsonrpc.Client
	evm       *evm.Client
	solana    *solana.Client
}

func (r *repositoryImpl) init() {
	r.evmRPC = newRPC(string(classifier.ChainEVM), r.cfg.EVM, r.logger)
	r.solanaRPC = newRPC(string(classifier.ChainSolana), r.cfg.Solana, r.logger)

	r.evm = evm.NewClient(r.evmRPC)
	r.solana = solana.NewClient(r.solanaRPC)

	r.logger.Info("RPC clients initialized",
		zap.String("evm_endpoint", r.cfg.EVM.RPCURL),
		zap.Duration("evm_min_interval", r.cfg.EVM.MinInterval()),
		zap.String("solana_endpoint", r.cfg.Solana.RPCURL),
		zap.Duration("solana_min_interval", r.cfg.Solana.MinInterval()),
		zap.Bool("evm_api_key", r.cfg.EVM.APIKey != ""),
		zap.Bool("solana_api_key", r.cfg.Solana.APIKey != ""),
	)
}

func newRPC(chain string, cfg config.RPCConfig, logger *zap.Logger) *jsonrpc.Client {
	return jsonrpc.New(jsonrpc.Config{
		Name:         chain,
		Endpoint:     cfg.RPCURL,
		APIKey:       cfg.APIKey,
		APIKeyHeader: cfg.APIKeyHeader,
		MinInterval:  cfg.MinInterval(),
		Timeout:      cfg.RequestTimeout(),
		UserAgent:    userAgent,
	}, logger, jsonrpc.WithHooks(monitor.RPCHooks(chain)))
}

func (r *repositoryImpl) GetEVMClient() *evm.Client {
	return r.evm
}

func (r *repositoryImpl) GetSolanaClient() *solana.Client {
	return r.solana
}

func (r *repositoryImpl) Close() error {
	return errors.Join(r.evmRPC.Close(), r.solanaRPC.Close())
}
