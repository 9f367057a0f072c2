package evm

import (
	"context"

	"stablecoin-explorer/internal/explorer/classifier"
	"stablecoin-explorer/internal/explorer/decoder"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/watchlist"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Aggregator 查询受监控代币的持仓
type Aggregator struct {
	client *Client
	logger *zap.Logger
	tokens []watchlist.Token
}

func NewAggregator(client *Client, logger *zap.Logger) *Aggregator {
	return &Aggregator{client: client, logger: logger, tokens: watchlist.EVMTokens()}
}

// Balances 逐个代币顺序查询 balanceOf / decimals / name，只保留大于 0 的持仓；
// 单个代币失败只记录日志并跳过
func (a *Aggregator) Balances(ctx context.Context, owner string) []model.TokenBalance {
	balances := make([]model.TokenBalance, 0, len(a.tokens))
	for _, tok := range a.tokens {
		if ctx.Err() != nil {
			break
		}
		tb, err := a.balance(ctx, tok, owner)
		if err != nil {
			a.logger.Warn("Token balance lookup failed, skipping",
				zap.String("symbol", tok.Symbol), zap.String("contract", tok.Address),
				zap.String("owner", owner), zap.Error(err))
			monitor.Degraded(string(classifier.ChainEVM), "token:"+tok.Symbol)
			continue
		}
		if !model.IsPositive(tb.Balance) {
			a.logger.Debug("Token balance is zero, skipping", zap.String("symbol", tok.Symbol))
			continue
		}
		balances = append(balances, tb)
	}
	return balances
}

func (a *Aggregator) balance(ctx context.Context, tok watchlist.Token, owner string) (model.TokenBalance, error) {
	raw, err := a.client.TokenBalance(ctx, tok.Address, owner)
	if err != nil {
		return model.TokenBalance{}, err
	}
	decimals, err := a.client.TokenDecimals(ctx, tok.Address)
	if err != nil {
		return model.TokenBalance{}, err
	}
	name, err := a.client.TokenName(ctx, tok.Address)
	if err != nil {
		return model.TokenBalance{}, err
	}
	return model.TokenBalance{
		Symbol:   tok.Symbol,
		Name:     name,
		Contract: tok.Address,
		Balance:  decoder.ScaleByDecimals(raw, decimals),
		Decimals: decimals,
	}, nil
}

// NativeBalance 原生币余额，单位 ETH
func (a *Aggregator) NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	wei, err := a.client.Balance(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return decoder.AdjustDecimals(wei, 18), nil
}
