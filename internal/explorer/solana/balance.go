package solana

import (
	"context"
	"fmt"

	"stablecoin-explorer/internal/explorer/classifier"
	"stablecoin-explorer/internal/explorer/decoder"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/watchlist"

	sol "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Aggregator 查询受监控 mint 的 SPL token 持仓
type Aggregator struct {
	client *Client
	logger *zap.Logger
	mints  []watchlist.Token
}

func NewAggregator(client *Client, logger *zap.Logger) *Aggregator {
	return &Aggregator{client: client, logger: logger, mints: watchlist.SolanaMints()}
}

// Balances 先按 SPL Token 程序一次性查询；返回空时按每个受监控 mint 再查一次，
// 取第一个匹配该 mint 的账户。每个账户一条记录，余额为 0 的不返回
func (a *Aggregator) Balances(ctx context.Context, owner string) []model.TokenBalance {
	if _, err := sol.PublicKeyFromBase58(owner); err != nil {
		a.logger.Warn("Invalid solana owner address", zap.String("owner", owner), zap.Error(err))
		return []model.TokenBalance{}
	}

	accounts, err := a.client.TokenAccountsByOwner(ctx, owner, sol.TokenProgramID.String())
	if err != nil {
		a.logger.Warn("Token accounts lookup failed", zap.String("owner", owner), zap.Error(err))
		monitor.Degraded(string(classifier.ChainSolana), "token_accounts")
		return []model.TokenBalance{}
	}
	if len(accounts) == 0 {
		a.logger.Debug("No token accounts by program, retrying per mint", zap.String("owner", owner))
		accounts = a.retryPerMint(ctx, owner)
	}

	balances := make([]model.TokenBalance, 0, len(accounts))
	for i := range accounts {
		acc := &accounts[i]
		tok, ok := watchlist.LookupSolana(acc.Mint())
		if !ok {
			continue
		}
		amount, err := a.accountAmount(ctx, acc)
		if err != nil {
			a.logger.Warn("Token account balance unavailable, skipping",
				zap.String("account", acc.Pubkey), zap.String("symbol", tok.Symbol), zap.Error(err))
			monitor.Degraded(string(classifier.ChainSolana), "token:"+tok.Symbol)
			continue
		}
		balance := decoder.FormatFixed(amount)
		if !model.IsPositive(balance) {
			continue
		}
		balances = append(balances, model.TokenBalance{
			Symbol:   tok.Symbol,
			Name:     tok.Name,
			Contract: tok.Address,
			Balance:  balance,
			Decimals: tok.Decimals,
		})
	}
	return balances
}

// retryPerMint 每个 mint 仍用程序过滤重查一次，只保留第一个匹配的账户
func (a *Aggregator) retryPerMint(ctx context.Context, owner string) []TokenAccount {
	var accounts []TokenAccount
	for _, tok := range a.mints {
		if ctx.Err() != nil {
			break
		}
		found, err := a.client.TokenAccountsByOwner(ctx, owner, sol.TokenProgramID.String())
		if err != nil {
			a.logger.Warn("Token accounts retry failed", zap.String("symbol", tok.Symbol), zap.Error(err))
			continue
		}
		for _, acc := range found {
			if acc.Mint() == tok.Address {
				accounts = append(accounts, acc)
				break
			}
		}
	}
	return accounts
}

// accountAmount 账户数据里没有解析出余额时单独查询 getTokenAccountBalance
func (a *Aggregator) accountAmount(ctx context.Context, acc *TokenAccount) (decimal.Decimal, error) {
	if amt := acc.TokenAmount(); amt != nil {
		return UiAmount(*amt), nil
	}
	if acc.Pubkey == "" {
		return decimal.Zero, fmt.Errorf("token account without pubkey")
	}
	amt, err := a.client.TokenAccountBalance(ctx, acc.Pubkey)
	if err != nil {
		return decimal.Zero, err
	}
	return UiAmount(*amt), nil
}

// NativeBalance 原生 SOL 余额，只展示不计入总额
func (a *Aggregator) NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	lamports, err := a.client.Balance(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return LamportsToSOL(lamports), nil
}

// Activity 用最近的签名估算 first/last seen，只覆盖最近 DefaultSignatureLimit 条
func (a *Aggregator) Activity(ctx context.Context, owner string) (firstSeen, lastSeen string, err error) {
	sigs, err := a.client.SignaturesForAddress(ctx, owner, DefaultSignatureLimit)
	if err != nil {
		return "", "", err
	}
	var oldest, newest *int64
	for i := range sigs {
		bt := sigs[i].BlockTime
		if bt == nil {
			continue
		}
		if oldest == nil || *bt < *oldest {
			oldest = bt
		}
		if newest == nil || *bt > *newest {
			newest = bt
		}
	}
	if oldest == nil {
		return "", "", fmt.Errorf("no block time in recent signatures: %w", model.ErrNotFound)
	}
	return model.UnixTimestamp(*oldest), model.UnixTimestamp(*newest), nil
}

// Supply 代币总供应量
type Supply struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol,omitempty"`
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

func (a *Aggregator) Supply(ctx context.Context, mint string) (*Supply, error) {
	if _, err := sol.PublicKeyFromBase58(mint); err != nil {
		return nil, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	amt, err := a.client.TokenSupply(ctx, mint)
	if err != nil {
		return nil, err
	}
	tok, _ := watchlist.LookupSolana(mint)
	return &Supply{
		Mint:     mint,
		Symbol:   tok.Symbol,
		Amount:   decoder.FormatFixed(UiAmount(*amt)),
		Decimals: amt.Decimals,
	}, nil
}
