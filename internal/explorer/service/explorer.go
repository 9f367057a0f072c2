package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stablecoin-explorer/internal/explorer/classifier"
	"stablecoin-explorer/internal/explorer/decoder"
	"stablecoin-explorer/internal/explorer/evm"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/repository"
	"stablecoin-explorer/internal/explorer/solana"
	"stablecoin-explorer/pkg/jsonrpc"
	"stablecoin-explorer/pkg/logger"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "explorer"

// ErrInvalidQuery 输入无法识别为任何链上的地址或交易
var ErrInvalidQuery = errors.New("unrecognized address or transaction reference")

type TransactionResolver interface {
	Resolve(ctx context.Context, id string) (*model.Transaction, error)
}

type BalanceAggregator interface {
	Balances(ctx context.Context, owner string) []model.TokenBalance
	NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error)
}

// ActivitySource 能给出 first/last seen 的聚合器（目前只有 Solana）
type ActivitySource interface {
	Activity(ctx context.Context, owner string) (firstSeen, lastSeen string, err error)
}

// Backend 单条链的解析器与聚合器
type Backend struct {
	Resolver     TransactionResolver
	Aggregator   BalanceAggregator
	NativeSymbol string
}

// Result 搜索结果，Transaction 与 Address 二选一
type Result struct {
	Type        string             `json:"type"` // transaction | address
	Chain       string             `json:"chain"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
	Address     *model.Address     `json:"address,omitempty"`
}

type Explorer struct {
	backends map[classifier.Chain]Backend
	logger   *zap.Logger
	now      func() time.Time
}

func New(backends map[classifier.Chain]Backend, logger *zap.Logger) *Explorer {
	return &Explorer{backends: backends, logger: logger, now: time.Now}
}

// NewFromRepository 用仓库里的 RPC 客户端组装两条链的 backend
func NewFromRepository(repo repository.Repository, logger *zap.Logger) *Explorer {
	evmClient := repo.GetEVMClient()
	solClient := repo.GetSolanaClient()
	return New(map[classifier.Chain]Backend{
		classifier.ChainEVM: {
			Resolver:     evm.NewResolver(evmClient, logger.Named("evm")),
			Aggregator:   evm.NewAggregator(evmClient, logger.Named("evm")),
			NativeSymbol: evm.NativeSymbol,
		},
		classifier.ChainSolana: {
			Resolver:     solana.NewResolver(solClient, logger.Named("solana")),
			Aggregator:   solana.NewAggregator(solClient, logger.Named("solana")),
			NativeSymbol: solana.NativeSymbol,
		},
	}, logger)
}

func (e *Explorer) backend(chain classifier.Chain) (Backend, error) {
	b, ok := e.backends[chain]
	if !ok {
		return Backend{}, fmt.Errorf("%w: no backend for chain %s", ErrInvalidQuery, chain)
	}
	return b, nil
}

// Transaction 解析交易；任何解析失败都归为 ErrNotFound，原因保留在错误链里。
// 没有稳定币转账的交易照常返回，token_info 缺省、amount 为空
func (e *Explorer) Transaction(ctx context.Context, id string) (*model.Transaction, error) {
	id = strings.TrimSpace(id)
	kind := classifier.Classify(id)
	if !kind.IsTransaction() {
		record(kind, "invalid")
		return nil, fmt.Errorf("%w: %q is not a transaction reference", ErrInvalidQuery, id)
	}

	ctx, span := logger.StartSpan(ctx, tracerName, "Explorer.Transaction",
		attribute.String("kind", kind.String()), attribute.String("id", id))
	defer span.End()
	tl := logger.WithTrace(ctx, e.logger)

	b, err := e.backend(kind.Chain())
	if err != nil {
		return nil, fail(span, kind, err)
	}

	tx, err := b.Resolver.Resolve(ctx, id)
	if err != nil {
		tl.Info("Transaction not resolved",
			zap.String("id", id), zap.String("error_kind", jsonrpc.Kind(err)), zap.Error(err))
		return nil, fail(span, kind, notFound(err))
	}
	if len(tx.Degraded) > 0 {
		tl.Warn("Transaction resolved with fallback fields",
			zap.String("id", id), zap.Strings("degraded", tx.Degraded))
	}
	record(kind, "ok")
	span.SetAttributes(attribute.String("coin_type", tx.CoinType), attribute.String("amount", tx.Amount))
	return tx, nil
}

// Address 汇总地址持仓。EVM 总额 = 原生币 + 代币；Solana 只累计代币，原生 SOL 单独展示
func (e *Explorer) Address(ctx context.Context, address string) (*model.Address, error) {
	address = strings.TrimSpace(address)
	kind := classifier.Classify(address)
	if !kind.IsAddress() {
		record(kind, "invalid")
		return nil, fmt.Errorf("%w: %q is not an address", ErrInvalidQuery, address)
	}

	ctx, span := logger.StartSpan(ctx, tracerName, "Explorer.Address",
		attribute.String("kind", kind.String()), attribute.String("address", address))
	defer span.End()
	tl := logger.WithTrace(ctx, e.logger)

	chain := kind.Chain()
	b, err := e.backend(chain)
	if err != nil {
		return nil, fail(span, kind, err)
	}

	tokens := b.Aggregator.Balances(ctx, address)
	out := model.NewAddress(address, string(chain), tokens)

	native, err := b.Aggregator.NativeBalance(ctx, address)
	if err != nil {
		tl.Warn("Native balance unavailable, counted as zero", zap.String("address", address), zap.Error(err))
		out.Degrade(model.DegradedNativeBalance)
		monitor.Degraded(string(chain), model.DegradedNativeBalance)
		native = decimal.Zero
	}
	out.NativeBalance = decoder.FormatFixed(native) + " " + b.NativeSymbol

	total := out.TokenTotal()
	if chain == classifier.ChainEVM {
		total = total.Add(native)
	}
	out.Balance = decoder.FormatFixed(total)

	now := model.FormatTimestamp(e.now())
	out.FirstSeen, out.LastSeen = now, now
	if src, ok := b.Aggregator.(ActivitySource); ok {
		first, last, err := src.Activity(ctx, address)
		if err != nil {
			tl.Warn("Activity unavailable, first/last seen fall back to now", zap.String("address", address), zap.Error(err))
			out.Degrade(model.DegradedActivity)
			monitor.Degraded(string(chain), model.DegradedActivity)
		} else {
			out.FirstSeen, out.LastSeen = first, last
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(span, kind, notFound(err))
	}

	record(kind, "ok")
	span.SetAttributes(attribute.Int("tokens", len(out.Tokens)), attribute.String("balance", out.Balance))
	return out, nil
}

// Search 按识别结果先尝试交易，再尝试地址
func (e *Explorer) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	kind := classifier.Classify(query)
	if kind == classifier.Unknown {
		record(kind, "invalid")
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidQuery, query)
	}

	if kind.IsTransaction() {
		tx, err := e.Transaction(ctx, query)
		if err != nil {
			return Result{}, err
		}
		// 搜索只认稳定币转账，普通交易交给地址或其他入口
		if !tx.HasToken() {
			e.logger.Info("Transaction carries no watched stablecoin transfer", zap.String("id", query))
			return Result{}, fmt.Errorf("%w: no stablecoin transfer in %s", model.ErrNotFound, query)
		}
		return Result{Type: "transaction", Chain: tx.Chain, Transaction: tx}, nil
	}

	addr, err := e.Address(ctx, query)
	if err != nil {
		return Result{}, err
	}
	return Result{Type: "address", Chain: addr.Chain, Address: addr}, nil
}

func notFound(cause error) error {
	if errors.Is(cause, model.ErrNotFound) {
		return cause
	}
	return fmt.Errorf("%w: %w", model.ErrNotFound, cause)
}

func fail(span trace.Span, kind classifier.Kind, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrInvalidQuery) {
		record(kind, "invalid")
	} else {
		record(kind, "not_found")
	}
	return err
}

func record(kind classifier.Kind, result string) {
	monitor.Resolutions.WithLabelValues(kind.String(), result).Inc()
}
