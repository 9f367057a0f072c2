package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"stablecoin-explorer/internal/explorer/classifier"
	"stablecoin-explorer/internal/explorer/decoder"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/watchlist"

	"go.uber.org/zap"
)

const NativeSymbol = "ETH"

// Resolver 把交易哈希解析成标准 Transaction
type Resolver struct {
	client *Client
	logger *zap.Logger
	now    func() time.Time
}

func NewResolver(client *Client, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, logger: logger, now: time.Now}
}

// transfer 识别出的稳定币转账
type transfer struct {
	contract string
	sender   string
	receiver string
	raw      *big.Int
}

// Resolve 所有 RPC 调用顺序执行，后续步骤依赖前面的结果
func (r *Resolver) Resolve(ctx context.Context, hash string) (*model.Transaction, error) {
	tx, err := r.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction: %w", err)
	}
	receipt, err := r.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt: %w", err)
	}

	out := &model.Transaction{
		ID:       hash,
		Hash:     hash,
		Chain:    string(classifier.ChainEVM),
		Sender:   tx.From,
		Receiver: tx.To,
		Status:   receiptStatus(receipt),
		Value:    decoder.WeiToEther(decoder.HexToUint(tx.Value)) + " " + NativeSymbol,
		GasLimit: decoder.HexToDecimalString(tx.Gas),
		GasUsed:  decoder.HexToDecimalString(receipt.GasUsed),
		Nonce:    decoder.HexToDecimalString(tx.Nonce),
		Input:    tx.Input,
	}
	if tx.Hash != "" {
		out.ID, out.Hash = tx.Hash, tx.Hash
	}

	tr := r.detectTransfer(tx, receipt)
	if tr != nil {
		info, err := r.tokenInfo(ctx, tr)
		if err != nil {
			return nil, err
		}
		out.Sender, out.Receiver = tr.sender, tr.receiver
		out.SetToken(info)
	} else {
		out.SetToken(nil)
	}

	blockNumber := receipt.BlockNumber
	if blockNumber == "" {
		blockNumber = tx.BlockNumber
	}
	out.BlockNumber = decoder.HexToDecimalString(blockNumber)
	out.Timestamp = r.blockTimestamp(ctx, out, blockNumber)
	out.GasFee = r.gasFee(out, receipt.GasUsed, tx.GasPrice)

	return out, nil
}

// detectTransfer 先看 tx.to 是否直接调用受监控合约，再扫描 Transfer 日志，
// 第一条命中的日志优先决定发送方、接收方和金额
func (r *Resolver) detectTransfer(tx *TransactionRaw, receipt *ReceiptRaw) *transfer {
	var direct *transfer
	if _, ok := watchlist.LookupEVM(tx.To); ok {
		// 直接调用没有日志可解析，金额为 0
		direct = &transfer{contract: tx.To, sender: tx.From, receiver: tx.To, raw: new(big.Int)}
	}

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || !strings.EqualFold(log.Topics[0], decoder.TransferEventTopic) {
			continue
		}
		if _, ok := watchlist.LookupEVM(log.Address); !ok {
			continue
		}

		tr := &transfer{contract: log.Address, sender: tx.From, receiver: tx.To, raw: decoder.HexToUint(log.Data)}
		if len(log.Topics) >= 3 {
			from, errFrom := decoder.DecodeTopicAddress(log.Topics[1])
			to, errTo := decoder.DecodeTopicAddress(log.Topics[2])
			if errFrom == nil && errTo == nil {
				tr.sender, tr.receiver = from, to
			} else {
				r.logger.Warn("Transfer log topics malformed, keep transaction parties",
					zap.String("contract", log.Address), zap.Strings("topics", log.Topics))
			}
		}
		return tr
	}
	return direct
}

// tokenInfo symbol / name / decimals 依次查询
func (r *Resolver) tokenInfo(ctx context.Context, tr *transfer) (*model.TokenInfo, error) {
	symbol, err := r.client.TokenSymbol(ctx, tr.contract)
	if err != nil {
		return nil, fmt.Errorf("token metadata %s: %w", tr.contract, err)
	}
	name, err := r.client.TokenName(ctx, tr.contract)
	if err != nil {
		return nil, fmt.Errorf("token metadata %s: %w", tr.contract, err)
	}
	decimals, err := r.client.TokenDecimals(ctx, tr.contract)
	if err != nil {
		return nil, fmt.Errorf("token metadata %s: %w", tr.contract, err)
	}

	return &model.TokenInfo{
		Contract:       tr.contract,
		Symbol:         symbol,
		Name:           name,
		Decimals:       decimals,
		TransferAmount: decoder.ScaleByDecimals(tr.raw, decimals),
	}, nil
}

// blockTimestamp 区块拿不到时退回当前时间并标记降级
func (r *Resolver) blockTimestamp(ctx context.Context, out *model.Transaction, blockNumber string) string {
	if _, ok := decoder.ParseHexUint(blockNumber); ok {
		block, err := r.client.BlockByNumber(ctx, blockNumber)
		if err == nil {
			if ts, ok := decoder.ParseHexUint(block.Timestamp); ok && ts.IsInt64() {
				return model.UnixTimestamp(ts.Int64())
			}
			err = fmt.Errorf("invalid block timestamp %q", block.Timestamp)
		}
		r.logger.Warn("Block unavailable, timestamp falls back to wall clock",
			zap.String("hash", out.Hash), zap.String("block", blockNumber), zap.Error(err))
	} else {
		r.logger.Warn("Block number missing, timestamp falls back to wall clock", zap.String("hash", out.Hash))
	}

	r.degrade(out, model.DegradedTimestamp)
	return model.FormatTimestamp(r.now())
}

// gasFee gasUsed * gasPrice，任一字段缺失或非法时为 0 并标记降级
func (r *Resolver) gasFee(out *model.Transaction, gasUsedHex, gasPriceHex string) string {
	gasUsed, okUsed := decoder.ParseHexUint(gasUsedHex)
	gasPrice, okPrice := decoder.ParseHexUint(gasPriceHex)
	if !okUsed || !okPrice {
		r.logger.Warn("Gas fields missing, fee falls back to zero",
			zap.String("hash", out.Hash), zap.String("gas_used", gasUsedHex), zap.String("gas_price", gasPriceHex))
		r.degrade(out, model.DegradedGasFee)
		return decoder.WeiToEther(new(big.Int)) + " " + NativeSymbol
	}
	return decoder.WeiToEther(new(big.Int).Mul(gasUsed, gasPrice)) + " " + NativeSymbol
}

func (r *Resolver) degrade(out *model.Transaction, field string) {
	out.Degrade(field)
	monitor.Degraded(string(classifier.ChainEVM), field)
}

func receiptStatus(receipt *ReceiptRaw) model.Status {
	switch {
	case receipt == nil:
		return model.StatusPending
	case receipt.Status == "0x1":
		return model.StatusSuccess
	default:
		return model.StatusFailed
	}
}
