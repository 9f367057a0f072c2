package model

import (
	"errors"
	"time"
)

// ErrNotFound 交易/地址不存在，或解析过程失败（两者对外不做区分）
var ErrNotFound = errors.New("not found")

type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// 降级字段名，写入 Degraded
const (
	DegradedTimestamp     = "timestamp"
	DegradedGasFee        = "gas_fee"
	DegradedNativeBalance = "native_balance"
	DegradedActivity      = "activity"
)

// TokenInfo 识别出的稳定币转账
type TokenInfo struct {
	Contract       string `json:"contract"` // EVM 合约地址或 Solana mint
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Decimals       uint8  `json:"decimals"`
	TransferAmount string `json:"transfer_amount"`
}

// Transaction 链无关的标准交易记录
type Transaction struct {
	ID          string     `json:"id"`
	Hash        string     `json:"hash"`
	Chain       string     `json:"chain"`
	Sender      string     `json:"sender"`
	Receiver    string     `json:"receiver"`
	CoinType    string     `json:"coin_type,omitempty"`
	TokenInfo   *TokenInfo `json:"token_info,omitempty"`
	Amount      string     `json:"amount,omitempty"`
	Status      Status     `json:"status"`
	Timestamp   string     `json:"timestamp"`
	GasFee      string     `json:"gas_fee"`
	BlockNumber string     `json:"block_number"` // EVM 区块号 / Solana slot

	// EVM 原始交易字段，Solana 为空
	Value    string `json:"value,omitempty"`
	GasLimit string `json:"gas_limit,omitempty"`
	GasUsed  string `json:"gas_used,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	Input    string `json:"input,omitempty"`

	Degraded []string `json:"degraded,omitempty"`
}

// SetToken 同时维护 TokenInfo / Amount / CoinType，nil 表示没有识别到稳定币
func (t *Transaction) SetToken(info *TokenInfo) {
	t.TokenInfo = info
	if info == nil {
		t.Amount = ""
		t.CoinType = ""
		return
	}
	t.Amount = info.TransferAmount
	t.CoinType = info.Symbol
}

func (t *Transaction) HasToken() bool { return t.TokenInfo != nil }

// Degrade 记录使用了兜底值的字段
func (t *Transaction) Degrade(field string) {
	t.Degraded = append(t.Degraded, field)
}

// FormatTimestamp 统一输出 RFC 3339 UTC
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func UnixTimestamp(sec int64) string {
	return FormatTimestamp(time.Unix(sec, 0))
}
