package model

import (
	"github.com/shopspring/decimal"
)

// TokenBalance 单个受监控代币的持仓
type TokenBalance struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Contract string `json:"contract"`
	Balance  string `json:"balance"` // 6 位定点小数
	Decimals uint8  `json:"decimals"`
}

// Address 地址聚合视图
type Address struct {
	Address          string         `json:"address"`
	Chain            string         `json:"chain"`
	Balance          string         `json:"balance"`
	NativeBalance    string         `json:"native_balance,omitempty"`
	TransactionCount int            `json:"transaction_count"` // 不统计，恒为 0
	FirstSeen        string         `json:"first_seen"`
	LastSeen         string         `json:"last_seen"`
	Tokens           []TokenBalance `json:"tokens"`
	Degraded         []string       `json:"degraded,omitempty"`
}

// NewAddress 过滤掉余额为 0 或无法解析的持仓
func NewAddress(address, chain string, tokens []TokenBalance) *Address {
	kept := make([]TokenBalance, 0, len(tokens))
	for _, tb := range tokens {
		if IsPositive(tb.Balance) {
			kept = append(kept, tb)
		}
	}
	return &Address{
		Address: address,
		Chain:   chain,
		Tokens:  kept,
	}
}

func (a *Address) Degrade(field string) {
	a.Degraded = append(a.Degraded, field)
}

// TokenTotal 所有持仓余额之和
func (a *Address) TokenTotal() decimal.Decimal {
	total := decimal.Zero
	for _, tb := range a.Tokens {
		if d, err := decimal.NewFromString(tb.Balance); err == nil {
			total = total.Add(d)
		}
	}
	return total
}

func IsPositive(balance string) bool {
	d, err := decimal.NewFromString(balance)
	return err == nil && d.IsPositive()
}
