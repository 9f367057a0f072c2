package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_SetToken(t *testing.T) {
	tx := &Transaction{}
	tx.SetToken(&TokenInfo{Symbol: "USDC", TransferAmount: "1.500000"})
	assert.Equal(t, "1.500000", tx.Amount)
	assert.Equal(t, "USDC", tx.CoinType)
	assert.True(t, tx.HasToken())

	tx.SetToken(nil)
	assert.Empty(t, tx.Amount)
	assert.Empty(t, tx.CoinType)
	assert.False(t, tx.HasToken())
}

func TestNewAddress_FiltersZero(t *testing.T) {
	a := NewAddress("0xabc", "evm", []TokenBalance{
		{Symbol: "USDC", Balance: "0.000000"},
		{Symbol: "USDT", Balance: "42.123456"},
		{Symbol: "DAI", Balance: "garbage"},
	})
	assert.Len(t, a.Tokens, 1)
	assert.Equal(t, "USDT", a.Tokens[0].Symbol)
	assert.Equal(t, "42.123456", a.TokenTotal().StringFixed(6))
	assert.Equal(t, 0, a.TransactionCount)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))
	assert.Equal(t, "2024-05-01T00:00:00Z", FormatTimestamp(ts))
	assert.Equal(t, "1970-01-01T00:00:10Z", UnixTimestamp(10))
}
