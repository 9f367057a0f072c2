package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (service.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	if strings.HasPrefix(query, "bad") {
		return service.Result{}, fmt.Errorf("%w: %q", service.ErrInvalidQuery, query)
	}
	return service.Result{Type: "address", Chain: "evm", Address: &model.Address{Address: query}}, nil
}

func TestLookupAll_KeepsOrderAndBound(t *testing.T) {
	s := &fakeSearcher{}
	queries := []string{"a1", "bad1", "a2", "a3", "bad2", "a4"}

	results := lookupAll(context.Background(), s, queries, 2)
	require.Len(t, results, len(queries))
	for i, q := range queries {
		assert.Equal(t, q, results[i].Query)
		if strings.HasPrefix(q, "bad") {
			assert.Nil(t, results[i].Result)
			assert.Contains(t, results[i].Error, "unrecognized")
		} else {
			require.NotNil(t, results[i].Result)
			assert.Equal(t, q, results[i].Result.Address.Address)
		}
	}
	assert.LessOrEqual(t, s.peak.Load(), int32(2))
}

func TestLookupAll_ZeroParallelRunsSequentially(t *testing.T) {
	s := &fakeSearcher{}
	results := lookupAll(context.Background(), s, []string{"a", "b", "c"}, 0)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(1), s.peak.Load())
}

func TestPrintJSON(t *testing.T) {
	tx := &model.Transaction{ID: "0xabc", Chain: "evm", Status: model.StatusSuccess}
	tx.SetToken(&model.TokenInfo{Symbol: "USDC", TransferAmount: "1.069296"})

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, tx, ""))
	assert.Contains(t, buf.String(), `"coin_type": "USDC"`)

	buf.Reset()
	require.NoError(t, printJSON(&buf, tx, ".amount"))
	assert.Equal(t, "1.069296\n", buf.String())

	buf.Reset()
	require.NoError(t, printJSON(&buf, tx, "{chain, symbol: .token_info.symbol}"))
	assert.Contains(t, buf.String(), `"symbol": "USDC"`)

	assert.Error(t, printJSON(&buf, tx, ".[[["))
}
