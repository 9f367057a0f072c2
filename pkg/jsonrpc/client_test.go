package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rpcHandler func(method string, params []json.RawMessage) (result any, rpcErr map[string]any)

func newRPCServer(t *testing.T, h rpcHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result, rpcErr := h(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Call_Result(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	defer srv.Close()

	c := New(Config{Name: "evm", Endpoint: srv.URL, APIKey: "secret", MinInterval: time.Millisecond}, zaptest.NewLogger(t))
	raw, err := c.Call(context.Background(), "eth_blockNumber")
	require.NoError(t, err)

	var out string
	found, err := Decode(raw, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0x10", out)
	assert.Equal(t, "secret", gotKey)
}

func TestClient_Call_NullResult(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		return nil, nil
	})
	c := New(Config{Name: "evm", Endpoint: srv.URL, MinInterval: time.Millisecond}, zaptest.NewLogger(t))

	raw, err := c.Call(context.Background(), "eth_getTransactionByHash", "0xabc")
	require.NoError(t, err)

	var out map[string]any
	found, err := Decode(raw, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestClient_Call_ProtocolError(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		return nil, map[string]any{"code": -32602, "message": "invalid params"}
	})
	c := New(Config{Name: "solana", Endpoint: srv.URL, MinInterval: time.Millisecond}, zaptest.NewLogger(t))

	_, err := c.Call(context.Background(), "getTransaction", "sig")
	require.Error(t, err)

	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, -32602, pe.Code)
	assert.Equal(t, "invalid params", pe.Message)
	assert.Equal(t, "getTransaction", pe.Method)
	assert.Equal(t, "protocol", Kind(err))
}

func TestClient_Call_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{Name: "evm", Endpoint: srv.URL, MinInterval: time.Millisecond}, zaptest.NewLogger(t))
	_, err := c.Call(context.Background(), "eth_call")
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.Equal(t, "transport", Kind(err))
}

func TestClient_Call_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{Name: "evm", Endpoint: url, Timeout: time.Second, MinInterval: time.Millisecond}, zaptest.NewLogger(t))
	_, err := c.Call(context.Background(), "eth_call")

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
}

func TestClient_Pacing_SequentialCalls(t *testing.T) {
	const interval = 40 * time.Millisecond
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		return "0x1", nil
	})

	var mu sync.Mutex
	var dispatches []time.Time
	c := New(Config{Name: "evm", Endpoint: srv.URL, MinInterval: interval}, zaptest.NewLogger(t),
		WithHooks(Hooks{OnDispatch: func(method string, at time.Time, waited time.Duration) {
			mu.Lock()
			dispatches = append(dispatches, at)
			mu.Unlock()
		}}))

	for i := 0; i < 5; i++ {
		_, err := c.Call(context.Background(), "eth_blockNumber")
		require.NoError(t, err)
	}

	require.Len(t, dispatches, 5)
	for i := 1; i < len(dispatches); i++ {
		assert.GreaterOrEqual(t, dispatches[i].Sub(dispatches[i-1]), interval, "gap %d", i)
	}
}

func TestClient_Pacing_ConcurrentCallers(t *testing.T) {
	const interval = 25 * time.Millisecond
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		return "0x1", nil
	})

	var mu sync.Mutex
	var dispatches []time.Time
	c := New(Config{Name: "solana", Endpoint: srv.URL, MinInterval: interval}, zaptest.NewLogger(t),
		WithHooks(Hooks{OnDispatch: func(method string, at time.Time, waited time.Duration) {
			mu.Lock()
			dispatches = append(dispatches, at)
			mu.Unlock()
		}}))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Call(context.Background(), "getSlot")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, dispatches, 6)
	for i := 1; i < len(dispatches); i++ {
		assert.GreaterOrEqual(t, dispatches[i].Sub(dispatches[i-1]), interval, "gap %d", i)
	}
}

func TestClient_Pacing_CancelWhileWaiting(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		return "0x1", nil
	})
	c := New(Config{Name: "evm", Endpoint: srv.URL, MinInterval: time.Hour}, zaptest.NewLogger(t))

	_, err := c.Call(context.Background(), "eth_blockNumber")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Call(ctx, "eth_blockNumber")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_Hooks_OnDone(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		if method == "bad" {
			return nil, map[string]any{"code": 1, "message": "nope"}
		}
		return true, nil
	})

	kinds := map[string]string{}
	c := New(Config{Name: "evm", Endpoint: srv.URL, MinInterval: time.Millisecond}, zaptest.NewLogger(t),
		WithHooks(Hooks{OnDone: func(method, kind string, elapsed time.Duration) {
			kinds[method] = kind
		}}))

	_, _ = c.Call(context.Background(), "good")
	_, _ = c.Call(context.Background(), "bad")
	assert.Equal(t, map[string]string{"good": "ok", "bad": "protocol"}, kinds)
}

func TestClient_Pacing_DefaultInterval(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, map[string]any) {
		return "0x1", nil
	})

	var mu sync.Mutex
	var dispatches []time.Time
	// 未配置间隔时不能退化成不限速
	c := New(Config{Name: "evm", Endpoint: srv.URL}, zaptest.NewLogger(t),
		WithHooks(Hooks{OnDispatch: func(method string, at time.Time, waited time.Duration) {
			mu.Lock()
			dispatches = append(dispatches, at)
			mu.Unlock()
		}}))
	assert.Equal(t, DefaultMinInterval, c.pacer.Interval())

	for i := 0; i < 2; i++ {
		_, err := c.Call(context.Background(), "eth_blockNumber")
		require.NoError(t, err)
	}
	require.Len(t, dispatches, 2)
	assert.GreaterOrEqual(t, dispatches[1].Sub(dispatches[0]), DefaultMinInterval)

	negative := New(Config{Name: "evm", Endpoint: srv.URL, MinInterval: -time.Second}, zaptest.NewLogger(t))
	assert.Equal(t, DefaultMinInterval, negative.pacer.Interval())
}

func TestClient_JSONCodec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeJSON(&buf, request{JSONRPC: "2.0", Method: "getSlot", Params: []any{}, ID: 7}))
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"getSlot","params":[],"id":7}`, buf.String())

	// result 保留原始字节，大整数不经过 float
	var out response
	body := `{"jsonrpc":"2.0","id":7,"result":{"value":18446744073709551615}}`
	require.NoError(t, decodeJSON(strings.NewReader(body), &out))
	assert.Equal(t, uint64(7), out.ID)
	assert.JSONEq(t, `{"value":18446744073709551615}`, string(out.Result))
	assert.Nil(t, out.Error)

	require.NoError(t, decodeJSON(strings.NewReader(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`), &out))
	require.NotNil(t, out.Error)
	assert.Equal(t, -32601, out.Error.Code)
}
