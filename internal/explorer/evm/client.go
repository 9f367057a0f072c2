package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"stablecoin-explorer/internal/explorer/decoder"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/pkg/jsonrpc"
)

// Caller 由 *jsonrpc.Client 实现
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Client EVM JSON-RPC 方法的类型化封装
type Client struct {
	rpc Caller
}

func NewClient(rpc Caller) *Client {
	return &Client{rpc: rpc}
}

func (c *Client) call(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.rpc.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	found, err := jsonrpc.Decode(raw, out)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", method, model.ErrNotFound)
	}
	return nil
}

func (c *Client) TransactionByHash(ctx context.Context, hash string) (*TransactionRaw, error) {
	var tx TransactionRaw
	if err := c.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*ReceiptRaw, error) {
	var receipt ReceiptRaw
	if err := c.call(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// BlockByNumber 只取区块头，不含交易详情
func (c *Client) BlockByNumber(ctx context.Context, number string) (*BlockRaw, error) {
	var block BlockRaw
	if err := c.call(ctx, &block, "eth_getBlockByNumber", number, false); err != nil {
		return nil, err
	}
	return &block, nil
}

// Balance 原生币余额（wei）
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	var hex string
	if err := c.call(ctx, &hex, "eth_getBalance", address, "latest"); err != nil {
		return nil, err
	}
	v, ok := decoder.ParseHexUint(hex)
	if !ok {
		return nil, fmt.Errorf("eth_getBalance: invalid quantity %q", hex)
	}
	return v, nil
}

// Call 在最新区块执行只读调用，返回十六进制结果
func (c *Client) Call(ctx context.Context, to, data string) (string, error) {
	var out string
	if err := c.call(ctx, &out, "eth_call", callMsg{To: to, Data: data}, "latest"); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) TokenSymbol(ctx context.Context, contract string) (string, error) {
	out, err := c.Call(ctx, contract, decoder.SymbolCallData())
	if err != nil {
		return "", fmt.Errorf("symbol(): %w", err)
	}
	return decoder.DecodeABIString(out), nil
}

func (c *Client) TokenName(ctx context.Context, contract string) (string, error) {
	out, err := c.Call(ctx, contract, decoder.NameCallData())
	if err != nil {
		return "", fmt.Errorf("name(): %w", err)
	}
	return decoder.DecodeABIString(out), nil
}

func (c *Client) TokenDecimals(ctx context.Context, contract string) (uint8, error) {
	out, err := c.Call(ctx, contract, decoder.DecimalsCallData())
	if err != nil {
		return 0, fmt.Errorf("decimals(): %w", err)
	}
	return decoder.DecodeUint8(out)
}

// TokenBalance balanceOf(holder) 的原始整数
func (c *Client) TokenBalance(ctx context.Context, contract, holder string) (*big.Int, error) {
	data, err := decoder.BalanceOfCallData(holder)
	if err != nil {
		return nil, err
	}
	out, err := c.Call(ctx, contract, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf(): %w", err)
	}
	return decoder.HexToUint(out), nil
}
