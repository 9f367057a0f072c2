package solana

import (
	"context"
	"encoding/json"
	"fmt"

	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/pkg/jsonrpc"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultSignatureLimit getSignaturesForAddress 默认条数
const DefaultSignatureLimit = 10

// Caller 由 *jsonrpc.Client 实现
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Client Solana JSON-RPC 方法的类型化封装
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

// Transaction 带 meta 的已解析交易，支持 v0 交易
func (c *Client) Transaction(ctx context.Context, signature string) (*ParsedTransaction, error) {
	var tx ParsedTransaction
	err := c.call(ctx, &tx, "getTransaction", signature, map[string]any{
		"encoding":                       sol.EncodingJSONParsed,
		"maxSupportedTransactionVersion": 0,
		"commitment":                     rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Balance 原生 SOL 余额（lamports）
func (c *Client) Balance(ctx context.Context, address string) (uint64, error) {
	var out rpc.GetBalanceResult
	if err := c.call(ctx, &out, "getBalance", address); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// TokenAccountsByOwner 按 token 程序过滤 owner 的全部 token 账户
func (c *Client) TokenAccountsByOwner(ctx context.Context, owner, programID string) ([]TokenAccount, error) {
	var out tokenAccountsResult
	err := c.call(ctx, &out, "getTokenAccountsByOwner", owner, map[string]string{"programId": programID}, map[string]any{
		"encoding": sol.EncodingJSONParsed,
	})
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *Client) TokenAccountBalance(ctx context.Context, account string) (*rpc.UiTokenAmount, error) {
	var out rpc.GetTokenAccountBalanceResult
	if err := c.call(ctx, &out, "getTokenAccountBalance", account); err != nil {
		return nil, err
	}
	if out.Value == nil {
		return nil, fmt.Errorf("getTokenAccountBalance: %w", model.ErrNotFound)
	}
	return out.Value, nil
}

// SignaturesForAddress 最近的签名，按时间倒序
func (c *Client) SignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	if limit <= 0 {
		limit = DefaultSignatureLimit
	}
	var out []SignatureInfo
	if err := c.call(ctx, &out, "getSignaturesForAddress", address, map[string]any{"limit": limit}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TokenSupply(ctx context.Context, mint string) (*rpc.UiTokenAmount, error) {
	var out rpc.GetTokenSupplyResult
	if err := c.call(ctx, &out, "getTokenSupply", mint); err != nil {
		return nil, err
	}
	if out.Value == nil {
		return nil, fmt.Errorf("getTokenSupply: %w", model.ErrNotFound)
	}
	return out.Value, nil
}
