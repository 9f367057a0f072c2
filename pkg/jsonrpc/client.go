package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	DefaultMinInterval  = 1000 * time.Millisecond
	DefaultTimeout      = 15 * time.Second
	DefaultAPIKeyHeader = "x-api-key"
)

// Config 单个 RPC 端点的客户端配置
type Config struct {
	Name         string        // 链标识，用于日志和指标
	Endpoint     string        // JSON-RPC 地址
	APIKey       string        // 为空时不带鉴权头
	APIKeyHeader string        // 默认 x-api-key
	MinInterval  time.Duration // 相邻两次请求发出的最小间隔，<=0 时为 DefaultMinInterval
	Timeout      time.Duration // 单次请求超时
	UserAgent    string
}

// Hooks observe the request lifecycle. Nil members are skipped.
type Hooks struct {
	OnDispatch func(method string, dispatchedAt time.Time, waited time.Duration)
	OnDone     func(method string, kind string, elapsed time.Duration)
}

type Option func(*Client)

func WithHooks(h Hooks) Option {
	return func(c *Client) { c.hooks = h }
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *ProtocolError  `json:"error"`
}

// Client is a paced JSON-RPC 2.0 client. One instance is shared by every
// caller of a chain; all of them go through the same Pacer.
type Client struct {
	name     string
	endpoint string
	timeout  time.Duration
	client   *resty.Client
	pacer    *Pacer
	logger   *zap.Logger
	hooks    Hooks
	nextID   atomic.Uint64
}

func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	// 0 表示使用默认间隔，不允许关闭节流
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}
	logger = logger.With(zap.String("chain", cfg.Name))

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		AddContentTypeEncoder("json", encodeJSON).
		AddContentTypeDecoder("json", decodeJSON).
		AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
			if cfg.UserAgent != "" {
				r.SetHeader("User-Agent", cfg.UserAgent)
			}
			if cfg.APIKey != "" {
				r.SetHeader(cfg.APIKeyHeader, cfg.APIKey)
			}
			return nil
		}).
		AddResponseMiddleware(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				logger.Warn("RPC HTTP request failed",
					zap.Int("status", resp.StatusCode()),
					zap.String("url", resp.Request.URL),
				)
			}
			return nil
		})

	c := &Client{
		name:     cfg.Name,
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		client:   restyClient,
		pacer:    NewPacer(cfg.MinInterval),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the chain label of the client.
func (c *Client) Name() string { return c.name }

// Call sends one request and returns the raw result member. A JSON null
// result is returned as-is; use Decode to tell it apart.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	var (
		out     response
		resp    *resty.Response
		sendErr error
		started time.Time
	)
	err := c.pacer.Dispatch(ctx, func(dispatchedAt time.Time, waited time.Duration) {
		if c.hooks.OnDispatch != nil {
			c.hooks.OnDispatch(method, dispatchedAt, waited)
		}
		if waited > time.Millisecond {
			c.logger.Debug("RPC request paced", zap.String("method", method), zap.Duration("waited", waited))
		}
		started = dispatchedAt

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, sendErr = c.client.R().
			SetContext(callCtx).
			SetBody(body).
			SetResult(&out).
			Post(c.endpoint)
	})
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}

	result, err := c.check(method, resp, sendErr, &out)
	if c.hooks.OnDone != nil {
		c.hooks.OnDone(method, Kind(err), time.Since(started))
	}
	if err != nil {
		c.logger.Debug("RPC request failed", zap.String("method", method), zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) check(method string, resp *resty.Response, sendErr error, out *response) (json.RawMessage, error) {
	if sendErr != nil {
		return nil, &TransportError{Method: method, Err: sendErr}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode()}
	}
	if out.Error != nil {
		out.Error.Method = method
		return nil, out.Error
	}
	if out.JSONRPC == "" && out.Result == nil {
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode(), Err: errors.New("malformed json-rpc envelope")}
	}
	return out.Result, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.client.Close()
}

// resty 的 json 编解码也走 sonic
func encodeJSON(w io.Writer, v any) error {
	return sonic.ConfigStd.NewEncoder(w).Encode(v)
}

func decodeJSON(r io.Reader, v any) error {
	return sonic.ConfigStd.NewDecoder(r).Decode(v)
}

var null = []byte("null")

// Decode unmarshals a result into out. found is false for an absent or null
// result, in which case out is left untouched.
func Decode(raw json.RawMessage, out any) (found bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, null) {
		return false, nil
	}
	if err := sonic.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("decode result: %w", err)
	}
	return true, nil
}
