package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stablecoin-explorer/pkg/jsonrpc"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Server  ServerConfig  `mapstructure:"server"`
	EVM     RPCConfig     `mapstructure:"evm"`
	Solana  RPCConfig     `mapstructure:"solana"`
	Lookup  LookupConfig  `mapstructure:"lookup"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// ServerConfig 查询 API 配置
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RPCConfig 单条链的 JSON-RPC 配置
type RPCConfig struct {
	RPCURL        string `mapstructure:"rpc_url"`
	APIKey        string `mapstructure:"api_key"`
	APIKeyHeader  string `mapstructure:"api_key_header"`
	MinIntervalMs int    `mapstructure:"min_interval_ms"` // 相邻请求最小间隔，0 表示默认 1000ms
	Timeout       int    `mapstructure:"timeout"`         // 秒
}

// MinInterval 未配置时取 jsonrpc.DefaultMinInterval，节流不能被关闭
func (c RPCConfig) MinInterval() time.Duration {
	if c.MinIntervalMs <= 0 {
		return jsonrpc.DefaultMinInterval
	}
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

func (c RPCConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LookupConfig CLI 批量查询配置
type LookupConfig struct {
	Parallel int `mapstructure:"parallel"`
}

const (
	DefaultBaseRPCURL   = "https://base-mainnet.gateway.tatum.io/"
	DefaultSolanaRPCURL = "https://solana-mainnet.gateway.tatum.io/"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.console", false)

	v.SetDefault("monitor.enable", false)
	v.SetDefault("monitor.prometheus_addr", ":9100")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("evm.rpc_url", DefaultBaseRPCURL)
	v.SetDefault("evm.api_key", "")
	v.SetDefault("evm.api_key_header", "x-api-key")
	v.SetDefault("evm.min_interval_ms", 1000)
	v.SetDefault("evm.timeout", 15)

	v.SetDefault("solana.rpc_url", DefaultSolanaRPCURL)
	v.SetDefault("solana.api_key", "")
	v.SetDefault("solana.api_key_header", "x-api-key")
	v.SetDefault("solana.min_interval_ms", 1000)
	v.SetDefault("solana.timeout", 15)

	v.SetDefault("lookup.parallel", 2)
}

// 环境变量：EXPLORER_<SECTION>_<KEY>，另外兼容旧部署使用的变量名
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"evm.rpc_url":    {"EXPLORER_EVM_RPC_URL", "BASE_RPC_URL"},
		"evm.api_key":    {"EXPLORER_EVM_API_KEY", "TATUM_API_KEY"},
		"solana.rpc_url": {"EXPLORER_SOLANA_RPC_URL", "SOLANA_RPC_URL"},
		"solana.api_key": {"EXPLORER_SOLANA_API_KEY", "TATUM_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config.explorer")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config/")
	}

	if err := v.ReadInConfig(); err != nil {
		// 未指定路径且默认位置没有配置文件时只用默认值和环境变量
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true, // 环境变量都是字符串
		Result:           &config,
	})
	if err != nil {
		return config, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// Validate 检查必要配置
func (c Config) Validate() error {
	if c.EVM.RPCURL == "" {
		return errors.New("evm.rpc_url is empty")
	}
	if c.Solana.RPCURL == "" {
		return errors.New("solana.rpc_url is empty")
	}
	if c.EVM.MinIntervalMs < 0 || c.Solana.MinIntervalMs < 0 {
		return errors.New("min_interval_ms must not be negative")
	}
	if c.Lookup.Parallel < 1 {
		return errors.New("lookup.parallel must be at least 1")
	}
	return nil
}

// Load 读取配置，path 为空时查找 ./config/config.explorer.yaml
func Load(path string) (Config, error) {
	v, err := newViper(path)
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

func InitConfig(path string) Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return config
}

// WatchConfig 配置文件变化时回调，没有配置文件时不监听
func WatchConfig(path string, onChange func(Config)) error {
	v, err := newViper(path)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		newConfig, err := decode(v)
		if err != nil {
			return
		}
		onChange(newConfig)
	})
	v.WatchConfig()
	return nil
}
