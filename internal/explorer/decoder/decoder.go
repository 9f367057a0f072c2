package decoder

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// DisplayPrecision 金额、余额统一保留的小数位
const DisplayPrecision = 6

var (
	ErrMalformedTopic = errors.New("malformed log topic")
	ErrInvalidAddress = errors.New("invalid evm address")
)

var stringArgs = abi.Arguments{{Type: mustType("string")}}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func trimHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// ParseHexUint 严格解析，ok 为 false 表示字段缺失或非法
func ParseHexUint(hex string) (*big.Int, bool) {
	s := trimHexPrefix(hex)
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// HexToUint 解析大端十六进制整数，空串或非法输入按 0 处理
func HexToUint(hex string) *big.Int {
	v, ok := ParseHexUint(hex)
	if !ok {
		return new(big.Int)
	}
	return v
}

func HexToDecimalString(hex string) string {
	return HexToUint(hex).String()
}

// AdjustDecimals 按精度缩放原始整数，结果是精确值
func AdjustDecimals(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FormatFixed 截断（不四舍五入）到 6 位小数并固定输出 6 位
func FormatFixed(d decimal.Decimal) string {
	return d.Truncate(DisplayPrecision).StringFixed(DisplayPrecision)
}

// ScaleByDecimals raw / 10^decimals，6 位定点字符串
func ScaleByDecimals(raw *big.Int, decimals uint8) string {
	return FormatFixed(AdjustDecimals(raw, decimals))
}

func WeiToEther(wei *big.Int) string {
	return ScaleByDecimals(wei, 18)
}

// DecodeABIString 解码 eth_call 返回的 string。
// 先按 ABI 动态类型解析（offset + length + payload），
// 解析失败（如老合约返回 bytes32）时退回去零字节的兼容解码。
func DecodeABIString(hexData string) string {
	s := trimHexPrefix(hexData)
	if s == "" {
		return ""
	}
	data := common.FromHex(s)
	if len(data) == 0 {
		return ""
	}

	if values, err := stringArgs.Unpack(data); err == nil && len(values) == 1 {
		if str, ok := values[0].(string); ok {
			if utf8.ValidString(str) {
				return str
			}
			// 只清理 payload，offset/length 头不参与
			return stripZeroBytes([]byte(str))
		}
	}
	return stripZeroBytes(data)
}

func stripZeroBytes(data []byte) string {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b != 0 {
			out = append(out, b)
		}
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(out), ""))
}

// DecodeTopicAddress 取 32 字节 topic 的末 40 个十六进制字符作为地址
func DecodeTopicAddress(topic string) (string, error) {
	s := trimHexPrefix(topic)
	if len(s) != 64 {
		return "", fmt.Errorf("%w: want 64 hex chars, got %d", ErrMalformedTopic, len(s))
	}
	if _, err := hexutil.Decode("0x" + s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedTopic, err)
	}
	return "0x" + s[24:], nil
}

// DecodeUint8 解析 decimals() 返回值
func DecodeUint8(hexData string) (uint8, error) {
	v := HexToUint(hexData)
	if !v.IsUint64() || v.Uint64() > 255 {
		return 0, fmt.Errorf("decimals out of range: %s", hexData)
	}
	return uint8(v.Uint64()), nil
}
