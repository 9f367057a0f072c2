package decoder

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ERC-20 事件签名与方法选择器
var (
	TransferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")).Hex()

	SymbolSelector    = selector("symbol()")
	NameSelector      = selector("name()")
	DecimalsSelector  = selector("decimals()")
	BalanceOfSelector = selector("balanceOf(address)")
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func SymbolCallData() string   { return hexutil.Encode(SymbolSelector) }
func NameCallData() string     { return hexutil.Encode(NameSelector) }
func DecimalsCallData() string { return hexutil.Encode(DecimalsSelector) }

// BalanceOfCallData 构建 balanceOf(holder) 调用数据
func BalanceOfCallData(holder string) (string, error) {
	if !common.IsHexAddress(holder) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, holder)
	}
	addr := common.HexToAddress(holder)

	// 填充地址参数(32字节)
	callData := append(append([]byte{}, BalanceOfSelector...), common.LeftPadBytes(addr.Bytes(), 32)...)
	return hexutil.Encode(callData), nil
}
