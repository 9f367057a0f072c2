package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_EVM(t *testing.T) {
	addr := "0x" + strings.Repeat("a", 40)
	hash := "0x" + strings.Repeat("b", 64)

	assert.Equal(t, EVMAddress, Classify(addr))
	assert.Equal(t, EVMAddress, Classify("  "+addr+"\n"))
	assert.Equal(t, EVMTxHash, Classify(hash))

	// 其余 0x 开头的长度都不是 EVM 实体
	for n := 0; n <= 80; n++ {
		if n == 40 || n == 64 {
			continue
		}
		got := Classify("0x" + strings.Repeat("c", n))
		assert.NotEqual(t, EVMAddress, got, "len %d", n+2)
		assert.NotEqual(t, EVMTxHash, got, "len %d", n+2)
	}
}

func TestClassify_Solana(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Kind
	}{
		{"usdc mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", SolanaAddress},
		{"min address length", strings.Repeat("1", 32), SolanaAddress},
		{"max address length", strings.Repeat("z", 44), SolanaAddress},
		{"too short", strings.Repeat("2", 31), Unknown},
		{"gap between ranges", strings.Repeat("3", 45), Unknown},
		{"signature 88", strings.Repeat("5", 88), SolanaSignature},
		{"signature 87", strings.Repeat("5", 87), SolanaSignature},
		{"too long", strings.Repeat("5", 89), Unknown},
		{"contains zero", "0" + strings.Repeat("a", 40), Unknown},
		{"contains capital O", "O" + strings.Repeat("a", 40), Unknown},
		{"contains capital I", "I" + strings.Repeat("a", 40), Unknown},
		{"contains lower l", "l" + strings.Repeat("a", 40), Unknown},
		{"empty", "", Unknown},
		{"garbage", "hello world", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestClassify_ZeroXNotEVMLength(t *testing.T) {
	// 0x 前缀但长度不对时仍按 base58 规则判断，'0' 和 'x' 中 '0' 不在字母表内
	assert.Equal(t, Unknown, Classify("0x1234"))
}

func TestKindHelpers(t *testing.T) {
	assert.Equal(t, ChainEVM, EVMTxHash.Chain())
	assert.Equal(t, ChainSolana, SolanaAddress.Chain())
	assert.Equal(t, ChainUnknown, Unknown.Chain())
	assert.True(t, SolanaSignature.IsTransaction())
	assert.False(t, SolanaSignature.IsAddress())
	assert.True(t, EVMAddress.IsAddress())
	assert.Equal(t, "EVM (Ethereum/Base)", ChainEVM.DisplayName())
	assert.Equal(t, "Solana", ChainSolana.DisplayName())
	assert.Equal(t, "Unknown", ChainUnknown.DisplayName())
	assert.Equal(t, "solana_signature", SolanaSignature.String())
}
