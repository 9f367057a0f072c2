package classifier

import (
	"regexp"
	"strings"
)

// Kind 输入字符串的分类结果
type Kind int

const (
	Unknown Kind = iota
	EVMAddress
	EVMTxHash
	SolanaAddress
	SolanaSignature
)

// Chain 链家族
type Chain string

const (
	ChainEVM     Chain = "evm"
	ChainSolana  Chain = "solana"
	ChainUnknown Chain = "unknown"
)

const (
	evmAddressLen = 42 // 0x + 20 字节
	evmTxHashLen  = 66 // 0x + 32 字节
)

// base58 字母表：去掉 0 O I l 的字母数字
var (
	solanaAddressRe   = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	solanaSignatureRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{87,88}$`)
)

// Classify 按固定顺序判断输入属于哪类实体，命中即返回
func Classify(input string) Kind {
	s := strings.TrimSpace(input)

	if strings.HasPrefix(s, "0x") {
		switch len(s) {
		case evmAddressLen:
			return EVMAddress
		case evmTxHashLen:
			return EVMTxHash
		}
	}
	if solanaAddressRe.MatchString(s) {
		return SolanaAddress
	}
	if solanaSignatureRe.MatchString(s) {
		return SolanaSignature
	}
	return Unknown
}

func (k Kind) String() string {
	switch k {
	case EVMAddress:
		return "evm_address"
	case EVMTxHash:
		return "evm_tx_hash"
	case SolanaAddress:
		return "solana_address"
	case SolanaSignature:
		return "solana_signature"
	default:
		return "unknown"
	}
}

func (k Kind) Chain() Chain {
	switch k {
	case EVMAddress, EVMTxHash:
		return ChainEVM
	case SolanaAddress, SolanaSignature:
		return ChainSolana
	default:
		return ChainUnknown
	}
}

func (k Kind) IsTransaction() bool { return k == EVMTxHash || k == SolanaSignature }

func (k Kind) IsAddress() bool { return k == EVMAddress || k == SolanaAddress }

// DisplayName 展示用的链名称
func (c Chain) DisplayName() string {
	switch c {
	case ChainEVM:
		return "EVM (Ethereum/Base)"
	case ChainSolana:
		return "Solana"
	default:
		return "Unknown"
	}
}
