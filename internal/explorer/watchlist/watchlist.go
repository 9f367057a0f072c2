package watchlist

import "strings"

// Token 受监控的稳定币合约（EVM）或 mint（Solana）
type Token struct {
	Symbol   string
	Name     string
	Address  string
	Decimals uint8 // EVM 以链上 decimals() 为准，这里只记录 Solana 的固定精度
}

// SolanaDecimals 两个受监控 mint 的固定精度
const SolanaDecimals = 6

var evmTokens = []Token{
	{Symbol: "USDC", Name: "USD Coin", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"},
	{Symbol: "USDT", Name: "Tether USD", Address: "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2"},
	{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb"},
}

var solanaMints = []Token{
	{Symbol: "USDC", Name: "USD Coin", Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: SolanaDecimals},
	{Symbol: "USDT", Name: "Tether USD", Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: SolanaDecimals},
}

// EVMTokens 返回副本，顺序即查询顺序
func EVMTokens() []Token {
	return append([]Token(nil), evmTokens...)
}

func SolanaMints() []Token {
	return append([]Token(nil), solanaMints...)
}

// LookupEVM 大小写不敏感
func LookupEVM(address string) (Token, bool) {
	address = strings.TrimSpace(address)
	for _, t := range evmTokens {
		if strings.EqualFold(t.Address, address) {
			return t, true
		}
	}
	return Token{}, false
}

// LookupSolana base58 区分大小写，精确匹配
func LookupSolana(mint string) (Token, bool) {
	for _, t := range solanaMints {
		if t.Address == mint {
			return t, true
		}
	}
	return Token{}, false
}
