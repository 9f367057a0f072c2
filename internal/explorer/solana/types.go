package solana

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// AccountKey jsonParsed 编码下账户可能是字符串，也可能是 {"pubkey": ...} 对象，
// 解码时统一成 base58 字符串
type AccountKey string

func (k *AccountKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*k = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = AccountKey(s)
		return nil
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("account key: %w", err)
	}
	*k = AccountKey(obj.Pubkey)
	return nil
}

// ParsedTransaction getTransaction(jsonParsed) 返回值
type ParsedTransaction struct {
	Slot        uint64           `json:"slot"`
	BlockTime   *int64           `json:"blockTime"`
	Meta        *TransactionMeta `json:"meta"`
	Transaction struct {
		Signatures []string `json:"signatures"`
		Message    struct {
			AccountKeys []AccountKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// AccountKey 越界或为空时返回 false
func (t *ParsedTransaction) AccountKey(index int) (string, bool) {
	keys := t.Transaction.Message.AccountKeys
	if index < 0 || index >= len(keys) || keys[index] == "" {
		return "", false
	}
	return string(keys[index]), true
}

type TransactionMeta struct {
	Err               any                 `json:"err"` // 成功时为 null
	Fee               uint64              `json:"fee"`
	PreTokenBalances  []TokenBalanceEntry `json:"preTokenBalances"`
	PostTokenBalances []TokenBalanceEntry `json:"postTokenBalances"`
}

type TokenBalanceEntry struct {
	AccountIndex  int               `json:"accountIndex"`
	Mint          string            `json:"mint"`
	Owner         string            `json:"owner"`
	UiTokenAmount rpc.UiTokenAmount `json:"uiTokenAmount"`
}

// TokenAccount getTokenAccountsByOwner(jsonParsed) 的单个账户
type TokenAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Owner string            `json:"owner"`
		Data  ParsedAccountData `json:"data"`
	} `json:"account"`
}

func (a *TokenAccount) Mint() string {
	return a.Account.Data.Parsed.Info.Mint
}

// TokenAmount 节点未解析出余额时为 nil
func (a *TokenAccount) TokenAmount() *rpc.UiTokenAmount {
	return a.Account.Data.Parsed.Info.TokenAmount
}

// ParsedAccountData 节点无法解析时会返回 ["<base64>", "base64"]，此时保持为空
type ParsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Mint        string             `json:"mint"`
			Owner       string             `json:"owner"`
			TokenAmount *rpc.UiTokenAmount `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

func (d *ParsedAccountData) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	type plain ParsedAccountData
	return json.Unmarshal(data, (*plain)(d))
}

type tokenAccountsResult struct {
	Value []TokenAccount `json:"value"`
}

// SignatureInfo getSignaturesForAddress 的单条记录
type SignatureInfo struct {
	Signature          string `json:"signature"`
	Slot               uint64 `json:"slot"`
	Err                any    `json:"err"`
	BlockTime          *int64 `json:"blockTime"`
	ConfirmationStatus string `json:"confirmationStatus"`
}

