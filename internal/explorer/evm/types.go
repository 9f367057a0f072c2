package evm

// TransactionRaw eth_getTransactionByHash 返回值，数值字段均为十六进制字符串
type TransactionRaw struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"` // 合约创建时为 null
	Value       string `json:"value"`
	Gas         string `json:"gas"`
	GasPrice    string `json:"gasPrice"`
	Nonce       string `json:"nonce"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber"` // pending 时为 null
	BlockHash   string `json:"blockHash"`
}

// ReceiptRaw eth_getTransactionReceipt 返回值
type ReceiptRaw struct {
	TransactionHash string     `json:"transactionHash"`
	Status          string     `json:"status"`
	BlockNumber     string     `json:"blockNumber"`
	GasUsed         string     `json:"gasUsed"`
	Logs            []LogEntry `json:"logs"`
}

type LogEntry struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// BlockRaw eth_getBlockByNumber(number, false) 只用到头部字段
type BlockRaw struct {
	Number    string `json:"number"`
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
}

type callMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}
