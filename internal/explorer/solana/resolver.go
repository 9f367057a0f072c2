package solana

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"stablecoin-explorer/internal/explorer/classifier"
	"stablecoin-explorer/internal/explorer/decoder"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/monitor"
	"stablecoin-explorer/internal/explorer/watchlist"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	NativeSymbol = "SOL"
	// UnknownAccount 账户索引无法对应到地址时的占位
	UnknownAccount = "Unknown"
)

// dustThreshold 绝对值不超过该值的变化视为精度噪声
var dustThreshold = decimal.New(1, -6)

type Resolver struct {
	client *Client
	logger *zap.Logger
	now    func() time.Time
}

func NewResolver(client *Client, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, logger: logger, now: time.Now}
}

// balanceChange 单个账户在受监控 mint 上的余额变化
type balanceChange struct {
	index int
	mint  string
	delta decimal.Decimal
}

// Resolve 对比交易前后的 token 余额快照得到转账
func (r *Resolver) Resolve(ctx context.Context, signature string) (*model.Transaction, error) {
	ptx, err := r.client.Transaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction: %w", err)
	}
	if ptx.Meta == nil {
		return nil, fmt.Errorf("transaction meta missing: %w", model.ErrNotFound)
	}

	changes := tokenChanges(ptx.Meta.PreTokenBalances, ptx.Meta.PostTokenBalances)
	if len(changes) == 0 {
		return nil, fmt.Errorf("no watched token balance change: %w", model.ErrNotFound)
	}

	primary := changes[0]
	for _, c := range changes[1:] {
		if c.delta.Abs().GreaterThan(primary.delta.Abs()) {
			primary = c
		}
	}

	sender := r.party(ptx, pickParty(changes, primary, -1))
	receiver := r.party(ptx, pickParty(changes, primary, 1))

	tok, _ := watchlist.LookupSolana(primary.mint)
	amount := primary.delta.Abs().String()

	out := &model.Transaction{
		ID:          signature,
		Hash:        signature,
		Chain:       string(classifier.ChainSolana),
		Sender:      sender,
		Receiver:    receiver,
		Status:      model.StatusSuccess,
		BlockNumber: fmt.Sprintf("%d", ptx.Slot),
		GasFee:      FormatLamports(ptx.Meta.Fee) + " " + NativeSymbol,
	}
	if len(ptx.Transaction.Signatures) > 0 && ptx.Transaction.Signatures[0] != "" {
		out.ID, out.Hash = ptx.Transaction.Signatures[0], ptx.Transaction.Signatures[0]
	}
	if ptx.Meta.Err != nil {
		out.Status = model.StatusFailed
	}
	out.SetToken(&model.TokenInfo{
		Contract:       primary.mint,
		Symbol:         tok.Symbol,
		Name:           tok.Name,
		Decimals:       watchlist.SolanaDecimals,
		TransferAmount: amount,
	})

	if ptx.BlockTime != nil {
		out.Timestamp = model.UnixTimestamp(*ptx.BlockTime)
	} else {
		r.logger.Warn("Block time missing, timestamp falls back to wall clock", zap.String("signature", signature))
		out.Degrade(model.DegradedTimestamp)
		monitor.Degraded(string(classifier.ChainSolana), model.DegradedTimestamp)
		out.Timestamp = model.FormatTimestamp(r.now())
	}

	return out, nil
}

// tokenChanges 只看受监控 mint，按账户索引升序返回超过噪声阈值的变化
func tokenChanges(pre, post []TokenBalanceEntry) []balanceChange {
	preAmounts := map[int]decimal.Decimal{}
	postAmounts := map[int]decimal.Decimal{}
	mints := map[int]string{}

	for _, e := range pre {
		if _, ok := watchlist.LookupSolana(e.Mint); !ok {
			continue
		}
		preAmounts[e.AccountIndex] = UiAmount(e.UiTokenAmount)
		mints[e.AccountIndex] = e.Mint
	}
	for _, e := range post {
		if _, ok := watchlist.LookupSolana(e.Mint); !ok {
			continue
		}
		postAmounts[e.AccountIndex] = UiAmount(e.UiTokenAmount)
		mints[e.AccountIndex] = e.Mint
	}

	indices := make([]int, 0, len(mints))
	for idx := range mints {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	changes := make([]balanceChange, 0, len(indices))
	for _, idx := range indices {
		delta := postAmounts[idx].Sub(preAmounts[idx])
		if delta.Abs().LessThanOrEqual(dustThreshold) {
			continue
		}
		changes = append(changes, balanceChange{index: idx, mint: mints[idx], delta: delta})
	}
	return changes
}

// pickParty sign 为 -1 找转出方，1 找转入方；主变化方向一致时优先用它
func pickParty(changes []balanceChange, primary balanceChange, sign int) int {
	if primary.delta.Sign() == sign {
		return primary.index
	}
	for _, c := range changes {
		if c.delta.Sign() == sign {
			return c.index
		}
	}
	return -1
}

func (r *Resolver) party(ptx *ParsedTransaction, index int) string {
	if key, ok := ptx.AccountKey(index); ok {
		return key
	}
	if index >= 0 {
		r.logger.Debug("Account index not resolvable", zap.Int("index", index))
	}
	return UnknownAccount
}

// UiAmount 优先使用 uiAmountString 保证精度，其次 amount/decimals，最后才是浮点 uiAmount
func UiAmount(a rpc.UiTokenAmount) decimal.Decimal {
	if a.UiAmountString != "" {
		if d, err := decimal.NewFromString(a.UiAmountString); err == nil {
			return d
		}
	}
	if a.Amount != "" {
		if raw, ok := new(big.Int).SetString(a.Amount, 10); ok {
			return decoder.AdjustDecimals(raw, a.Decimals)
		}
	}
	if a.UiAmount != nil {
		return decimal.NewFromFloat(*a.UiAmount)
	}
	return decimal.Zero
}

// FormatLamports lamports 转 SOL，6 位小数
func FormatLamports(lamports uint64) string {
	return decoder.FormatFixed(LamportsToSOL(lamports))
}

func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0).
		Div(decimal.NewFromBigInt(new(big.Int).SetUint64(sol.LAMPORTS_PER_SOL), 0))
}
