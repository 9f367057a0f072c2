package repository

import (
	"stablecoin-explorer/internal/explorer/evm"
	"stablecoin-explorer/internal/explorer/solana"
)

type Repository interface {
	// RPC
	GetEVMClient() *evm.Client
	GetSolanaClient() *solana.Client
	Close() error
}
