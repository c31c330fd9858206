// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpcfetch is the rate-limited, retrying RPC issuance layer every
// outbound call in the system goes through.
package rpcfetch

import (
	"context"
	"math/big"

	"github.com/luxfi/geth"
	"github.com/luxfi/geth/core/types"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mock_transport.go -package=rpcfetch github.com/luxfi/poolsync/rpcfetch Transport

// Transport is the subset of an archive-node JSON-RPC client the fetcher
// drives. It is satisfied by *ethclient.Client; tests substitute a fake or
// the generated mock in mock_transport.go.
type Transport interface {
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
}
