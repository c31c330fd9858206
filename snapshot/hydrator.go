// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package snapshot hydrates pool state at a chosen block by invoking the
// constructor-return "snapshot contract" trick and decoding the resulting
// tuple array against the flavor's ABI schema.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	lru "github.com/hashicorp/golang-lru"
	"github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	logpkg "github.com/luxfi/log"
	"github.com/luxfi/poolsync/poolerrs"
	"github.com/luxfi/poolsync/pooltypes"
)

// Caller issues eth_call; satisfied by *rpcfetch.Fetcher.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BytecodeSource resolves a flavor's snapshot-contract deployment bytecode
// by its SnapshotBytecodeID. The bytecode itself is an external artifact
//; this system only needs to deploy it.
type BytecodeSource func(id string) ([]byte, error)

// revertDataErr is implemented by transport errors that carry the revert
// payload the constructor-return trick packs its result into.
type revertDataErr interface {
	ErrorData() interface{}
}

// Hydrator batches addresses, deploys the per-flavor snapshot bytecode, and
// decodes the returned tuples.
type Hydrator struct {
	caller   Caller
	bytecode BytecodeSource
	symbols  *lru.Cache
	log      logpkg.Logger
}

// New builds a Hydrator. symbolCacheSize bounds the LRU cache used to avoid
// re-querying a token's symbol across pools that share it.
func New(caller Caller, bytecode BytecodeSource, symbolCacheSize int) (*Hydrator, error) {
	if symbolCacheSize <= 0 {
		symbolCacheSize = 4096
	}
	cache, err := lru.New(symbolCacheSize)
	if err != nil {
		return nil, err
	}
	return &Hydrator{caller: caller, bytecode: bytecode, symbols: cache, log: logpkg.Root()}, nil
}

func decoderFor(flavor pooltypes.Flavor) (func([]byte) ([]pooltypes.Pool, error), error) {
	switch flavor {
	case pooltypes.FlavorV2Reserve:
		return decodeV2ReserveTuples, nil
	case pooltypes.FlavorV3Tick:
		return decodeV3TickTuples, nil
	case pooltypes.FlavorWeighted:
		return decodeWeightedTuples, nil
	case pooltypes.FlavorTwoCrypto:
		return decodeTwoCryptoTuples, nil
	case pooltypes.FlavorTriCrypto:
		return decodeTriCryptoTuples, nil
	case pooltypes.FlavorMaverick:
		return decodeMaverickTuples, nil
	default:
		return nil, fmt.Errorf("snapshot: no tuple decoder registered for flavor %q", flavor)
	}
}

// Hydrate reads every address's pool state as of block, chunked per
// desc.DefaultChunkSize. Tuples that fail the non-zero-address invariant
// are dropped and logged, not returned as an error.
func (h *Hydrator) Hydrate(ctx context.Context, chain string, desc pooltypes.FlavorDescriptor, addrs []common.Address, block uint64) ([]pooltypes.Pool, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	decode, err := decoderFor(desc.Flavor)
	if err != nil {
		return nil, err
	}

	bytecode, err := h.bytecode(desc.SnapshotBytecodeID)
	if err != nil {
		return nil, &poolerrs.ConfigError{Reason: fmt.Sprintf("snapshot bytecode %q: %v", desc.SnapshotBytecodeID, err)}
	}

	chunkSize := desc.DefaultChunkSize
	if chunkSize <= 0 {
		chunkSize = 40
	}

	var all []pooltypes.Pool
	for start := 0; start < len(addrs); start += chunkSize {
		end := start + chunkSize
		if end > len(addrs) {
			end = len(addrs)
		}
		chunk := addrs[start:end]

		packed, err := addressSliceArgs.Pack(chunk)
		if err != nil {
			return nil, &poolerrs.DecodeError{Op: "snapshot.pack_constructor_args", Err: err}
		}
		data := append(append([]byte{}, bytecode...), packed...)

		msg := ethereum.CallMsg{Data: data}
		result, callErr := h.caller.CallContract(ctx, msg, new(big.Int).SetUint64(block))
		revertData := result
		if callErr != nil {
			var rd revertDataErr
			if !errors.As(callErr, &rd) {
				return nil, callErr // already a ProviderError from the fetcher, or a context cancellation
			}
			b, ok := rd.ErrorData().([]byte)
			if !ok {
				return nil, &poolerrs.ProviderError{Op: "snapshot.call", Err: callErr}
			}
			revertData = b
		}

		pools, err := decode(revertData)
		if err != nil {
			return nil, &poolerrs.DecodeError{Op: "snapshot.decode", Err: err}
		}

		for _, p := range pools {
			p := p
			p.Chain = chain
			if !p.Valid() {
				h.log.Warn("snapshot: dropping pool that fails invariant check", "address", p.Address, "flavor", p.Flavor)
				continue
			}
			all = append(all, p)
		}
	}

	if desc.Flavor == pooltypes.FlavorV2Reserve || desc.Flavor == pooltypes.FlavorV3Tick {
		h.enrichSymbols(ctx, chain, all)
	}

	return all, nil
}
