// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/luxfi/geth"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/pooltypes"
)

// symbolSelector is the 4-byte selector of the ERC-20 `symbol()` view call.
var symbolSelector = []byte{0x95, 0xd8, 0x9b, 0x41}

// symbolStringArgs decodes the common-case ABI-encoded dynamic `string`
// return value of `symbol()`.
var symbolStringArgs = abi.Arguments{{Type: mustType("string")}}

// decodeSymbol decodes a `symbol()` return value. Most ERC-20 tokens return
// a dynamic string; some pre-standard tokens return a raw bytes32 instead,
// so that shape is tried as a fallback.
func decodeSymbol(out []byte) (string, error) {
	if vals, err := symbolStringArgs.Unpack(out); err == nil && len(vals) == 1 {
		if s, ok := vals[0].(string); ok {
			return s, nil
		}
	}
	if len(out) == 32 {
		return string(bytes.TrimRight(out, "\x00")), nil
	}
	return "", fmt.Errorf("snapshot: symbol() return value has unrecognized shape (%d bytes)", len(out))
}

// enrichSymbols fills Token0Name/Token1Name for pools whose flavor's
// snapshot tuple doesn't already carry the symbol (V3-tick; V2-reserve
// already gets name0/name1 straight from its own tuple schema).
// Symbol lookup failure is non-fatal: the name is simply left empty.
func (h *Hydrator) enrichSymbols(ctx context.Context, chain string, pools []pooltypes.Pool) {
	for i := range pools {
		p := &pools[i]
		if p.Token0Name == "" {
			p.Token0Name = h.symbolOf(ctx, p.Token0)
		}
		if p.Token1Name == "" {
			p.Token1Name = h.symbolOf(ctx, p.Token1)
		}
	}
}

func (h *Hydrator) symbolOf(ctx context.Context, token common.Address) string {
	if v, ok := h.symbols.Get(token); ok {
		return v.(string)
	}

	msg := ethereum.CallMsg{To: &token, Data: symbolSelector}
	out, err := h.caller.CallContract(ctx, msg, nil)
	if err != nil {
		h.log.Warn("snapshot: symbol() view call failed, leaving name empty", "token", token, "err", err)
		h.symbols.Add(token, "")
		return ""
	}

	name, err := decodeSymbol(out)
	if err != nil {
		h.log.Warn("snapshot: symbol() decode failed, leaving name empty", "token", token, "err", err)
		name = ""
	}
	h.symbols.Add(token, name)
	return name
}
