// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pooltypes

import (
	"encoding/json"
	"math/big"
)

// Int128 is a signed 128-bit integer, used for V3 tick liquidity_net and
// Mint/Burn amount deltas. The on-chain contracts treat overflow here as a
// bug (checked wrapping; any overflow panics), so Int128 does not attempt
// to emulate wraparound: it is a thin big.Int wrapper that panics on an
// out-of-range result.
type Int128 struct {
	v *big.Int
}

var (
	int128Min = new(big.Int).Lsh(big.NewInt(-1), 127)
	int128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

// NewInt128 constructs an Int128 from a native int64.
func NewInt128(x int64) *Int128 {
	return &Int128{v: big.NewInt(x)}
}

// NewInt128FromBig constructs an Int128 from an arbitrary-precision value,
// panicking if it falls outside the signed 128-bit range.
func NewInt128FromBig(x *big.Int) *Int128 {
	v := new(big.Int).Set(x)
	checkRange(v)
	return &Int128{v: v}
}

// checkRange panics if v falls outside the signed 128-bit range.
func checkRange(v *big.Int) {
	if v.Cmp(int128Min) < 0 || v.Cmp(int128Max) > 0 {
		panic("pooltypes: int128 overflow (contract invariant violated)")
	}
}

// Add returns a new Int128 holding i+other, panicking on overflow.
func (i *Int128) Add(other *Int128) *Int128 {
	sum := new(big.Int).Add(i.v, other.v)
	checkRange(sum)
	return &Int128{v: sum}
}

// Neg returns -i.
func (i *Int128) Neg() *Int128 {
	return &Int128{v: new(big.Int).Neg(i.v)}
}

// Sign returns -1, 0 or 1.
func (i *Int128) Sign() int { return i.v.Sign() }

// IsZero reports whether the value is exactly zero.
func (i *Int128) IsZero() bool { return i.v.Sign() == 0 }

// Cmp compares i to other.
func (i *Int128) Cmp(other *Int128) int { return i.v.Cmp(other.v) }

// Big returns the underlying big.Int (caller must not mutate it).
func (i *Int128) Big() *big.Int { return i.v }

func (i *Int128) MarshalJSON() ([]byte, error) {
	if i == nil || i.v == nil {
		return json.Marshal("0")
	}
	return json.Marshal(i.v.String())
}

func (i *Int128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errInvalidInt128(s)
	}
	checkRange(v)
	i.v = v
	return nil
}

type errInvalidInt128 string

func (e errInvalidInt128) Error() string { return "pooltypes: invalid int128 literal " + string(e) }
