// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"bufio"
	"os"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/pooltypes"
)

// LoadTokenAllowlist reads a newline-delimited list of hex token addresses
// from path, skipping blank lines and "#" comments. It is the CLI-facing
// counterpart of FilterByTokenAllowlist: a volume-based allowlist needs an
// external market-data lookup, so this accepts an operator-supplied list
// instead of fetching one.
func LoadTokenAllowlist(path string) (map[common.Address]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	allowed := make(map[common.Address]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		allowed[common.HexToAddress(line)] = struct{}{}
	}
	return allowed, scanner.Err()
}

// FilterByTokenAllowlist narrows pools to those whose token0 and token1 are
// both present in allowed. An empty allowed set returns pools unfiltered.
func FilterByTokenAllowlist(pools []pooltypes.Pool, allowed map[common.Address]struct{}) []pooltypes.Pool {
	if len(allowed) == 0 {
		return pools
	}
	out := make([]pooltypes.Pool, 0, len(pools))
	for _, p := range pools {
		_, t0ok := allowed[p.Token0]
		_, t1ok := allowed[p.Token1]
		if t0ok && t1ok {
			out = append(out, p)
		}
	}
	return out
}
