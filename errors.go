// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package poolsync composes the chain registry, fetcher, discovery,
// hydrator, reducer and store into a historical-then-live sync engine for
// AMM pool state.
package poolsync

import "github.com/luxfi/poolsync/poolerrs"

// Error kinds, re-exported here so callers of the top-level package don't
// need a second import for error-type assertions.
type (
	ProviderError    = poolerrs.ProviderError
	DecodeError      = poolerrs.DecodeError
	InvariantError   = poolerrs.InvariantError
	PersistenceError = poolerrs.PersistenceError
	ConfigError      = poolerrs.ConfigError
)
