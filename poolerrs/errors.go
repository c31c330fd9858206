// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package poolerrs defines the five error kinds shared by every
// component so each one can be tested against errors.As without importing
// the orchestrator.
package poolerrs

import "fmt"

// ProviderError wraps a transport/timeout/rate-limit failure that survived
// the fetcher's retry budget. It is the only error kind that is retried
// before being returned to the caller.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("provider error during %s: %v", e.Op, e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

// DecodeError signals a log or snapshot-tuple schema mismatch. It is fatal:
// it indicates drift between the taxonomy and the chain, not a transient
// condition, and is never retried.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode error during %s: %v", e.Op, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// InvariantError reports that a hydrated pool record failed the non-zero-
// address invariant. Callers drop the record and warn; this is never fatal
// to the overall sync.
type InvariantError struct {
	Address string
	Reason  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("pool %s failed invariant check: %s", e.Address, e.Reason)
}

// PersistenceError wraps an I/O or transaction failure from the store. It
// always propagates; there is no partial-commit recovery.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}
func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigError reports an unset chain, an unsupported (chain, flavor) pair,
// or an unparsable endpoint.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Reason) }
