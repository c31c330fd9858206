// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package poolsync

import (
	"context"
	"fmt"
	"os"

	"github.com/luxfi/geth/ethclient"
	logpkg "github.com/luxfi/log"
	"github.com/luxfi/poolsync/chainreg"
	"github.com/luxfi/poolsync/discovery"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/luxfi/poolsync/reducer"
	"github.com/luxfi/poolsync/rpcfetch"
	"github.com/luxfi/poolsync/snapshot"
	"github.com/luxfi/poolsync/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Config is the full set of knobs the CLI (`build`/`sync`/`load`) exposes.
type Config struct {
	// Chain selects the (Chain, Flavor) rows to sync against.
	Chain chainreg.Chain
	// Flavors is the set of pool flavors to sync for Chain; empty means
	// every flavor the registry supports on Chain.
	Flavors []pooltypes.Flavor

	// ArchiveURL is the archive-node HTTPS endpoint. Required; read from
	// the ARCHIVE environment variable by LoadConfigFromEnv.
	ArchiveURL string
	// LiveURL is the websocket endpoint used for the Live phase's
	// follow-distance subscription. Empty disables the Live phase: the
	// orchestrator stops after catch-up, as `build` does.
	LiveURL string

	// DBPath is the pebble database directory (default "./pool_sync.db").
	DBPath string
	// RequestsPerSecond is the fetcher's token-bucket rate (default 1000).
	RequestsPerSecond float64
	// StartBlock is the lower bound of a fresh (chain, flavor)'s historical
	// discovery range; ignored once a resume point exists.
	StartBlock uint64
	// FollowDistance is how many blocks behind the chain head the Live
	// phase operates (default 0).
	FollowDistance uint64
	// TokenAllowlistPath, if set, narrows freshly discovered pools to
	// those whose both tokens appear in the file. A file with no addresses
	// leaves the pools unfiltered.
	TokenAllowlistPath string

	// RangeWindow overrides the Range Partitioner's sub-range width (0
	// selects rangescan.DefaultWindow).
	RangeWindow uint64
	// Concurrency bounds in-flight sub-range/chunk fetches (0 selects a
	// default derived from RequestsPerSecond).
	Concurrency int
	// SnapshotBytecode resolves a flavor's snapshot-contract deployment
	// bytecode by its taxonomy ID; required, since the bytecode itself is
	// an external artifact this system never builds or embeds.
	SnapshotBytecode snapshot.BytecodeSource
}

// LoadConfigFromEnv reads the ARCHIVE environment variable into cfg,
// returning a ConfigError if it is unset.
func LoadConfigFromEnv(cfg Config) (Config, error) {
	v, ok := os.LookupEnv("ARCHIVE")
	if !ok || v == "" {
		return cfg, &ConfigError{Reason: "ARCHIVE environment variable is required"}
	}
	cfg.ArchiveURL = v
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.DBPath == "" {
		c.DBPath = "./pool_sync.db"
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1000
	}
	if c.Concurrency <= 0 {
		c.Concurrency = int(c.RequestsPerSecond * 2)
		if c.Concurrency <= 0 {
			c.Concurrency = 1
		}
	}
	return c
}

// Builder validates a Config against the static chain registry and wires
// the rate-limited fetcher, address discovery, snapshot hydrator, tick/
// reserve reducer and persistence layer into a runnable Orchestrator.
// Constructing a Builder never touches the network; only Build does, by
// dialing the archive endpoint.
type Builder struct {
	registry *chainreg.Registry
	cfg      Config
}

// NewBuilder validates cfg against registry and returns a Builder, or a
// ConfigError if the chain/flavor selection is unsupported.
func NewBuilder(registry *chainreg.Registry, cfg Config) (*Builder, error) {
	cfg = cfg.withDefaults()

	if cfg.Chain == "" {
		return nil, &ConfigError{Reason: "chain not set"}
	}
	if cfg.ArchiveURL == "" {
		return nil, &ConfigError{Reason: "archive endpoint not set (ARCHIVE)"}
	}
	if cfg.SnapshotBytecode == nil {
		return nil, &ConfigError{Reason: "snapshot bytecode source not configured"}
	}

	flavors := cfg.Flavors
	if len(flavors) == 0 {
		flavors = registry.Flavors(cfg.Chain)
	}
	if len(flavors) == 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("chain %q has no registered pool flavors", cfg.Chain)}
	}
	for _, f := range flavors {
		if !registry.Supported(cfg.Chain, f) {
			return nil, &ConfigError{Reason: fmt.Sprintf("flavor %q is not supported on chain %q", f, cfg.Chain)}
		}
	}
	cfg.Flavors = flavors

	return &Builder{registry: registry, cfg: cfg}, nil
}

// Build dials the archive endpoint, opens the pebble store at cfg.DBPath,
// and returns a ready-to-run Orchestrator. The caller owns the returned
// Orchestrator's lifetime and must call Close when done.
func (b *Builder) Build(ctx context.Context) (*Orchestrator, error) {
	client, err := ethclient.DialContext(ctx, b.cfg.ArchiveURL)
	if err != nil {
		return nil, &ProviderError{Op: "dial", Err: err}
	}

	fetcher := rpcfetch.New(client, rpcfetch.Config{RequestsPerSecond: b.cfg.RequestsPerSecond}, prometheus.DefaultRegisterer)

	hydrator, err := snapshot.New(fetcher, b.cfg.SnapshotBytecode, 0)
	if err != nil {
		return nil, fmt.Errorf("poolsync: building hydrator: %w", err)
	}

	db, err := store.Open(b.cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		registry:   b.registry,
		cfg:        b.cfg,
		fetcher:    fetcher,
		discoverer: discovery.New(fetcher, b.cfg.RangeWindow, b.cfg.Concurrency),
		hydrator:   hydrator,
		db:         db,
		fold:       reducer.New(),
		log:        logpkg.Root(),
	}, nil
}
