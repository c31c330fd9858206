// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command poolsync drives the AMM pool-state synchronization engine: a
// one-shot historical build, a continuous historical-then-live sync, or a
// read of whatever is already persisted.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/poolsync"
	"github.com/luxfi/poolsync/chainreg"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/luxfi/poolsync/store"
	"github.com/urfave/cli/v2"
)

// Process exit codes.
const (
	exitOK           = 0
	exitConfigError  = 2
	exitProviderErr  = 3
	exitPersistErr   = 4
)

var (
	chainFlag = &cli.StringFlag{Name: "chain", Usage: "chain to sync (ethereum, base, ...)", Required: true}
	poolFlag  = &cli.StringSliceFlag{Name: "pool", Usage: "pool flavor to sync (repeatable); default is every flavor supported on --chain"}
	dbFlag    = &cli.StringFlag{Name: "db", Usage: "pebble database path", Value: "./pool_sync.db"}
	rpsFlag   = &cli.Float64Flag{Name: "rps", Usage: "archive endpoint requests-per-second budget", Value: 1000}
	startFlag = &cli.Uint64Flag{Name: "start-block", Usage: "lower bound of a fresh (chain, flavor)'s historical discovery range"}
	followFlag = &cli.Uint64Flag{Name: "follow-distance", Usage: "blocks behind chain head the Live phase operates at", Value: 0}
	liveFlag  = &cli.StringFlag{Name: "live-url", Usage: "websocket endpoint for the Live phase's head subscription; unset disables Live"}
	allowFlag = &cli.StringFlag{Name: "token-allowlist", Usage: "path to a newline-delimited token address allowlist narrowing freshly discovered pools"}
)

func main() {
	app := &cli.App{
		Name:  "poolsync",
		Usage: "discover and mirror on-chain AMM liquidity pool state",
		Commands: []*cli.Command{
			buildCommand,
			syncCommand,
			loadCommand,
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "poolsync:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error kind to its process exit code. Any error not
// explicitly mapped is treated as a config error.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *poolsync.ConfigError:
		return exitConfigError
	case *poolsync.ProviderError:
		return exitProviderErr
	case *poolsync.PersistenceError:
		return exitPersistErr
	default:
		return exitConfigError
	}
}

var commonFlags = []cli.Flag{chainFlag, poolFlag, dbFlag, rpsFlag, startFlag, followFlag, liveFlag, allowFlag}

var buildCommand = &cli.Command{
	Name:  "build",
	Usage: "one-shot historical sync: discover, hydrate, replay to tip, persist, then exit",
	Flags: commonFlags,
	Action: func(c *cli.Context) error {
		orch, err := buildOrchestrator(c, "")
		if err != nil {
			return err
		}
		defer orch.Close()
		return orch.Build(c.Context)
	},
}

var syncCommand = &cli.Command{
	Name:  "sync",
	Usage: "historical sync followed by continuous live follow-distance replay",
	Flags: commonFlags,
	Action: func(c *cli.Context) error {
		orch, err := buildOrchestrator(c, c.String(liveFlag.Name))
		if err != nil {
			return err
		}
		defer orch.Close()
		return orch.Sync(c.Context)
	},
}

var loadCommand = &cli.Command{
	Name:  "load",
	Usage: "print the pools currently persisted for a (chain, flavor), without contacting the archive endpoint",
	Flags: []cli.Flag{chainFlag, poolFlag, dbFlag},
	Action: func(c *cli.Context) error {
		db, err := store.Open(c.String(dbFlag.Name))
		if err != nil {
			return err
		}
		defer db.Close()

		flavors := flavorsFromFlag(c)
		if len(flavors) == 0 {
			return &poolsync.ConfigError{Reason: "load requires at least one --pool flavor"}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, flavor := range flavors {
			pools, err := db.LoadPools(c.String(chainFlag.Name), flavor)
			if err != nil {
				return err
			}
			if err := enc.Encode(pools); err != nil {
				return err
			}
		}
		return nil
	},
}

func flavorsFromFlag(c *cli.Context) []pooltypes.Flavor {
	raw := c.StringSlice(poolFlag.Name)
	flavors := make([]pooltypes.Flavor, 0, len(raw))
	for _, r := range raw {
		flavors = append(flavors, pooltypes.Flavor(r))
	}
	return flavors
}

// buildOrchestrator assembles the Config from CLI flags + the ARCHIVE
// environment variable and runs it through the Builder. liveURL is passed
// separately so `build` never configures the Live phase even if --live-url
// happens to be set.
func buildOrchestrator(c *cli.Context, liveURL string) (*poolsync.Orchestrator, error) {
	cfg, err := poolsync.LoadConfigFromEnv(poolsync.Config{
		Chain:              chainreg.Chain(c.String(chainFlag.Name)),
		Flavors:            flavorsFromFlag(c),
		LiveURL:            liveURL,
		DBPath:             c.String(dbFlag.Name),
		RequestsPerSecond:  c.Float64(rpsFlag.Name),
		StartBlock:         c.Uint64(startFlag.Name),
		FollowDistance:     c.Uint64(followFlag.Name),
		TokenAllowlistPath: c.String(allowFlag.Name),
		SnapshotBytecode:   externalSnapshotBytecode,
	})
	if err != nil {
		return nil, err
	}

	builder, err := poolsync.NewBuilder(chainreg.Default(), cfg)
	if err != nil {
		return nil, err
	}
	return builder.Build(c.Context)
}

// externalSnapshotBytecode resolves a flavor's snapshot-contract
// deployment bytecode by reading <id>.bin from the directory named by
// POOLSYNC_SNAPSHOT_BYTECODE_DIR. The artifact itself is never built or
// embedded by this binary. When the variable is unset or the file cannot be
// read, the error surfaces from the hydrator as a config error, so a missing
// artifact fails legibly rather than silently hydrating nothing.
func externalSnapshotBytecode(id string) ([]byte, error) {
	path := os.Getenv("POOLSYNC_SNAPSHOT_BYTECODE_DIR")
	if path == "" {
		return nil, fmt.Errorf("no snapshot bytecode source configured (set POOLSYNC_SNAPSHOT_BYTECODE_DIR to a directory of <id>.bin files)")
	}
	return os.ReadFile(path + "/" + id + ".bin")
}
