// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hypercore-net/hypercore/core/state"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/config"
	"github.com/hypercore-net/hypercore/internal/log"
	"github.com/hypercore-net/hypercore/internal/telemetry"
)

// replayCommand drives a core/state.Store one block at a time, flags and
// all loaded the way main/main.go loads node config: a pflag.FlagSet
// parsed straight from argv, bound into viper ahead of any cobra flag
// handling. Cobra flag parsing is disabled on this command for that
// reason; config.BuildFlagSet owns argv here, not cmd.Flags().
func replayCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                "replay",
		Short:              "Replay a deterministic block trace through the scheduler",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	return c
}

func runReplay(ctx context.Context, args []string) error {
	fs := config.BuildFlagSet()
	blocks := fs.Uint64("blocks", 300, "number of blocks to replay")
	startBlock := fs.Uint64("start-block", 0, "first block height to replay")
	decimalOffset := fs.Uint("decimal-offset", 0, "share-pool inflation-attack decimal offset")
	snapshotFile := fs.String("snapshot-file", "", "if set, atomically write a final-state summary here")
	development := fs.Bool("development", true, "use the human-readable console logger")

	v, err := config.BuildViper(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("couldn't configure flags: %w", err)
	}

	weightBudget := v.GetUint64(config.FlagWeightBudget)
	global := config.GlobalFromViper(v, config.DefaultGlobal())

	logger := log.New(log.Config{Development: *development})
	metrics := telemetry.NewSchedulerMetrics("hypercored", nil)
	tracerProvider := telemetry.NewTracerProvider()
	defer func() {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Warnw("tracer provider shutdown failed", "err", err)
		}
	}()
	store := state.New(logger, metrics, global, *decimalOffset, weightBudget)

	seedSrc := common.Hash(sha256.Sum256([]byte("hypercored-replay")))
	for i := uint64(0); i < *blocks; i++ {
		block := ids.Block(*startBlock + i)
		seed := seedForBlock(seedSrc, block)
		report, err := store.Tick(ctx, block, seed)
		if err != nil {
			logger.Warnw("tick reported errors", "block", block, "err", err)
		}
		logger.Infow("tick",
			"block", block,
			"epoch", report.Epoch,
			"slot", report.Slot,
			"emissionStepSubnet", report.EmissionStepSubnet,
			"electedValidator", report.ElectedValidator,
			"overwatchBoundaryRan", report.OverwatchBoundaryRan,
		)
	}

	if *snapshotFile != "" {
		return writeSnapshot(*snapshotFile, store)
	}
	return nil
}

// seedForBlock derives per-block validator-election randomness from a
// fixed replay seed, standing in for the external.BlockSource a chain
// integration supplies in production.
func seedForBlock(base common.Hash, block ids.Block) common.Hash {
	var buf [40]byte
	copy(buf[:32], base[:])
	binary.BigEndian.PutUint64(buf[32:], uint64(block))
	return common.Hash(sha256.Sum256(buf[:]))
}

// writeSnapshot atomically writes a human-readable summary of store's
// registered subnets, the way the teacher reaches for
// google/renameio/v2 whenever a file must never be observed half-written.
func writeSnapshot(path string, store *state.Store) error {
	subnetIDs := store.Subnets.IDs()
	summary := fmt.Sprintf("subnets=%d\n", len(subnetIDs))
	for _, id := range subnetIDs {
		summary += fmt.Sprintf("subnet %d\n", id)
	}
	return renameio.WriteFile(path, []byte(summary), 0o644)
}
