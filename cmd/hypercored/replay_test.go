// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/ids"
)

func TestSeedForBlockIsDeterministicAndVariesByBlock(t *testing.T) {
	base := common.HexToHash("0x1")
	s0a := seedForBlock(base, ids.Block(0))
	s0b := seedForBlock(base, ids.Block(0))
	s1 := seedForBlock(base, ids.Block(1))

	require.Equal(t, s0a, s0b)
	require.NotEqual(t, s0a, s1)
}

func TestRunReplayWritesSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "snapshot.txt")

	err := runReplay(context.Background(), []string{
		"--blocks", "3",
		"--development=false",
		"--snapshot-file", snapshot,
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	require.Contains(t, string(contents), "subnets=0")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := rootCommand()
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	require.True(t, names["replay"])
	require.True(t, names["version"])
}
