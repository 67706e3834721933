// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package unbonding

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/ids"
)

func TestCoalescingSameBlock(t *testing.T) {
	l := NewLedger(5)
	require.NoError(t, l.Insert(100, uint256.NewInt(10)))
	require.NoError(t, l.Insert(100, uint256.NewInt(5)))
	require.Equal(t, 1, l.Len())
}

func TestMaxUnlockingsReached(t *testing.T) {
	l := NewLedger(2)
	require.NoError(t, l.Insert(100, uint256.NewInt(10)))
	require.NoError(t, l.Insert(200, uint256.NewInt(10)))
	err := l.Insert(300, uint256.NewInt(10))
	require.ErrorIs(t, err, ErrMaxUnlockingsReached)
}

// TestClaimIdempotence is spec.md §8 property 5.
func TestClaimIdempotence(t *testing.T) {
	l := NewLedger(5)
	require.NoError(t, l.Insert(100, uint256.NewInt(10)))
	require.NoError(t, l.Insert(200, uint256.NewInt(20)))

	total, err := l.Claim(150)
	require.NoError(t, err)
	require.Equal(t, uint64(10), total.Uint64())
	require.Equal(t, 1, l.Len())

	_, err = l.Claim(150)
	require.ErrorIs(t, err, ErrNoStakeUnbondingsOrCooldownNotMet)

	total, err = l.Claim(200)
	require.NoError(t, err)
	require.Equal(t, uint64(20), total.Uint64())
	require.Equal(t, 0, l.Len())
}

func TestReleaseBlock(t *testing.T) {
	require.Equal(t, ids.Block(1000+3*100), ReleaseBlock(1000, 3, 100))
}
