// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

func TestValidateRejectsNonElectedCaller(t *testing.T) {
	r := NewRegistry()
	_, err := r.Validate(1, 1, ids.NodeID(1), ids.NodeID(2),
		uint256.NewInt(0), uint256.NewInt(0), nil, []ids.NodeID{1, 2}, 0)
	require.ErrorIs(t, err, coreerrors.ErrNotElectedValidator)
}

func TestValidateAutoAttestsValidatorAndRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	sub, err := r.Validate(1, 1, ids.NodeID(1), ids.NodeID(1),
		uint256.NewInt(0), uint256.NewInt(0),
		[]NodeScore{{NodeID: 1, Score: uint256.NewInt(10)}},
		[]ids.NodeID{1, 2}, 100)
	require.NoError(t, err)
	require.Contains(t, sub.Attests, ids.NodeID(1))

	_, err = r.Validate(1, 1, ids.NodeID(1), ids.NodeID(1),
		uint256.NewInt(0), uint256.NewInt(0), nil, []ids.NodeID{1, 2}, 101)
	require.ErrorIs(t, err, coreerrors.ErrAlreadySubmitted)
}

func TestAttestIdempotentAndRejectsOutsideSnapshot(t *testing.T) {
	r := NewRegistry()
	_, err := r.Validate(1, 1, ids.NodeID(1), ids.NodeID(1),
		uint256.NewInt(0), uint256.NewInt(0), nil, []ids.NodeID{1, 2}, 100)
	require.NoError(t, err)

	require.NoError(t, r.Attest(1, 1, 2, nil, 101, nil))
	require.NoError(t, r.Attest(1, 1, 2, nil, 102, nil)) // idempotent

	sub := r.Get(1, 1)
	require.Equal(t, ids.Block(101), sub.Attests[2])

	err = r.Attest(1, 1, 3, nil, 103, nil)
	require.ErrorIs(t, err, coreerrors.ErrNodeNotInSnapshot)
}

func TestAttestHonorsEmergencySet(t *testing.T) {
	r := NewRegistry()
	_, err := r.Validate(1, 1, ids.NodeID(1), ids.NodeID(1),
		uint256.NewInt(0), uint256.NewInt(0), nil, []ids.NodeID{1, 2}, 100)
	require.NoError(t, err)

	err = r.Attest(1, 1, 9, nil, 101, map[ids.NodeID]bool{9: true})
	require.NoError(t, err)
}

func TestPrecheckComputesRatioAndWeightSum(t *testing.T) {
	r := NewRegistry()
	sub, err := r.Validate(1, 1, ids.NodeID(1), ids.NodeID(1),
		uint256.NewInt(0), uint256.NewInt(0),
		[]NodeScore{
			{NodeID: 1, Score: uint256.NewInt(30)},
			{NodeID: 2, Score: uint256.NewInt(70)},
		},
		[]ids.NodeID{1, 2}, 100)
	require.NoError(t, err)
	require.NoError(t, r.Attest(1, 1, 2, nil, 101, nil))

	pc := Run(sub, 0)
	require.Equal(t, fixedpoint.PF, pc.AttestationRatio.Uint64()) // 2/2 == 1.0
	require.Equal(t, uint64(100), pc.WeightSum.Uint64())
}
