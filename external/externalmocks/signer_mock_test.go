// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package externalmocks

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMockSignerRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	signer := NewMockSigner(ctrl)

	addr := common.HexToAddress("0xA")
	digest := common.HexToHash("0x1")
	sig := []byte{1, 2, 3}

	signer.EXPECT().Sign(gomock.Any(), addr, digest).Return(sig, nil)
	signer.EXPECT().Verify(addr, digest, sig).Return(true)

	got, err := signer.Sign(context.Background(), addr, digest)
	require.NoError(t, err)
	require.Equal(t, sig, got)
	require.True(t, signer.Verify(addr, digest, sig))
}
