// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hypercore-net/hypercore/ids"
)

// churnCase is the gopter-generated input to the churn-bound property:
// how many nodes sit in the registration queue, and the churn/capacity
// limits HandleRegistrationQueue is called with.
type churnCase struct {
	QueueSize      int
	ChurnLimit     uint32
	MaxSubnetNodes uint32
}

// TestHandleRegistrationQueueChurnBound is §8 property 9 ("churn bound"):
// in any call, the number of newly activated nodes never exceeds the
// churn limit, and total active nodes never exceeds MaxSubnetNodes.
func TestHandleRegistrationQueueChurnBound(t *testing.T) {
	properties := gopter.NewProperties(nil)

	cases := gen.Struct(reflect.TypeOf(churnCase{}), map[string]gopter.Gen{
		"QueueSize":      gen.IntRange(0, 20),
		"ChurnLimit":     gen.UInt32Range(0, 10),
		"MaxSubnetNodes": gen.UInt32Range(0, 15),
	})

	properties.Property("activated <= churnLimit and totalActive <= maxSubnetNodes", prop.ForAll(
		func(c churnCase) string {
			mgr := NewManager()
			sr := mgr.Registry(1)

			for i := 0; i < c.QueueSize; i++ {
				hotkey := common.BigToAddress(big.NewInt(int64(i) + 1))
				peerID := common.BigToHash(big.NewInt(int64(2*i) + 1))
				bootstrapPeerID := common.BigToHash(big.NewInt(int64(2*i) + 2))
				_, err := sr.Register(hotkey, peerID, bootstrapPeerID, nil, nil, ids.SubnetEpoch(0), c.ChurnLimit)
				if err != nil {
					return fmt.Sprintf("unexpected register error at %d: %v", i, err)
				}
			}

			activated := sr.HandleRegistrationQueue(ids.SubnetEpoch(1_000_000), 0, c.ChurnLimit, c.MaxSubnetNodes)

			if uint32(len(activated)) > c.ChurnLimit {
				return "activated more nodes than the churn limit"
			}
			if sr.totalActive > c.MaxSubnetNodes {
				return "totalActive exceeds maxSubnetNodes"
			}
			return ""
		},
		cases,
	))

	properties.TestingRun(t)
}
