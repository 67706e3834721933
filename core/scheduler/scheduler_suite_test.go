// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/ids"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSchedulerSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "scheduler suite")
}

var _ = Describe("a multi-epoch replay", func() {
	var (
		deps Deps
		s    *Scheduler
		sn   *subnet.Subnet
		node ids.NodeID
	)

	BeforeEach(func() {
		s = New(nil, nil, DefaultBlockWeightBudget)
		deps = newTestDeps(GinkgoT())
	})

	It("elects a validator for the owning subnet every owned epoch, three epochs running", func() {
		owner := ids.Coldkey(common.HexToAddress("0xA"))
		var err error
		sn, _, err = deps.Subnets.Register("alpha", "alpha/alpha", "", "", owner, 0,
			uint256.NewInt(0), uint256.NewInt(0), 1, uint256.NewInt(0))
		Expect(err).NotTo(HaveOccurred())

		_, err = deps.Subnets.Activate(sn.ID, owner, 0, 0, 1_000_000, subnet.ActivationCheck{
			TotalActiveNodes:       1,
			MinSubnetNodes:         1,
			MinSubnetDelegateStake: uint256.NewInt(0),
		})
		Expect(err).NotTo(HaveOccurred())

		sr := deps.Nodes.Registry(sn.ID)
		registered, err := sr.Register(common.HexToAddress("0xA"), common.HexToHash("0x1"), common.HexToHash("0x2"), nil, nil, 0, 10)
		Expect(err).NotTo(HaveOccurred())
		sr.InsertIntoSlot(registered.ID)
		node = registered.ID

		l := deps.Config.Global.EpochLength
		for epoch := uint64(0); epoch < 3; epoch++ {
			base := epoch * l
			_, err := s.Tick(context.Background(), ids.Block(base+1), common.HexToHash("0x1"), deps)
			Expect(err).NotTo(HaveOccurred())

			report, err := s.Tick(context.Background(), ids.Block(base+sn.Slot), common.HexToHash("0x2"), deps)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.EmissionStepSubnet).NotTo(BeNil())
			Expect(*report.EmissionStepSubnet).To(Equal(sn.ID))
			Expect(report.ElectedValidator).NotTo(BeNil())
			Expect(*report.ElectedValidator).To(Equal(node))
		}
	})
})
