// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"strings"

	"github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// Flag keys for the subset of Global loaded from the command line/config
// file; everything else keeps its compiled-in default and is reachable
// afterward through Store's bounds-checked setters.
const (
	FlagMaxSubnets               = "max-subnets"
	FlagMinSubnetNodes           = "min-subnet-nodes"
	FlagMaxSubnetNodes           = "max-subnet-nodes"
	FlagEpochLength              = "epoch-length"
	FlagSubnetOwnerPercentage    = "subnet-owner-percentage"
	FlagFoundationPercentage     = "foundation-percentage"
	FlagBaseValidatorReward      = "base-validator-reward"
	FlagMinAttestationPercentage = "min-attestation-percentage"
	FlagOverwatchEpochMultiplier = "overwatch-epoch-length-multiplier"
	FlagWeightBudget             = "weight-budget"
)

// BuildFlagSet registers every Global flag cmd/hypercored exposes, the
// way the teacher's config.BuildFlagSet registers node-process flags
// ahead of viper binding.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("hypercored", pflag.ContinueOnError)
	fs.Uint32(FlagMaxSubnets, 32, "maximum number of concurrently registered subnets")
	fs.Uint32(FlagMinSubnetNodes, 1, "minimum active node count for a subnet to stay active")
	fs.Uint32(FlagMaxSubnetNodes, 256, "maximum active node count per subnet")
	fs.Uint64(FlagEpochLength, 100, "blocks per epoch (slots 0 and 1 are reserved)")
	fs.Uint64(FlagSubnetOwnerPercentage, fixedpoint.PF/10, "subnet owner's cut of validator emissions, in PF units")
	fs.Uint64(FlagFoundationPercentage, fixedpoint.PF/5, "treasury's cut of total epoch emissions, in PF units")
	fs.Uint64(FlagBaseValidatorReward, 1_000_000, "base per-epoch validator reward before reputation scaling")
	fs.Uint64(FlagMinAttestationPercentage, fixedpoint.PF/2, "minimum attestation ratio for a non-gated consensus submission, in PF units")
	fs.Uint64(FlagOverwatchEpochMultiplier, 10, "overwatch epochs span this many blockchain epochs")
	fs.Uint64(FlagWeightBudget, 50_000, "per-block weight-meter budget")
	return fs
}

// BuildViper binds fs and parses args into a *viper.Viper, mirroring the
// teacher's config.BuildViper precedence: flags, then a config file
// (HYPERCORED_CONFIG_FILE), then built-in defaults.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("hypercored")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfgFile := v.GetString("config-file"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// GlobalFromViper builds a Global from v, starting from defaultGlobal so
// any field BuildFlagSet doesn't expose keeps its compiled-in default.
func GlobalFromViper(v *viper.Viper, defaultGlobal Global) Global {
	g := defaultGlobal
	g.MaxSubnets = v.GetUint32(FlagMaxSubnets)
	g.MinSubnetNodes = v.GetUint32(FlagMinSubnetNodes)
	g.MaxSubnetNodes = v.GetUint32(FlagMaxSubnetNodes)
	g.EpochLength = v.GetUint64(FlagEpochLength)
	g.SubnetOwnerPercentage = uint256.NewInt(v.GetUint64(FlagSubnetOwnerPercentage))
	g.FoundationPercentage = uint256.NewInt(v.GetUint64(FlagFoundationPercentage))
	g.BaseValidatorReward = uint256.NewInt(v.GetUint64(FlagBaseValidatorReward))
	g.MinAttestationPercentage = uint256.NewInt(v.GetUint64(FlagMinAttestationPercentage))
	g.OverwatchEpochLengthMultiplier = v.GetUint64(FlagOverwatchEpochMultiplier)
	return g
}
