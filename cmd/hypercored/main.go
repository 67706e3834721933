// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command hypercored is a small CLI over core/state.Store: it loads the
// governance constants table from flags/env/config file and replays a
// block-by-block trace through the scheduler, the way the teacher's
// vms/example/xsvm/cmd/xsvm command tree wraps a VM's execution path in
// cobra subcommands without itself being a full node.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := rootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "hypercored: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "hypercored",
		Short: "Replay and inspect subnet-coordination epoch traces",
	}
	c.AddCommand(replayCommand(), versionCommand())
	return c
}
