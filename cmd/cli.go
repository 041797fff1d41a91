// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/featurebasedb/mistake/ctl"
	"github.com/spf13/cobra"
)

// newCLICommand runs an interactive session over a workspace.
func newCLICommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cliCmd := ctl.NewCLICommand(stdin, stdout, stderr)
	cobraCmd := &cobra.Command{
		Use:   "cli",
		Short: "Define and query tensors interactively.",
		Long:  ``,
		Args:  cobra.NoArgs,
		RunE:  usageErrorWrapper(cliCmd, nil),
	}

	flags := cobraCmd.Flags()
	ctl.SetWorkspaceFlags(flags, cliCmd.Workspace)
	flags.StringVar(&cliCmd.HistoryPath, "history-path", cliCmd.HistoryPath, "path for history files.")
	return cobraCmd
}
