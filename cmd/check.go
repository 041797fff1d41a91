// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/featurebasedb/mistake/ctl"
	"github.com/spf13/cobra"
)

func newCheckCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	checker := ctl.NewCheckCommand(stdin, stdout, stderr)
	checkCmd := &cobra.Command{
		Use:   "check SCRIPT [SCRIPT...]",
		Short: "Check scripts without reading data.",
		Long: `
Compiles each script against the workspace schema and reports the shape of
every tensor defined, or the problems found. No data is read.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: usageErrorWrapper(checker, func(args []string) {
			checker.Paths = args
		}),
	}
	ctl.SetWorkspaceFlags(checkCmd.Flags(), checker.Workspace)
	return checkCmd
}
