// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/featurebasedb/mistake/ctl"
	"github.com/spf13/cobra"
)

func newExplainCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	explainer := ctl.NewExplainCommand(stdin, stdout, stderr)
	explainCmd := &cobra.Command{
		Use:   "explain SCRIPT NAME",
		Short: "Print the operator plan for a tensor.",
		Args:  cobra.ExactArgs(2),
		RunE:  usageErrorWrapper(explainer, func(args []string) {
			explainer.Path, explainer.Name = args[0], args[1]
		}),
	}
	ctl.SetWorkspaceFlags(explainCmd.Flags(), explainer.Workspace)
	return explainCmd
}
