// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/featurebasedb/mistake/ctl"
	"github.com/spf13/cobra"
)

func newConfigCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := ctl.NewConfigCommand(stdin, stdout, stderr)
	confCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the current configuration.",
		Long: `config prints the workspace configuration, after flags, environment
and any config file are applied, to stdout
`,
		Args: cobra.NoArgs,
		RunE: usageErrorWrapper(conf, nil),
	}
	ctl.SetWorkspaceFlags(confCmd.Flags(), conf.Config)
	return confCmd
}
