// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/featurebasedb/mistake/ctl"
	"github.com/spf13/cobra"
)

// commandRunner is satisfied by every command in ctl.
type commandRunner interface {
	Run(context.Context) error
}

// usageErrorWrapper hands the positional arguments to bind, if given, and
// then runs cmd.
func usageErrorWrapper(cmd commandRunner, bind func(args []string)) func(*cobra.Command, []string) error {
	return func(c *cobra.Command, args []string) error {
		if bind != nil {
			bind(args)
		}
		return cmd.Run(context.Background())
	}
}

func newRunCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	runner := ctl.NewRunCommand(stdin, stdout, stderr)
	runCmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Compile a script and print tensors it defines.",
		Long: `
Compiles every definition in SCRIPT, reports problems on stderr, and prints
the contents of the requested tensors. With no --query, every tensor the
script defines is printed.

Variables referenced as @name are bound with --bind name=value; a variable
used with "in" takes a comma separated list.
`,
		Args: cobra.ExactArgs(1),
		RunE: usageErrorWrapper(runner, func(args []string) {
			runner.Path = args[0]
		}),
	}

	flags := runCmd.Flags()
	ctl.SetWorkspaceFlags(flags, runner.Workspace)
	flags.StringSliceVarP(&runner.Queries, "query", "q", nil, "Tensors to print.")
	flags.StringArrayVarP(&runner.Bindings, "bind", "b", nil, "Variable binding, as name=value.")
	return runCmd
}
