// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"

	"github.com/featurebasedb/mistake"
	"github.com/featurebasedb/mistake/errors"
)

// CheckCommand compiles a script without reading any data, reporting
// problems and the shape of each tensor the script defines.
type CheckCommand struct {
	*Workspace

	// Script paths.
	Paths []string

	// Standard input/output
	*mistake.CmdIO
}

// NewCheckCommand returns a new instance of CheckCommand.
func NewCheckCommand(stdin io.Reader, stdout, stderr io.Writer) *CheckCommand {
	return &CheckCommand{
		Workspace: NewWorkspace(),
		CmdIO:     mistake.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the check command. Each script is checked against a fresh
// universe. It fails if any script has problems.
func (cmd *CheckCommand) Run(ctx context.Context) error {
	cmd.Workspace.setupLogger(cmd.CmdIO)
	problems := 0
	for _, path := range cmd.Paths {
		n, err := cmd.check(ctx, path)
		if err != nil {
			return errors.Wrapf(err, "checking %s", path)
		}
		problems += n
	}
	if problems > 0 {
		return errors.Errorf("%d problem(s) found", problems)
	}
	return nil
}

func (cmd *CheckCommand) check(ctx context.Context, path string) (int, error) {
	s, err := cmd.Workspace.open(cmd.CmdIO)
	if err != nil {
		return 0, err
	}
	src, err := readScript(path)
	if err != nil {
		return 0, err
	}
	names, err := s.compile(ctx, src)
	if err != nil {
		return 0, err
	}
	writeDiagnostics(cmd.Stderr, src, s.diagnostics)
	if len(names) > 0 {
		writeShapes(cmd.Stdout, names, s.universe.TensorTypes())
	}
	return len(s.diagnostics), nil
}
