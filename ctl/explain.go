// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/featurebasedb/mistake"
	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/runtime"
)

// ExplainCommand prints the operator plan compiled for a tensor.
type ExplainCommand struct {
	*Workspace

	// Path of the script.
	Path string

	// Name of the tensor to explain.
	Name string

	// Standard input/output
	*mistake.CmdIO
}

// NewExplainCommand returns a new instance of ExplainCommand.
func NewExplainCommand(stdin io.Reader, stdout, stderr io.Writer) *ExplainCommand {
	return &ExplainCommand{
		Workspace: NewWorkspace(),
		CmdIO:     mistake.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the explain command.
func (cmd *ExplainCommand) Run(ctx context.Context) error {
	cmd.Workspace.setupLogger(cmd.CmdIO)
	s, err := cmd.Workspace.open(cmd.CmdIO)
	if err != nil {
		return err
	}
	src, err := readScript(cmd.Path)
	if err != nil {
		return err
	}
	if _, err := s.compile(ctx, src); err != nil {
		return err
	}
	writeDiagnostics(cmd.Stderr, src, s.diagnostics)
	return explain(cmd.Stdout, s, strings.ToLower(cmd.Name))
}

func explain(w io.Writer, s *session, name string) error {
	tensor, ok := s.universe.Tensor(name)
	if !ok {
		return dsl.NewErrTensorNotFound(name)
	}
	plan, err := runtime.Explain(tensor)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s is %s\n", name, tensor)
	fmt.Fprintf(w, "shape: %s\n", tensor.Shape())
	if leaves := runtime.Leaves(tensor); len(leaves) > 0 {
		fmt.Fprintf(w, "reads: %s\n", strings.Join(leaves, ", "))
	}
	fmt.Fprintln(w, plan)
	return nil
}
