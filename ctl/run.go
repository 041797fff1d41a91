// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"
	"strings"

	"github.com/featurebasedb/mistake"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/dsl/universe"
	"github.com/featurebasedb/mistake/errors"
	"github.com/featurebasedb/mistake/source"
)

// RunCommand compiles a script and prints the contents of tensors it
// defines.
type RunCommand struct {
	*Workspace

	// Path of the script.
	Path string

	// Tensors to print. By default, every tensor the script defines.
	Queries []string

	// Variable bindings, as name=value. A variable used with "in" takes a
	// comma separated list.
	Bindings []string

	// Standard input/output
	*mistake.CmdIO
}

// NewRunCommand returns a new instance of RunCommand.
func NewRunCommand(stdin io.Reader, stdout, stderr io.Writer) *RunCommand {
	return &RunCommand{
		Workspace: NewWorkspace(),
		CmdIO:     mistake.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the run command.
func (cmd *RunCommand) Run(ctx context.Context) error {
	cmd.Workspace.setupLogger(cmd.CmdIO)
	s, err := cmd.Workspace.open(cmd.CmdIO)
	if err != nil {
		return err
	}
	src, err := readScript(cmd.Path)
	if err != nil {
		return err
	}
	names, err := s.compile(ctx, src)
	if err != nil {
		return errors.Wrap(err, "compiling")
	}
	writeDiagnostics(cmd.Stderr, src, s.diagnostics)

	env, err := parseBindings(s.universe, cmd.Bindings)
	if err != nil {
		return err
	}
	queries := cmd.Queries
	if len(queries) == 0 {
		queries = names
	}
	for _, name := range queries {
		name = strings.ToLower(name)
		buf, err := s.universe.Query(ctx, name, env)
		if err != nil {
			return err
		}
		if err := writeResult(cmd.Stdout, name, buf); err != nil {
			return err
		}
	}
	return nil
}

// parseBindings turns name=value pairs into an environment. Values are
// parsed like members read from files.
func parseBindings(u *universe.Universe, bindings []string) (types.Environment, error) {
	env := make(types.Environment, len(bindings))
	for _, b := range bindings {
		name, value, ok := strings.Cut(b, "=")
		if !ok {
			return nil, errors.Errorf("binding '%s' is not of the form name=value", b)
		}
		name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
		if _, plural, _ := u.VariableUsage(name); plural {
			var list []interface{}
			for _, v := range strings.Split(value, ",") {
				list = append(list, source.ParseMember(strings.TrimSpace(v)))
			}
			env[name] = list
		} else {
			env[name] = source.ParseMember(strings.TrimSpace(value))
		}
	}
	return env, nil
}
