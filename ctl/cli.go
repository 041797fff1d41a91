// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/featurebasedb/mistake"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/pkg/errors"
)

const (
	promptBegin string = "mistake> "
	exitCommand string = "exit"
)

var splash string = fmt.Sprintf(`%s
Type a definition like "gross is quantity_sold * unit_price", or a tensor
name to see its contents. \? lists other commands; "exit" quits.
`, mistake.VersionInfo())

const help = `\d             list tensors and their shapes
\e NAME        explain the plan for NAME
\set VAR VALUE bind @VAR for queries (a comma separated list for "in")
\unset VAR     remove a binding
\q             quit
`

// CLICommand is an interactive session: definitions accumulate in one
// universe and tensors can be printed as they are defined.
type CLICommand struct {
	*Workspace

	HistoryPath string `json:"history-path"`

	// Standard input/output
	*mistake.CmdIO

	session  *session
	bindings map[string]string
}

func NewCLICommand(stdin io.Reader, stdout, stderr io.Writer) *CLICommand {
	return &CLICommand{
		Workspace: NewWorkspace(),
		CmdIO:     mistake.NewCmdIO(stdin, stdout, stderr),
		bindings:  make(map[string]string),
	}
}

func (cmd *CLICommand) setupHistory() {
	if cmd.HistoryPath != "" {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "Error getting home directory, command history persistence will be disabled: %v\n", err)
		return
	}
	historyDir := filepath.Join(home, ".mistake")
	if err := os.MkdirAll(historyDir, 0750); err != nil {
		fmt.Fprintf(cmd.Stderr, "Creating directory for history: %v\n", err)
		return
	}
	cmd.HistoryPath = filepath.Join(historyDir, "cli_history")
}

func (cmd *CLICommand) Run(ctx context.Context) error {
	fmt.Fprint(cmd.Stdout, splash)
	cmd.setupHistory()
	cmd.Workspace.setupLogger(cmd.CmdIO)

	s, err := cmd.Workspace.open(cmd.CmdIO)
	if err != nil {
		return err
	}
	cmd.session = s

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 promptBegin,
		HistoryFile:            cmd.HistoryPath,
		HistoryLimit:           100000,
		DisableAutoSaveHistory: true,

		Stdin:  io.NopCloser(cmd.Stdin),
		Stdout: cmd.Stdout,
		Stderr: cmd.Stderr,
	})
	if err != nil {
		return errors.Wrap(err, "getting readline")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "reading line")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := rl.SaveHistory(line); err != nil {
			fmt.Fprintf(cmd.Stderr, "Couldn't save history: %v\n", err)
		}
		if cmd.execute(ctx, line) {
			return nil
		}
	}
}

// execute handles one line of input. It reports whether the session should
// end.
func (cmd *CLICommand) execute(ctx context.Context, line string) bool {
	switch {
	case line == exitCommand || line == exitCommand+";" || line == `\q`:
		return true
	case strings.HasPrefix(line, `\`):
		if err := cmd.meta(line); err != nil {
			fmt.Fprintf(cmd.Stderr, "Error: %v\n", err)
		}
	case isName(line):
		if err := cmd.query(ctx, strings.ToLower(strings.TrimSuffix(line, ";"))); err != nil {
			fmt.Fprintf(cmd.Stderr, "Error: %v\n", err)
		}
	default:
		cmd.define(ctx, line)
	}
	return false
}

func (cmd *CLICommand) define(ctx context.Context, line string) {
	s := cmd.session
	s.diagnostics = nil
	names, err := s.compile(ctx, line)
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "Error: %v\n", err)
		return
	}
	writeDiagnostics(cmd.Stderr, line, s.diagnostics)
	if len(names) > 0 {
		writeShapes(cmd.Stdout, names, s.universe.TensorTypes())
	}
}

func (cmd *CLICommand) query(ctx context.Context, name string) error {
	s := cmd.session
	var pairs []string
	for k, v := range cmd.bindings {
		pairs = append(pairs, k+"="+v)
	}
	env, err := parseBindings(s.universe, pairs)
	if err != nil {
		return err
	}
	// Only pass the bindings this universe knows about.
	known := make(types.Environment, len(env))
	for k, v := range env {
		if _, _, ok := s.universe.VariableUsage(k); ok {
			known[k] = v
		}
	}
	buf, err := s.universe.Query(ctx, name, known)
	if err != nil {
		return err
	}
	return writeResult(cmd.Stdout, name, buf)
}

func (cmd *CLICommand) meta(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case `\?`, `\h`:
		fmt.Fprint(cmd.Stdout, help)
	case `\d`:
		u := cmd.session.universe
		writeShapes(cmd.Stdout, u.Names(), u.TensorTypes())
	case `\e`:
		if len(fields) != 2 {
			return errors.New(`usage: \e NAME`)
		}
		return explain(cmd.Stdout, cmd.session, strings.ToLower(fields[1]))
	case `\set`:
		if len(fields) < 3 {
			return errors.New(`usage: \set VAR VALUE`)
		}
		name := strings.ToLower(strings.TrimPrefix(fields[1], "@"))
		cmd.bindings[name] = strings.Join(fields[2:], " ")
	case `\unset`:
		if len(fields) != 2 {
			return errors.New(`usage: \unset VAR`)
		}
		delete(cmd.bindings, strings.ToLower(strings.TrimPrefix(fields[1], "@")))
	default:
		return errors.Errorf("unknown command '%s'", fields[0])
	}
	return nil
}

// isName reports whether line is just an identifier, optionally followed by
// a semicolon.
func isName(line string) bool {
	line = strings.TrimSuffix(line, ";")
	if line == "" {
		return false
	}
	for i, r := range line {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
