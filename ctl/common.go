// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/featurebasedb/mistake"
	"github.com/featurebasedb/mistake/config"
	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/dsl/planner"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/dsl/universe"
	"github.com/featurebasedb/mistake/errors"
	"github.com/featurebasedb/mistake/logger"
	"github.com/featurebasedb/mistake/toml"
	"github.com/spf13/pflag"
)

// Workspace holds the settings shared by every command which compiles
// scripts.
type Workspace struct {
	Schema        string        `toml:"schema"`
	CheckUnits    bool          `toml:"check-units"`
	LongQueryTime toml.Duration `toml:"long-query-time"`
	Verbose       bool          `toml:"verbose"`
}

// NewWorkspace returns a Workspace with default settings.
func NewWorkspace() *Workspace {
	return &Workspace{
		LongQueryTime: toml.Duration(10 * time.Second),
	}
}

// SetWorkspaceFlags creates the flags for the workspace settings.
func SetWorkspaceFlags(flags *pflag.FlagSet, w *Workspace) {
	flags.StringVarP(&w.Schema, "schema", "s", w.Schema, "Workspace schema declaring axes, units, attributes and base tensors.")
	flags.BoolVar(&w.CheckUnits, "check-units", w.CheckUnits, "Check units of measure as well as dimensions.")
	flags.DurationVar((*time.Duration)(&w.LongQueryTime), "long-query-time", time.Duration(w.LongQueryTime), "Duration beyond which a query is logged as slow.")
	flags.BoolVar(&w.Verbose, "verbose", w.Verbose, "Enable verbose logging.")
}

// Diagnostic is one complaint about a script.
type Diagnostic struct {
	Span    parser.Span
	Message string
}

// session is a Universe loaded from a workspace schema, and a planner over
// it which records diagnostics.
type session struct {
	universe    *universe.Universe
	planner     types.CompilePlanner
	logger      logger.Logger
	diagnostics []Diagnostic
}

// setupLogger switches cmdio to a verbose logger if one was asked for. It
// must be called before any session is opened.
func (w *Workspace) setupLogger(cmdio *mistake.CmdIO) {
	if w.Verbose {
		cmdio.SetLogger(logger.NewVerboseLogger(cmdio.Stderr))
	}
}

func (w *Workspace) open(cmdio *mistake.CmdIO) (*session, error) {
	log := cmdio.Logger()

	u, err := universe.New(
		universe.OptUniverseLogger(log),
		universe.OptUniverseLongQueryTime(time.Duration(w.LongQueryTime)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating universe")
	}

	checkUnits := w.CheckUnits
	if w.Schema != "" {
		schema, err := config.Load(w.Schema)
		if err != nil {
			return nil, err
		}
		if err := schema.Apply(u); err != nil {
			return nil, errors.Wrapf(err, "applying schema %s", w.Schema)
		}
		checkUnits = checkUnits || schema.CheckUnits
	}

	s := &session{universe: u, logger: log}
	s.planner, err = planner.NewPlanner(u, s.complain,
		planner.OptPlannerLogger(log),
		planner.OptPlannerCheckUnits(checkUnits),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating planner")
	}
	return s, nil
}

func (s *session) complain(span parser.Span, message string) {
	s.diagnostics = append(s.diagnostics, Diagnostic{Span: span, Message: message})
}

// compile parses and compiles src. A syntax error stops parsing; it is
// recorded as a diagnostic and the statements before it are still
// compiled. It returns the names the script defined successfully, in order.
func (s *session) compile(ctx context.Context, src string) ([]string, error) {
	script, err := parser.ParseScript(src)
	if err != nil {
		var perr *parser.Error
		if !errors.As(err, &perr) {
			return nil, errors.Wrap(err, "parsing")
		}
		s.complain(perr.Span, "Syntax error: "+perr.Msg)
	}

	var names []string
	for _, stmt := range script.Statements {
		tensor, err := s.planner.CompileStatement(ctx, stmt)
		if err != nil {
			var g *dsl.Gripe
			if !errors.As(err, &g) {
				return names, err
			}
			continue
		}
		if def, ok := stmt.(*parser.DefineTensor); ok && tensor != nil {
			names = append(names, def.Name.Name)
		}
	}
	s.logger.Debugf("defined %d of %d statements", len(names), len(script.Statements))
	return names, nil
}

func readScript(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "reading script")
	}
	return string(b), nil
}

// writeDiagnostics prints each diagnostic as "line:col: message" followed by
// the offending source line with the span underlined.
func writeDiagnostics(w io.Writer, src string, diagnostics []Diagnostic) {
	lines := strings.Split(src, "\n")
	for _, d := range diagnostics {
		fmt.Fprintf(w, "%s: %s\n", d.Span.Start, d.Message)
		if d.Span.Start.Line >= len(lines) {
			continue
		}
		line := strings.TrimRight(lines[d.Span.Start.Line], "\r")
		fmt.Fprintln(w, line)
		fmt.Fprintln(w, underline(line, d.Span))
	}
}

// underline returns carets beneath the part of line covered by span. A span
// which continues onto later lines is underlined to the end of line.
func underline(line string, span parser.Span) string {
	runes := []rune(line)
	start, end := span.Start.Char, span.End.Char
	if start > len(runes) {
		start = len(runes)
	}
	if span.End.Line != span.Start.Line || end > len(runes) {
		end = len(runes)
	}

	var sb strings.Builder
	for _, r := range runes[:start] {
		if r == '\t' {
			sb.WriteRune('\t')
		} else {
			sb.WriteRune(' ')
		}
	}
	width := end - start
	if width < 1 {
		width = 1
	}
	sb.WriteString(strings.Repeat("^", width))
	return sb.String()
}
