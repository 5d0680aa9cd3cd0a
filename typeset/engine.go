// Package typeset compiles markup files into PDF artifacts through an
// external typesetting engine.
package typeset

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Engine is the external typesetting collaborator: it compiles one markup
// file in a working directory and reports exit status plus captured log.
type Engine interface {
	Compile(ctx context.Context, texPath, workDir string) (log string, err error)
}

// CommandEngine runs a tectonic-style command line per compilation. The
// {tex} token in Args expands to the markup file path.
type CommandEngine struct {
	// Command is the engine binary, e.g. "tectonic".
	Command string

	// Args are the engine arguments. Without a {tex} token the file path
	// is appended.
	Args []string
}

// NewCommandEngine creates an engine invoking the given command line.
func NewCommandEngine(command string, args ...string) *CommandEngine {
	return &CommandEngine{Command: command, Args: args}
}

// Compile runs the engine once and returns its combined output. A non-zero
// exit or a context timeout returns an error alongside the captured log.
func (e *CommandEngine) Compile(ctx context.Context, texPath, workDir string) (string, error) {
	argv := e.argv(texPath)
	cmd := exec.CommandContext(ctx, e.Command, argv...)
	cmd.Dir = workDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return string(out), fmt.Errorf("typeset %s: %w", filepath.Base(texPath), ctx.Err())
		}
		return string(out), fmt.Errorf("typeset %s: %w", filepath.Base(texPath), err)
	}
	return string(out), nil
}

func (e *CommandEngine) argv(texPath string) []string {
	argv := make([]string, 0, len(e.Args)+1)
	replaced := false
	for _, a := range e.Args {
		if strings.Contains(a, "{tex}") {
			a = strings.ReplaceAll(a, "{tex}", texPath)
			replaced = true
		}
		argv = append(argv, a)
	}
	if !replaced {
		argv = append(argv, texPath)
	}
	return argv
}

// WithTimeout wraps an engine so every compilation is bounded by d. The
// zero duration means no bound.
func WithTimeout(engine Engine, d time.Duration) Engine {
	if d <= 0 {
		return engine
	}
	return &timeoutEngine{engine: engine, timeout: d}
}

type timeoutEngine struct {
	engine  Engine
	timeout time.Duration
}

func (t *timeoutEngine) Compile(ctx context.Context, texPath, workDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.engine.Compile(ctx, texPath, workDir)
}
