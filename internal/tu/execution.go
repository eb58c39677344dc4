// Package tu wraps one translation-unit analysis job: a compilation
// command plus the front-end and matcher invocation that turns it into the
// three per-TU stores (spec component C7).
package tu

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/lucasmartin/tumerge/internal/compiledb"
	"github.com/lucasmartin/tumerge/internal/frontend"
	"github.com/lucasmartin/tumerge/internal/matcher"
)

// Unit is one (compilation command, source file) job. Run must be called
// exactly once; a second call panics, mirroring the assertion the original
// analyser makes against re-executing a ToolExecution.
type Unit struct {
	entry frontend.CompileCommand
	fe    frontend.Frontend

	ran atomic.Bool
}

// New constructs a Unit for one compilation database entry.
func New(fe frontend.Frontend, entry compiledb.Entry) *Unit {
	return &Unit{
		fe: fe,
		entry: frontend.CompileCommand{
			Directory: entry.Directory,
			File:      entry.ResolvedFile(),
			Arguments: entry.Args(),
		},
	}
}

// File returns the TU's main source file path.
func (u *Unit) File() string {
	return u.entry.File
}

// Stem returns the main file's base name without its extension (the same
// stem the matcher derives the rename prefix from).
func (u *Unit) Stem() string {
	base := filepath.Base(u.entry.File)
	return strings.TrimSuffix(base, u.Ext())
}

// Ext returns the main file's extension, including the leading dot.
func (u *Unit) Ext() string {
	return filepath.Ext(u.entry.File)
}

// Run parses the TU and applies the matcher engine, returning the three
// populated stores. A non-nil error indicates front-end failure; the
// caller should skip writing outputs for this TU and continue with others.
func (u *Unit) Run(ctx context.Context) (*matcher.Result, error) {
	if !u.ran.CompareAndSwap(false, true) {
		panic("tu: Unit.Run called more than once")
	}

	unit, err := u.fe.Parse(ctx, u.entry)
	if err != nil {
		return nil, fmt.Errorf("analysing %s: %w", u.entry.File, err)
	}

	return matcher.Run(unit), nil
}
