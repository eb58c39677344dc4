// Package serialize renders the three per-run output kinds to their
// line-oriented, `##`-delimited text formats (spec component C10) and
// drives the shared-file registry for the outputs that fan in from more
// than one translation unit.
package serialize

import (
	"fmt"

	"github.com/lucasmartin/tumerge/internal/model"
	"github.com/lucasmartin/tumerge/internal/registry"
)

// writer is anything that accepts raw bytes, satisfied by both
// *registry.Handle and any *os.File-like sink used in tests.
type writer interface {
	Write(p []byte) (int, error)
}

// WriteBadSymbols writes one line per rename replacement:
// <tu-path>##<line>:<col>##<original>##<rewritten>
func WriteBadSymbols(w writer, tuFile string, replacements []model.Replacement) error {
	for _, r := range replacements {
		line := fmt.Sprintf("%s##%s##%s##%s\n", tuFile, r.Location.Pos, r.OriginalName, r.RewrittenName)
		if _, err := w.Write([]byte(line)); err != nil {
			return fmt.Errorf("serialize: writing bad-symbols line: %w", err)
		}
	}
	return nil
}

// WriteImplements writes one line per (header, symbol) pair:
// <tu-path>##<header-path>##<symbol>
func WriteImplements(w writer, tuFile string, entries []model.Entry) error {
	for _, e := range entries {
		for _, sym := range e.Symbols {
			line := fmt.Sprintf("%s##%s##%s\n", tuFile, e.HeaderFile, sym)
			if _, err := w.Write([]byte(line)); err != nil {
				return fmt.Errorf("serialize: writing implements line: %w", err)
			}
		}
	}
	return nil
}

// WriteDefinitions writes one line per definition record:
// <file>##<line>:<col>##<endLine>:<endCol>##<fully-qualified-name>
func WriteDefinitions(w writer, file string, records []model.SymbolRecord) error {
	return writeSymbolRecords(w, file, records)
}

// WriteForwardDeclarations writes forward-declaration records in the same
// schema as WriteDefinitions.
func WriteForwardDeclarations(w writer, file string, records []model.SymbolRecord) error {
	return writeSymbolRecords(w, file, records)
}

func writeSymbolRecords(w writer, file string, records []model.SymbolRecord) error {
	for _, r := range records {
		line := fmt.Sprintf("%s##%s##%s##%s\n", file, r.Span.Begin, r.Span.End, r.QualifiedName)
		if _, err := w.Write([]byte(line)); err != nil {
			return fmt.Errorf("serialize: writing symbol-table line: %w", err)
		}
	}
	return nil
}

// WriteSharedSymbolTable appends file's definition and forward-declaration
// records (as found in one TU's result) to the process-wide shared output
// files for that file, going through reg so concurrent TUs touching the
// same header never interleave partial lines.
func WriteSharedSymbolTable(reg *registry.Registry, file string, defs, forwards []model.SymbolRecord) error {
	if len(defs) > 0 {
		h, err := reg.Open(file + "-definitions.txt")
		if err != nil {
			return fmt.Errorf("serialize: opening definitions output for %s: %w", file, err)
		}
		err = WriteDefinitions(h, file, defs)
		closeErr := h.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return fmt.Errorf("serialize: closing definitions output for %s: %w", file, closeErr)
		}
	}
	if len(forwards) > 0 {
		h, err := reg.Open(file + "-forwarddeclarations.txt")
		if err != nil {
			return fmt.Errorf("serialize: opening forward-declarations output for %s: %w", file, err)
		}
		err = WriteForwardDeclarations(h, file, forwards)
		closeErr := h.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return fmt.Errorf("serialize: closing forward-declarations output for %s: %w", file, closeErr)
		}
	}
	return nil
}
