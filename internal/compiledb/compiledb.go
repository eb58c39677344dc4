// Package compiledb loads a JSON compilation database (compile_commands.json)
// the way clang::tooling::CompilationDatabase::loadFromDirectory does: given
// a build folder, find the file and decode its command entries.
package compiledb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one compilation database record: a file compiled from a
// directory with a given argument vector (or, in the "command" form of the
// format, an unsplit command line).
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
}

// ResolvedFile returns the absolute path to the entry's source file,
// resolving a relative File against Directory.
func (e Entry) ResolvedFile() string {
	if filepath.IsAbs(e.File) {
		return e.File
	}
	return filepath.Join(e.Directory, e.File)
}

// Args returns the entry's argument vector, splitting Command on whitespace
// if Arguments was not populated. This is a plain split, not a shell
// tokenizer: compile_commands.json entries using the "command" form with
// quoted arguments containing spaces are not supported, matching the
// database format's own recommendation to prefer "arguments".
func (e Entry) Args() []string {
	if len(e.Arguments) > 0 {
		return e.Arguments
	}
	if e.Command == "" {
		return nil
	}
	return strings.Fields(e.Command)
}

// LoadFromDirectory reads compile_commands.json from buildFolder and
// decodes it into a slice of Entry. An empty database is not an error; a
// missing or malformed file is.
func LoadFromDirectory(buildFolder string) ([]Entry, error) {
	path := filepath.Join(buildFolder, "compile_commands.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading compilation database: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing compilation database %s: %w", path, err)
	}
	return entries, nil
}
