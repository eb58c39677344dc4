package model

import "sort"

// ImplementsStore maps, for a single TU, a header file path to the set of
// externally-linked symbol names this TU defines that were previously
// declared in that header (C3).
type ImplementsStore struct {
	tuFile string
	byFile map[string]map[string]struct{}
}

// NewImplementsStore creates an empty store for the given TU main file. The
// TU's own file is always filtered out of AddImplemented.
func NewImplementsStore(tuFile string) *ImplementsStore {
	return &ImplementsStore{tuFile: tuFile, byFile: make(map[string]map[string]struct{})}
}

// AddImplemented records that headerFile declares symbolName, and this TU
// defines it. A no-op if headerFile equals the TU's own main file.
func (s *ImplementsStore) AddImplemented(headerFile, symbolName string) {
	if headerFile == s.tuFile {
		return
	}
	set, ok := s.byFile[headerFile]
	if !ok {
		set = make(map[string]struct{})
		s.byFile[headerFile] = set
	}
	set[symbolName] = struct{}{}
}

// Entry is one header's sorted set of implemented symbol names.
type Entry struct {
	HeaderFile string
	Symbols    []string
}

// Entries yields header -> sorted symbol names, ordered by header path.
func (s *ImplementsStore) Entries() []Entry {
	out := make([]Entry, 0, len(s.byFile))
	for file, set := range s.byFile {
		symbols := make([]string, 0, len(set))
		for sym := range set {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		out = append(out, Entry{HeaderFile: file, Symbols: symbols})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeaderFile < out[j].HeaderFile })
	return out
}
