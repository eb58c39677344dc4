package model

import "sort"

// RenameBinding pairs a declaration's original spelling with its rewritten
// name, keyed by DeclID in the owning RenameStore.
type RenameBinding struct {
	OriginalName  string
	RewrittenName string
}

// UsagePosition records one textual occurrence of a (possibly renameable)
// declaration. Usages are stored in insertion order; deduplication is not
// required.
type UsagePosition struct {
	Location     SourceLocation
	OriginalName string
	Decl         DeclID
}

// Replacement is the joined (usage location) -> (original, rewritten) pair
// that RenameStore.Replacements produces once bindings and usages have been
// reconciled.
type Replacement struct {
	Location      SourceLocation
	OriginalName  string
	RewrittenName string
}

// SanitizePrefix derives the rename prefix from a TU source file's stem per
// spec §3: a leading decimal digit gets a leading underscore, and every '-'
// or '.' becomes '_'. Every other character passes through unchanged.
func SanitizePrefix(stem string) string {
	if stem == "" {
		return stem
	}
	out := make([]rune, 0, len(stem)+1)
	if stem[0] >= '0' && stem[0] <= '9' {
		out = append(out, '_')
	}
	for _, r := range stem {
		switch r {
		case '-', '.':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// RenameStore is the per-TU map from declaration identity to new name, plus
// the ordered list of usage positions collected while walking the TU (C2).
type RenameStore struct {
	prefix   string
	bindings map[DeclID]RenameBinding
	usages   []UsagePosition
}

// NewRenameStore creates an empty store whose rewritten names are prefixed
// with SanitizePrefix(tuStem).
func NewRenameStore(tuStem string) *RenameStore {
	return &RenameStore{
		prefix:   SanitizePrefix(tuStem),
		bindings: make(map[DeclID]RenameBinding),
	}
}

// SetBinding records decl -> (originalName, prefix_originalName). Idempotent:
// a later call for the same decl overwrites the earlier binding.
func (r *RenameStore) SetBinding(originalName string, decl DeclID) {
	r.bindings[decl] = RenameBinding{
		OriginalName:  originalName,
		RewrittenName: r.prefix + "_" + originalName,
	}
}

// AddUsage appends a usage position in insertion order. The usage may or may
// not later resolve to a binding; unresolved usages are dropped silently by
// Replacements.
func (r *RenameStore) AddUsage(loc SourceLocation, originalName string, decl DeclID) {
	r.usages = append(r.usages, UsagePosition{Location: loc, OriginalName: originalName, Decl: decl})
}

// Bindings exposes the raw decl -> binding map, mostly for tests.
func (r *RenameStore) Bindings() map[DeclID]RenameBinding {
	return r.bindings
}

// Usages exposes the raw, insertion-ordered usage list, mostly for tests.
func (r *RenameStore) Usages() []UsagePosition {
	return r.usages
}

// Replacements joins usages to bindings and returns them ordered by
// location. Usages whose decl has no binding are skipped silently.
func (r *RenameStore) Replacements() []Replacement {
	out := make([]Replacement, 0, len(r.usages))
	for _, u := range r.usages {
		b, ok := r.bindings[u.Decl]
		if !ok {
			continue
		}
		out = append(out, Replacement{
			Location:      u.Location,
			OriginalName:  u.OriginalName,
			RewrittenName: b.RewrittenName,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location.Less(out[j].Location)
	})
	return out
}
