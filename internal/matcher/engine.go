// Package matcher applies the fixed catalogue of classification patterns
// (spec component C6) to declarations, type-locations, and reference
// expressions reported by a frontend.Unit, and routes each hit to one of
// four handler families that populate the three per-TU stores.
package matcher

import "github.com/lucasmartin/tumerge/internal/frontend"

// localInTheTU: named declaration, not externally linked, expanded in the
// main file.
func localInTheTU(d frontend.Decl) bool {
	_, named := d.Identifier()
	return named && !d.HasExternalFormalLinkage() && d.IsExpansionInMainFile()
}

// externallyNamedButImplementedInTheTU: externally linked declaration,
// expanded in the main file. No identifier is required: operator overloads
// and other declarations without one still reach
// handleFindingImplementsRelation, which names them by their printable name
// or by position.
func externallyNamedButImplementedInTheTU(d frontend.Decl) bool {
	return d.HasExternalFormalLinkage() && d.IsExpansionInMainFile()
}

// inSomeGlobalishScope: parent is the TU root or any namespace.
func inSomeGlobalishScope(d frontend.Decl) bool {
	return d.ParentIsGlobalish()
}

// tuInternalTraits = localInTheTU ∧ inSomeGlobalishScope.
func tuInternalTraits(d frontend.Decl) bool {
	return localInTheTU(d) && inSomeGlobalishScope(d)
}

// tuVisibleTraits = externallyNamedButImplementedInTheTU ∧ inSomeGlobalishScope.
func tuVisibleTraits(d frontend.Decl) bool {
	return externallyNamedButImplementedInTheTU(d) && inSomeGlobalishScope(d)
}
