package matcher

import (
	"fmt"

	"github.com/lucasmartin/tumerge/internal/frontend"
	"github.com/lucasmartin/tumerge/internal/model"
)

// handlers holds the three stores being populated for one TU and the TU's
// main file, and implements the four handler families named in the
// matcher/visitor engine's design (Decl, Usage, Implements, Symbol).
type handlers struct {
	mainFile   string
	renames    *model.RenameStore
	implements *model.ImplementsStore
	symbols    *model.SymbolTableStore
}

func inMainFile(loc model.SourceLocation, mainFile string) bool {
	return loc.Valid && !loc.IsSystem && loc.File == mainFile
}

// handleDeclarations binds a matched function/variable/record/typedef
// declaration to its rename target. inlineMatch is set when the match came
// from the separate "inline, expanded in main file" pattern rather than the
// TUInternalTraits pattern; in that case a class method is ignored, since an
// inline member defined out-of-line must never be renamed.
func (h *handlers) handleDeclarations(d frontend.Decl, inlineMatch bool) {
	if inlineMatch && d.IsClassMethod() {
		return
	}

	name, ok := d.Identifier()
	if !ok {
		return
	}

	// set_binding always runs, even if the location below turns out to be
	// unusable: a later usage-site hit may still need the binding to exist.
	h.renames.SetBinding(name, d.ID())

	loc := d.Location()
	if !inMainFile(loc, h.mainFile) {
		return
	}
	h.renames.AddUsage(loc, name, d.ID())
}

// handleUsageFromTypeLocation is the type-location branch of
// HandleUsagePoints: it resolves the written type to its declaration
// (typedef target first, then record target), re-checks TUInternalTraits on
// that referred declaration since the type-location match itself does not
// constrain linkage, and records a usage against it.
func (h *handlers) handleUsageFromTypeLocation(tl frontend.TypeLocation) {
	var referred frontend.Decl
	if td, ok := tl.TypedefTarget(); ok {
		referred = td
	} else if rd, ok := tl.RecordTarget(); ok {
		referred = rd
	} else {
		return
	}

	if !tuInternalTraits(referred) {
		return
	}

	name, ok := referred.Identifier()
	if !ok {
		return
	}

	loc := tl.Location()
	if !inMainFile(loc, h.mainFile) {
		return
	}
	h.renames.AddUsage(loc, name, referred.ID())
}

// handleUsageFromDeclRef is the decl-ref-expr branch of HandleUsagePoints,
// shared by the plain LocalInTheTU pattern and the to-inline pattern once
// the latter has passed its class-method exclusion.
func (h *handlers) handleUsageFromDeclRef(ref frontend.DeclRefExpr, target frontend.Decl) {
	loc := ref.Location()
	if !inMainFile(loc, h.mainFile) {
		return
	}
	name, ok := target.Identifier()
	if !ok {
		return
	}
	h.renames.AddUsage(loc, name, target.ID())
}

// handleFindingImplementsRelation records an implements edge for a
// TU-visible function or variable: the symbol is externally linked and
// declared in this TU's main file, and its previous declaration lies outside
// the main file.
func (h *handlers) handleFindingImplementsRelation(d frontend.Decl) {
	prev, ok := d.PreviousDecl()
	if !ok {
		// Defined-only-locally externally-linked symbol: nothing to link to,
		// not an error.
		return
	}

	loc := prev.Location()
	if !loc.Valid || loc.IsSystem {
		return
	}
	if loc.File == h.mainFile {
		return
	}

	name, ok := d.Identifier()
	if !ok {
		name = d.PrintableName()
	}
	if name == "" {
		name = fmt.Sprintf("unnameable_decl_at__%d_%d", loc.Pos.Line, loc.Pos.Column)
	}

	h.implements.AddImplemented(loc.File, name)
}

// handleSymbolTable records a definition or forward-declaration entry for a
// function, variable, or record. wantDefine reflects which of the two
// symmetric patterns (12/13/14 vs 15) fired; the node is reclassified to a
// forward entry if it turns out not to be the chain's actual defining node.
func (h *handlers) handleSymbolTable(d frontend.Decl, wantDefine bool) {
	define := wantDefine
	if define {
		if d.Kind() == frontend.KindRecord {
			if !d.IsDefinition() {
				define = false
			}
		} else if _, hasDef := d.Definition(); !hasDef {
			define = false
		}
	}

	loc := d.Location()
	if !loc.Valid || loc.IsSystem {
		return
	}
	if _, ok := d.Identifier(); !ok {
		return
	}

	span := model.Span{Begin: loc.Pos, End: d.EndLocation().Pos}

	if define {
		if d.IsField() || d.IsClassMethod() {
			return
		}
		h.symbols.AddDefinition(loc.File, span, d.QualifiedName())
		return
	}

	if d.Kind() == frontend.KindFunction {
		if def, hasDef := d.Definition(); hasDef {
			defLoc := def.Location()
			if inMainFile(loc, h.mainFile) && inMainFile(defLoc, h.mainFile) {
				return
			}
		}
	}

	h.symbols.AddForwardDeclaration(loc.File, span, d.QualifiedName())
}
