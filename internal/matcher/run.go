package matcher

import (
	"path/filepath"
	"strings"

	"github.com/lucasmartin/tumerge/internal/frontend"
	"github.com/lucasmartin/tumerge/internal/model"
)

// Result bundles the three stores a TU analysis produces.
type Result struct {
	Renames    *model.RenameStore
	Implements *model.ImplementsStore
	Symbols    *model.SymbolTableStore
}

// Run applies the fixed 15-pattern catalogue to every declaration, type
// location, and reference expression frontend.Unit reports, dispatching
// each hit to its handler family, and returns the three populated stores.
func Run(unit frontend.Unit) *Result {
	h := &handlers{
		mainFile:   unit.MainFile(),
		renames:    model.NewRenameStore(stemOf(unit.MainFile())),
		implements: model.NewImplementsStore(unit.MainFile()),
		symbols:    model.NewSymbolTableStore(),
	}

	for _, d := range unit.Functions() {
		matchFunction(h, d)
	}
	for _, d := range unit.Variables() {
		matchVariable(h, d)
	}
	for _, d := range unit.Records() {
		matchRecord(h, d)
	}
	for _, d := range unit.Typedefs() {
		matchTypedef(h, d)
	}
	for _, tl := range unit.TypeLocations() {
		if tl.IsExpansionInMainFile() {
			h.handleUsageFromTypeLocation(tl)
		}
	}
	for _, ref := range unit.DeclRefExprs() {
		matchDeclRef(h, ref)
	}

	return &Result{Renames: h.renames, Implements: h.implements, Symbols: h.symbols}
}

// matchFunction applies patterns 1, 5, 10, 12, 15 to one function
// declaration.
func matchFunction(h *handlers, d frontend.Decl) {
	if tuInternalTraits(d) {
		h.handleDeclarations(d, false)
	}
	if d.IsInline() && d.IsExpansionInMainFile() {
		h.handleDeclarations(d, true)
	}
	if tuVisibleTraits(d) {
		h.handleFindingImplementsRelation(d)
	}
	if inSomeGlobalishScope(d) && !d.IsDefinition() {
		h.handleSymbolTable(d, false)
	}
	if d.HasExternalFormalLinkage() && d.IsDefinition() {
		h.handleSymbolTable(d, true)
	}
}

// matchVariable applies patterns 2, 11, 13, 15 to one variable declaration.
func matchVariable(h *handlers, d frontend.Decl) {
	if tuInternalTraits(d) {
		h.handleDeclarations(d, false)
	}
	if tuVisibleTraits(d) {
		h.handleFindingImplementsRelation(d)
	}
	if inSomeGlobalishScope(d) && !d.IsDefinition() {
		h.handleSymbolTable(d, false)
	}
	if d.HasExternalFormalLinkage() && d.IsDefinition() {
		h.handleSymbolTable(d, true)
	}
}

// matchRecord applies patterns 3, 14, 15 to one record declaration. Records
// carry no implements pattern.
func matchRecord(h *handlers, d frontend.Decl) {
	if tuInternalTraits(d) {
		h.handleDeclarations(d, false)
	}
	_, hasDefinition := d.Definition()
	if inSomeGlobalishScope(d) && !hasDefinition {
		h.handleSymbolTable(d, false)
	}
	if d.HasExternalFormalLinkage() && hasDefinition {
		h.handleSymbolTable(d, true)
	}
}

// matchTypedef applies pattern 4 to one typedef-like-name declaration.
func matchTypedef(h *handlers, d frontend.Decl) {
	if tuInternalTraits(d) {
		h.handleDeclarations(d, false)
	}
}

// matchDeclRef applies patterns 7, 8, 9 to one reference expression.
func matchDeclRef(h *handlers, ref frontend.DeclRefExpr) {
	target := ref.Referent()
	if target == nil {
		return
	}

	if localInTheTU(target) && (target.Kind() == frontend.KindFunction || target.Kind() == frontend.KindVariable) {
		h.handleUsageFromDeclRef(ref, target)
	}

	if target.Kind() == frontend.KindFunction && target.IsInline() && target.IsExpansionInMainFile() {
		if target.IsClassMethod() {
			return
		}
		h.handleUsageFromDeclRef(ref, target)
	}
}

// stemOf returns a file's base name without its extension, used to derive
// the rename prefix.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
