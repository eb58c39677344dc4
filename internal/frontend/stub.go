package frontend

import (
	"context"

	"github.com/lucasmartin/tumerge/internal/model"
)

// StubDecl is a synthetic Decl for exercising the matcher engine without a
// real front-end. All fields are exported; zero value is a plausible
// "ordinary local function" declaration.
type StubDecl struct {
	IDVal           model.DeclID
	KindVal         DeclKind
	Name            string
	HasName         bool
	Printable       string
	Qualified       string
	ExternalLinkage bool
	MainFile        bool
	Inline          bool
	ClassMethod     bool
	Field           bool
	GlobalishParent bool
	IsDef           bool
	// DefNode is the TU-wide defining redeclaration, or nil if the entity
	// is never defined. Tests that build an already-defining node
	// typically set DefNode to the node itself.
	DefNode *StubDecl
	Prev    *StubDecl
	Loc     model.SourceLocation
	End     model.SourceLocation
}

func (d *StubDecl) ID() model.DeclID               { return d.IDVal }
func (d *StubDecl) Kind() DeclKind                 { return d.KindVal }
func (d *StubDecl) Identifier() (string, bool)     { return d.Name, d.HasName }
func (d *StubDecl) PrintableName() string          { return d.Printable }
func (d *StubDecl) QualifiedName() string          { return d.Qualified }
func (d *StubDecl) HasExternalFormalLinkage() bool { return d.ExternalLinkage }
func (d *StubDecl) IsExpansionInMainFile() bool    { return d.MainFile }
func (d *StubDecl) IsInline() bool                 { return d.Inline }
func (d *StubDecl) IsClassMethod() bool            { return d.ClassMethod }
func (d *StubDecl) IsField() bool                  { return d.Field }
func (d *StubDecl) ParentIsGlobalish() bool        { return d.GlobalishParent }
func (d *StubDecl) IsDefinition() bool             { return d.IsDef }
func (d *StubDecl) Location() model.SourceLocation { return d.Loc }

func (d *StubDecl) EndLocation() model.SourceLocation {
	if d.End.Valid {
		return d.End
	}
	return d.Loc
}

func (d *StubDecl) Definition() (Decl, bool) {
	if d.DefNode == nil {
		return nil, false
	}
	return d.DefNode, true
}

func (d *StubDecl) PreviousDecl() (Decl, bool) {
	if d.Prev == nil {
		return nil, false
	}
	return d.Prev, true
}

// StubTypeLocation is a synthetic TypeLocation.
type StubTypeLocation struct {
	Loc       model.SourceLocation
	MainFile  bool
	Typedef   *StubDecl
	Record    *StubDecl
}

func (t *StubTypeLocation) Location() model.SourceLocation { return t.Loc }
func (t *StubTypeLocation) IsExpansionInMainFile() bool    { return t.MainFile }

func (t *StubTypeLocation) TypedefTarget() (Decl, bool) {
	if t.Typedef == nil {
		return nil, false
	}
	return t.Typedef, true
}

func (t *StubTypeLocation) RecordTarget() (Decl, bool) {
	if t.Record == nil {
		return nil, false
	}
	return t.Record, true
}

// StubDeclRefExpr is a synthetic DeclRefExpr.
type StubDeclRefExpr struct {
	Loc      model.SourceLocation
	MainFile bool
	Target   *StubDecl
}

func (r *StubDeclRefExpr) Location() model.SourceLocation { return r.Loc }
func (r *StubDeclRefExpr) IsExpansionInMainFile() bool    { return r.MainFile }
func (r *StubDeclRefExpr) Referent() Decl                 { return r.Target }

// StubUnit is a synthetic Unit assembled directly by tests, standing in for
// a parsed translation unit.
type StubUnit struct {
	Main       string
	FuncDecls  []Decl
	VarDecls   []Decl
	RecDecls   []Decl
	TypeDecls  []Decl
	TypeLocs   []TypeLocation
	Refs       []DeclRefExpr
}

func (u *StubUnit) MainFile() string               { return u.Main }
func (u *StubUnit) Functions() []Decl              { return u.FuncDecls }
func (u *StubUnit) Variables() []Decl              { return u.VarDecls }
func (u *StubUnit) Records() []Decl                { return u.RecDecls }
func (u *StubUnit) Typedefs() []Decl               { return u.TypeDecls }
func (u *StubUnit) TypeLocations() []TypeLocation  { return u.TypeLocs }
func (u *StubUnit) DeclRefExprs() []DeclRefExpr    { return u.Refs }

// StubFrontend returns a fixed Unit regardless of the requested compile
// command, for tests that construct their TU by hand.
type StubFrontend struct {
	Unit Unit
	Err  error
}

func (f *StubFrontend) Parse(_ context.Context, _ CompileCommand) (Unit, error) {
	return f.Unit, f.Err
}
