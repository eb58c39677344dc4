// Package frontend defines the narrow AST-query contract the core analysis
// needs from a C-family semantic front-end (spec component C5), plus a
// concrete tree-sitter-backed implementation and a synthetic stub used by
// tests.
package frontend

import (
	"context"

	"github.com/lucasmartin/tumerge/internal/model"
)

// DeclKind categorises a named declaration the way the matcher engine needs
// to dispatch it to a pattern.
type DeclKind int

const (
	KindFunction DeclKind = iota
	KindVariable
	KindRecord
	KindTypedef
)

// Decl is one named declaration inside a translation unit, as reported by a
// Frontend. All predicate methods answer as of the declaration's own AST
// node; PreviousDecl walks to the (single) previous declaration in the same
// redeclaration chain, if the front-end can determine one.
type Decl interface {
	ID() model.DeclID
	Kind() DeclKind

	// Identifier returns the declaration's name and whether it has one at
	// all (operator overloads and anonymous declarations do not).
	Identifier() (name string, ok bool)

	// PrintableName returns a front-end-formatted name even for
	// non-identifier declarations (e.g. "operator+"). Empty if unavailable.
	PrintableName() string

	// QualifiedName returns the fully qualified name, including namespace
	// qualifiers, used for symbol-table emission.
	QualifiedName() string

	HasExternalFormalLinkage() bool
	IsExpansionInMainFile() bool
	IsInline() bool
	IsClassMethod() bool
	IsField() bool

	// ParentIsGlobalish reports whether the declaration's parent scope is
	// the translation-unit root or any namespace (named or anonymous).
	ParentIsGlobalish() bool

	// IsDefinition reports whether this specific declaration node is (or,
	// for records, introduces) the defining declaration.
	IsDefinition() bool

	// Definition returns the declaration node that actually defines this
	// entity, if one exists anywhere in the TU. For a node where
	// IsDefinition() is true, Definition() returns that same node. Used to
	// tell "never defined" apart from "defined, but at a different node
	// than the one just matched" without exposing a bare body-presence
	// flag that would blur that distinction between functions and records.
	Definition() (Decl, bool)

	// PreviousDecl returns the previous declaration in the redeclaration
	// chain, if any.
	PreviousDecl() (Decl, bool)

	// Location is the spelling location of the declaration's name/begin.
	Location() model.SourceLocation
	// EndLocation is the spelling location of the declaration's end,
	// used to build symbol-table spans. Equal to Location() when the
	// front-end cannot report a distinct end.
	EndLocation() model.SourceLocation
}

// TypeLocation is a reference to a type written out in source (e.g. in a
// variable's declared type, a cast, a template argument).
type TypeLocation interface {
	Location() model.SourceLocation
	IsExpansionInMainFile() bool

	// TypedefTarget returns the referred TypedefNameDecl-like declaration,
	// if the type resolves to one.
	TypedefTarget() (Decl, bool)
	// RecordTarget returns the referred record declaration, if the type
	// resolves to one.
	RecordTarget() (Decl, bool)
}

// DeclRefExpr is a reference-expression usage of a declaration (a read of a
// variable, a call to a function, ...).
type DeclRefExpr interface {
	Location() model.SourceLocation
	IsExpansionInMainFile() bool
	Referent() Decl
}

// Unit is a single parsed translation unit: its main file plus every
// declaration/usage category the matcher engine enumerates.
type Unit interface {
	MainFile() string

	Functions() []Decl
	Variables() []Decl
	Records() []Decl
	Typedefs() []Decl

	TypeLocations() []TypeLocation
	DeclRefExprs() []DeclRefExpr
}

// CompileCommand is the minimal per-TU compilation command a Frontend needs
// to parse a translation unit: the file to compile, the directory the
// command should be interpreted relative to, and the raw argument vector.
type CompileCommand struct {
	Directory string
	File      string
	Arguments []string
}

// Frontend parses one translation unit and answers the C5 queries about it.
// A non-nil error indicates the front-end itself failed (spec's "non-zero
// integer error code" from a TU execution unit); a successfully returned
// Unit is otherwise always internally consistent.
type Frontend interface {
	Parse(ctx context.Context, cmd CompileCommand) (Unit, error)
}
