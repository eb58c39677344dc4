package frontend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func findByName(decls []Decl, name string) Decl {
	for _, d := range decls {
		if n, ok := d.Identifier(); ok && n == name {
			return d
		}
	}
	return nil
}

// TestParseFollowsQuotedInclude mirrors an S3/S4-style project: a header
// declares a function, the main file defines it, and a local #include
// (searched relative to the main file's own directory, no -I needed)
// joins the two into one redeclaration chain.
func TestParseFollowsQuotedInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	header := filepath.Join(dir, "widget.h")
	main := filepath.Join(dir, "widget.cpp")
	writeFile(t, header, "void Widget();\n")
	writeFile(t, main, "#include \"widget.h\"\nvoid Widget() {}\n")

	fe := NewTreeSitterFrontend()
	unit, err := fe.Parse(context.Background(), CompileCommand{
		Directory: dir,
		File:      main,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	fns := unit.Functions()
	if len(fns) != 2 {
		t.Fatalf("Functions() = %d entries, want 2 (declaration + definition): %+v", len(fns), fns)
	}

	var decl, def Decl
	for _, f := range fns {
		if f.IsDefinition() {
			def = f
		} else {
			decl = f
		}
	}
	if decl == nil || def == nil {
		t.Fatalf("expected one declaration and one definition, got %+v", fns)
	}

	if decl.ID() != def.ID() {
		t.Errorf("declaration and definition should share one DeclID, got %d and %d", decl.ID(), def.ID())
	}

	if decl.Location().File != header {
		t.Errorf("declaration location file = %q, want %q", decl.Location().File, header)
	}
	if def.Location().File != main {
		t.Errorf("definition location file = %q, want %q", def.Location().File, main)
	}

	if decl.IsExpansionInMainFile() {
		t.Errorf("header declaration should not report IsExpansionInMainFile")
	}
	if !def.IsExpansionInMainFile() {
		t.Errorf("main-file definition should report IsExpansionInMainFile")
	}

	if decl.Location().IsSystem {
		t.Errorf("a locally-included header should not be marked a system header")
	}

	got, ok := def.Definition()
	if !ok || got.ID() != def.ID() {
		t.Errorf("Definition() on the defining node should return itself, got %v, ok=%v", got, ok)
	}
	got, ok = decl.Definition()
	if !ok || got.ID() != def.ID() {
		t.Errorf("Definition() on the forward declaration should resolve to the .cpp definition, got %v, ok=%v", got, ok)
	}
}

// TestParseResolvesAngleIncludeViaSearchPath exercises the -I/-isystem
// resolution path and the resulting IsSystem propagation: an
// angle-bracket #include is only found via a -isystem directory, and
// declarations that come from it are tagged as system declarations.
func TestParseResolvesAngleIncludeViaSearchPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sysInclude := filepath.Join(root, "sysroot", "include")
	src := filepath.Join(root, "project")

	writeFile(t, filepath.Join(sysInclude, "vendor.h"), "typedef int VendorHandle;\n")
	main := filepath.Join(src, "app.cpp")
	writeFile(t, main, "#include <vendor.h>\nVendorHandle h;\n")

	fe := NewTreeSitterFrontend()
	unit, err := fe.Parse(context.Background(), CompileCommand{
		Directory: root,
		File:      main,
		Arguments: []string{"c++", "-c", "-isystem", "sysroot/include", "app.cpp"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tdefs := unit.Typedefs()
	if len(tdefs) != 1 {
		t.Fatalf("Typedefs() = %d entries, want 1: %+v", len(tdefs), tdefs)
	}
	handle := tdefs[0]

	wantHeader := filepath.Join(sysInclude, "vendor.h")
	if handle.Location().File != wantHeader {
		t.Errorf("typedef location file = %q, want %q", handle.Location().File, wantHeader)
	}
	if !handle.Location().IsSystem {
		t.Errorf("declaration reached via an angle-bracket include should be marked IsSystem")
	}
	if handle.IsExpansionInMainFile() {
		t.Errorf("system-header typedef should not report IsExpansionInMainFile")
	}

	var typeLoc TypeLocation
	for _, tl := range unit.TypeLocations() {
		if td, ok := tl.TypedefTarget(); ok && td.ID() == handle.ID() {
			typeLoc = tl
			break
		}
	}
	if typeLoc == nil {
		t.Fatalf("expected a TypeLocation resolving to the VendorHandle typedef, got %+v", unit.TypeLocations())
	}
	if typeLoc.Location().File != main {
		t.Errorf("the use of VendorHandle in app.cpp should be located in the main file, got %q", typeLoc.Location().File)
	}
	if !typeLoc.IsExpansionInMainFile() {
		t.Errorf("the use of VendorHandle in app.cpp should report IsExpansionInMainFile")
	}
}

// TestParseFollowsTransitiveInclude checks that a header included by
// another header (rather than directly by the main file) is still parsed
// and folded into the same Unit, and that a -I directory used to resolve
// the inner include is honoured.
func TestParseFollowsTransitiveInclude(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	incDir := filepath.Join(root, "include")
	src := filepath.Join(root, "src")

	writeFile(t, filepath.Join(incDir, "base.h"), "struct Base { int id; };\n")
	writeFile(t, filepath.Join(incDir, "derived.h"), "#include \"base.h\"\nstruct Derived { Base b; };\n")
	main := filepath.Join(src, "main.cpp")
	writeFile(t, main, "#include \"derived.h\"\nDerived d;\n")

	fe := NewTreeSitterFrontend()
	unit, err := fe.Parse(context.Background(), CompileCommand{
		Directory: root,
		File:      main,
		Arguments: []string{"c++", "-c", "-Iinclude", "src/main.cpp"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	base := findByName(unit.Records(), "Base")
	derived := findByName(unit.Records(), "Derived")
	if base == nil || derived == nil {
		t.Fatalf("expected Base and Derived records, got %+v", unit.Records())
	}
	if base.Location().File != filepath.Join(incDir, "base.h") {
		t.Errorf("Base location file = %q", base.Location().File)
	}
	if derived.Location().File != filepath.Join(incDir, "derived.h") {
		t.Errorf("Derived location file = %q", derived.Location().File)
	}
}

// TestParseSkipsUnresolvableInclude checks that an #include that cannot be
// found on the search path degrades gracefully (the rest of the main file
// is still analysed) rather than failing the whole Parse call.
func TestParseSkipsUnresolvableInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := filepath.Join(dir, "main.cpp")
	writeFile(t, main, "#include <does_not_exist.h>\nvoid Run() {}\n")

	fe := NewTreeSitterFrontend()
	unit, err := fe.Parse(context.Background(), CompileCommand{
		Directory: dir,
		File:      main,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if findByName(unit.Functions(), "Run") == nil {
		t.Fatalf("expected Run() to still be parsed despite the missing include, got %+v", unit.Functions())
	}
}

// TestParseAnonymousNamespaceAcrossMainFile exercises the local-linkage
// case exclusively within the main file (no headers involved), checking
// that IsExpansionInMainFile and HasExternalFormalLinkage still agree once
// the walker's file tracking is per-file rather than a single constant.
func TestParseAnonymousNamespaceAcrossMainFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := filepath.Join(dir, "local.cpp")
	writeFile(t, main, "namespace { typedef int LocalHandle; }\n")

	fe := NewTreeSitterFrontend()
	unit, err := fe.Parse(context.Background(), CompileCommand{
		Directory: dir,
		File:      main,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	handle := findByName(unit.Typedefs(), "LocalHandle")
	if handle == nil {
		t.Fatalf("expected LocalHandle typedef, got %+v", unit.Typedefs())
	}
	if handle.HasExternalFormalLinkage() {
		t.Errorf("a typedef inside an anonymous namespace should not have external formal linkage")
	}
	if !handle.IsExpansionInMainFile() {
		t.Errorf("a declaration in the TU's own main file should report IsExpansionInMainFile")
	}
	if handle.Location().IsSystem {
		t.Errorf("the main file itself is never a system header")
	}
}
