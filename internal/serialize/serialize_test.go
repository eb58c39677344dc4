package serialize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasmartin/tumerge/internal/model"
	"github.com/lucasmartin/tumerge/internal/registry"
)

func TestWriteBadSymbolsFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	reps := []model.Replacement{
		{Location: model.NewLocation("/main.cpp", 2, 12), OriginalName: "f", RewrittenName: "main_f"},
	}
	if err := WriteBadSymbols(&buf, "/main.cpp", reps); err != nil {
		t.Fatalf("WriteBadSymbols: %v", err)
	}
	want := "/main.cpp##2:12##f##main_f\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteImplementsFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	entries := []model.Entry{
		{HeaderFile: "/header.h", Symbols: []string{"x"}},
	}
	if err := WriteImplements(&buf, "/main.cpp", entries); err != nil {
		t.Fatalf("WriteImplements: %v", err)
	}
	want := "/main.cpp##/header.h##x\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteDefinitionsFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	records := []model.SymbolRecord{
		{Span: model.Span{Begin: model.Position{Line: 3, Column: 1}, End: model.Position{Line: 3, Column: 12}}, QualifiedName: "ns::f"},
	}
	if err := WriteDefinitions(&buf, "/common.h", records); err != nil {
		t.Fatalf("WriteDefinitions: %v", err)
	}
	want := "/common.h##3:1##3:12##ns::f\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteSharedSymbolTableGoesThroughRegistry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "common.h")
	reg := registry.New()

	defs := []model.SymbolRecord{
		{Span: model.Span{Begin: model.Position{Line: 1, Column: 1}, End: model.Position{Line: 1, Column: 1}}, QualifiedName: "g"},
	}
	if err := WriteSharedSymbolTable(reg, file, defs, nil); err != nil {
		t.Fatalf("WriteSharedSymbolTable: %v", err)
	}

	data, err := os.ReadFile(file + "-definitions.txt")
	if err != nil {
		t.Fatalf("reading definitions output: %v", err)
	}
	if !strings.Contains(string(data), "##g\n") {
		t.Errorf("definitions output missing expected record: %q", string(data))
	}

	if _, err := os.Stat(file + "-forwarddeclarations.txt"); !os.IsNotExist(err) {
		t.Errorf("forward-declarations output should not be created when there are no records")
	}
}
