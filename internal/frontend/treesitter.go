package frontend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/lucasmartin/tumerge/internal/model"
)

// TreeSitterFrontend parses a translation unit with tree-sitter's C++
// grammar and answers the Decl/Unit queries by walking the resulting
// concrete syntax tree directly, the same way the teacher's per-language
// extractors (golang.go, python.go) read structure straight off AST node
// children instead of a compiled query.
//
// Unlike a real Clang front-end this has no preprocessor macro expansion:
// #include is followed and parsed (using the compile command's -I/-isystem
// search path) so that headers are represented in the same Unit as the
// main file, but declarations are linked to their uses, and redeclarations
// to each other, purely by matching qualified names within the single TU.
// Two distinct entities that happen to share a spelling (say, a local
// variable shadowing a global of the same name) are not disambiguated by
// scope depth beyond namespace/class qualification. This is deliberately
// weaker than clang::Sema and is called out in the design notes rather
// than hidden.
type TreeSitterFrontend struct{}

// NewTreeSitterFrontend returns a ready-to-use front-end. It holds no state
// of its own; each Parse call is independent.
func NewTreeSitterFrontend() *TreeSitterFrontend {
	return &TreeSitterFrontend{}
}

func (f *TreeSitterFrontend) Parse(ctx context.Context, cmd CompileCommand) (Unit, error) {
	mainFile := cmd.File
	if !filepath.IsAbs(mainFile) {
		mainFile = filepath.Join(cmd.Directory, mainFile)
	}

	w := &walker{
		mainFile:    mainFile,
		byName:      make(map[string][]*tsDecl),
		nextID:      1,
		includeDirs: includeSearchPath(cmd),
		visited:     make(map[string]bool),
		ctx:         ctx,
	}
	if err := w.parseFile(mainFile, false); err != nil {
		return nil, err
	}
	w.linkDefinitions()

	return w.unit(), nil
}

// includeSearchPath extracts the -I/-isystem directories from a compile
// command's argument vector, resolving relative paths against the command's
// working directory the way a real compiler invocation would.
func includeSearchPath(cmd CompileCommand) []string {
	var dirs []string
	args := cmd.Arguments
	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(cmd.Directory, dir)
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-I" || arg == "-isystem":
			if i+1 < len(args) {
				dirs = append(dirs, resolve(args[i+1]))
				i++
			}
		case strings.HasPrefix(arg, "-I") && len(arg) > 2:
			dirs = append(dirs, resolve(arg[2:]))
		case strings.HasPrefix(arg, "-isystem") && len(arg) > len("-isystem"):
			dirs = append(dirs, resolve(arg[len("-isystem"):]))
		}
	}
	return dirs
}

// tsDecl is the concrete Decl backing a tree-sitter-derived declaration.
type tsDecl struct {
	id          model.DeclID
	kind        DeclKind
	name        string
	qualified   string
	external    bool
	inline      bool
	classMethod bool
	field       bool
	globalish   bool
	definition  bool
	loc, end    model.SourceLocation
	prev        *tsDecl
	def         *tsDecl

	mainFile string // the TU's main file, to answer IsExpansionInMainFile
}

func (d *tsDecl) ID() model.DeclID               { return d.id }
func (d *tsDecl) Kind() DeclKind                 { return d.kind }
func (d *tsDecl) Identifier() (string, bool)     { return d.name, d.name != "" }
func (d *tsDecl) PrintableName() string          { return d.name }
func (d *tsDecl) QualifiedName() string          { return d.qualified }
func (d *tsDecl) HasExternalFormalLinkage() bool { return d.external }
func (d *tsDecl) IsExpansionInMainFile() bool    { return d.loc.File == d.mainFile }
func (d *tsDecl) IsInline() bool                 { return d.inline }
func (d *tsDecl) IsClassMethod() bool            { return d.classMethod }
func (d *tsDecl) IsField() bool                  { return d.field }
func (d *tsDecl) ParentIsGlobalish() bool        { return d.globalish }
func (d *tsDecl) IsDefinition() bool             { return d.definition }
func (d *tsDecl) Location() model.SourceLocation { return d.loc }

func (d *tsDecl) Definition() (Decl, bool) {
	if d.def == nil {
		return nil, false
	}
	return d.def, true
}

func (d *tsDecl) EndLocation() model.SourceLocation {
	if d.end.Valid {
		return d.end
	}
	return d.loc
}

func (d *tsDecl) PreviousDecl() (Decl, bool) {
	if d.prev == nil {
		return nil, false
	}
	return d.prev, true
}

type tsTypeLocation struct {
	loc      model.SourceLocation
	name     string
	typedefT *tsDecl
	recordT  *tsDecl
	mainFile string
}

func (t *tsTypeLocation) Location() model.SourceLocation { return t.loc }
func (t *tsTypeLocation) IsExpansionInMainFile() bool    { return t.loc.File == t.mainFile }

func (t *tsTypeLocation) TypedefTarget() (Decl, bool) {
	if t.typedefT == nil {
		return nil, false
	}
	return t.typedefT, true
}

func (t *tsTypeLocation) RecordTarget() (Decl, bool) {
	if t.recordT == nil {
		return nil, false
	}
	return t.recordT, true
}

type tsDeclRef struct {
	loc      model.SourceLocation
	name     string
	target   *tsDecl
	mainFile string
}

func (r *tsDeclRef) Location() model.SourceLocation { return r.loc }
func (r *tsDeclRef) IsExpansionInMainFile() bool    { return r.loc.File == r.mainFile }
func (r *tsDeclRef) Referent() Decl {
	if r.target == nil {
		return nil
	}
	return r.target
}

// scope tracks the enclosing namespace/class path while walking, used to
// build qualified names and to decide ParentIsGlobalish.
type scope struct {
	namespaces []string
	inClass    bool
	anonymous  bool // lexically inside an anonymous namespace: internal linkage
}

func (s scope) qualify(name string) string {
	if len(s.namespaces) == 0 {
		return name
	}
	return strings.Join(s.namespaces, "::") + "::" + name
}

// walker accumulates declarations across the main file and every header it
// transitively #includes. Each file gets its own tree-sitter Tree, and that
// tree's nodes become invalid once it is closed, so pending type-location
// and decl-ref nodes are resolved before parseFile returns for that file,
// not deferred to a single pass at the end of Parse. Redeclaration chains
// (byName) and the resulting typeLocs/refs/func/var/rec/tdef slices do span
// files, since a header's forward declaration and a .cpp's definition of
// the same qualified name belong to the same chain.
type walker struct {
	ctx         context.Context
	mainFile    string
	nextID      model.DeclID
	includeDirs []string
	visited     map[string]bool

	// curFile/curSrc/curSystem describe the file currently being walked;
	// they are saved and restored around a nested parseFile call so that
	// returning to the including file resumes with its own values.
	curFile   string
	curSrc    []byte
	curSystem bool

	// pendingTypeIDs/pendingRefs hold nodes awaiting name resolution for
	// the file currently being walked; each file's lists are drained by
	// resolvePending before that file's tree closes.
	pendingTypeIDs []*sitter.Node
	pendingRefs    []*sitter.Node

	byName map[string][]*tsDecl
	funcs  []Decl
	vars   []Decl
	recs   []Decl
	tdefs  []Decl

	typeLocs []TypeLocation
	refs     []DeclRefExpr
}

func (w *walker) freshID() model.DeclID {
	id := w.nextID
	w.nextID++
	return id
}

// parseFile parses one file (the main file, or a header reached by
// #include) and walks it, resolving that file's own pending type-locations
// and decl-refs before its tree-sitter tree closes. isSystem marks whether
// this file was reached as a system header (angle-bracket include, or
// transitively from one).
func (w *walker) parseFile(path string, isSystem bool) error {
	if w.visited[path] {
		return nil
	}
	w.visited[path] = true

	source, err := os.ReadFile(path)
	if err != nil {
		if path == w.mainFile {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		// A header that can't be resolved on disk is skipped rather than
		// treated as fatal for the whole TU; the include search path is
		// necessarily incomplete for headers outside the project tree.
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(w.ctx, nil, source)
	if err != nil {
		if path == w.mainFile {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		return nil
	}
	defer tree.Close()

	savedFile, savedSrc, savedSystem := w.curFile, w.curSrc, w.curSystem
	savedTypeIDs, savedRefs := w.pendingTypeIDs, w.pendingRefs
	w.curFile, w.curSrc, w.curSystem = path, source, isSystem
	w.pendingTypeIDs, w.pendingRefs = nil, nil

	w.walk(tree.RootNode(), scope{})
	w.resolvePending()

	w.curFile, w.curSrc, w.curSystem = savedFile, savedSrc, savedSystem
	w.pendingTypeIDs, w.pendingRefs = savedTypeIDs, savedRefs
	return nil
}

func (w *walker) point(n *sitter.Node) model.SourceLocation {
	p := n.StartPoint()
	loc := model.NewLocation(w.curFile, int(p.Row)+1, int(p.Column)+1)
	loc.IsSystem = w.curSystem
	return loc
}

func (w *walker) endPoint(n *sitter.Node) model.SourceLocation {
	p := n.EndPoint()
	loc := model.NewLocation(w.curFile, int(p.Row)+1, int(p.Column)+1)
	loc.IsSystem = w.curSystem
	return loc
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.curSrc[n.StartByte():n.EndByte()])
}

// register assigns d its DeclID and links it into its redeclaration chain.
// All redeclarations of the same qualified name within a TU share one
// DeclID: DeclarationIdentity means "the same declaration" in the entity
// sense a rename or a usage-site join needs, not "the same AST node" — a
// forward declaration and its later definition must bind to one rename
// target, whether the forward declaration lives in a header and the
// definition in the main file or not.
func (w *walker) register(d *tsDecl) {
	d.mainFile = w.mainFile
	if chain := w.byName[d.qualified]; len(chain) > 0 {
		d.prev = chain[len(chain)-1]
		d.id = chain[0].id
	} else {
		d.id = w.freshID()
	}
	w.byName[d.qualified] = append(w.byName[d.qualified], d)
	switch d.kind {
	case KindFunction:
		w.funcs = append(w.funcs, d)
	case KindVariable:
		w.vars = append(w.vars, d)
	case KindRecord:
		w.recs = append(w.recs, d)
	case KindTypedef:
		w.tdefs = append(w.tdefs, d)
	}
}

// walk descends the tree collecting declarations, following #include
// directives inline, and queuing type_identifier and identifier/
// call_expression nodes for a second, name-resolution pass
// (resolvePending), since a declaration referenced by a use may not yet
// have been registered on first sight.
func (w *walker) walk(n *sitter.Node, sc scope) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "declaration", "function_definition", "field_declaration":
		// The declared type is a type-location use, even though the cases
		// below do not descend into these nodes' children.
		if t := n.ChildByFieldName("type"); t != nil && t.Type() == "type_identifier" {
			w.pendingTypeIDs = append(w.pendingTypeIDs, t)
		}
	}

	switch n.Type() {
	case "preproc_include":
		w.handleInclude(n)
		return

	case "namespace_definition":
		name := ""
		if id := n.ChildByFieldName("name"); id != nil {
			name = w.text(id)
		}
		inner := sc
		if name != "" {
			inner.namespaces = append(append([]string{}, sc.namespaces...), name)
		} else {
			inner.anonymous = true
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walkChildren(body, inner)
		}
		return

	case "function_definition":
		w.handleFunction(n, sc, true)
		return

	case "declaration":
		if w.looksLikeFunctionDeclaration(n) {
			w.handleFunction(n, sc, false)
		} else {
			w.handleVariable(n, sc)
		}
		return

	case "field_declaration":
		w.handleField(n, sc)
		return

	case "struct_specifier", "class_specifier", "union_specifier":
		w.handleRecord(n, sc)
		return

	case "type_definition":
		w.handleTypedef(n, sc)
		return

	case "alias_declaration":
		w.handleAlias(n, sc)
		return

	case "type_identifier":
		w.pendingTypeIDs = append(w.pendingTypeIDs, n)

	case "identifier":
		if n.Parent() != nil && n.Parent().Type() == "call_expression" && n.Parent().ChildByFieldName("function") == n {
			w.pendingRefs = append(w.pendingRefs, n)
		} else if !w.isDeclaratorName(n) {
			w.pendingRefs = append(w.pendingRefs, n)
		}
	}

	w.walkChildren(n, sc)
}

// handleInclude resolves an #include's target file against the current
// file's own directory (for quoted includes) and the compile command's
// -I/-isystem search path, then recursively parses it into this same
// walker before returning to the includer.
func (w *walker) handleInclude(n *sitter.Node) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	angled := pathNode.Type() == "system_lib_string"
	raw := w.text(pathNode)
	name := strings.Trim(raw, "\"<>")
	if name == "" {
		return
	}

	resolved, isSystem := w.resolveInclude(name, angled)
	if resolved == "" {
		return
	}
	// Errors from a header are swallowed by parseFile itself; a missing or
	// unparsable header degrades the analysis of that header's contents,
	// not the whole TU.
	_ = w.parseFile(resolved, isSystem || w.curSystem)
}

// resolveInclude looks for name the way a compiler driver does: a quoted
// include first tries the including file's own directory, then both quoted
// and angle-bracket includes fall through to the -I/-isystem search path in
// order. Angle-bracket resolution always marks the result a system header.
func (w *walker) resolveInclude(name string, angled bool) (path string, isSystem bool) {
	if !angled {
		candidate := filepath.Join(filepath.Dir(w.curFile), name)
		if fileExists(candidate) {
			return candidate, false
		}
	}
	for _, dir := range w.includeDirs {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, angled
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (w *walker) walkChildren(n *sitter.Node, sc scope) {
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i), sc)
	}
}

// isDeclaratorName reports whether an identifier node is itself the name
// being introduced by a declarator, rather than a use.
func (w *walker) isDeclaratorName(n *sitter.Node) bool {
	p := n.Parent()
	for p != nil {
		switch p.Type() {
		case "function_declarator", "init_declarator", "parameter_declaration",
			"field_identifier", "namespace_definition", "class_specifier",
			"struct_specifier", "type_definition":
			return true
		case "compound_statement":
			return false
		}
		p = p.Parent()
	}
	return false
}

func (w *walker) looksLikeFunctionDeclaration(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "function_declarator" {
			return true
		}
	}
	return false
}

func declaratorIdentifier(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "qualified_identifier", "type_identifier":
			return n
		}
		next := n.ChildByFieldName("declarator")
		if next == nil {
			for i := 0; i < int(n.ChildCount()); i++ {
				c := n.Child(i)
				if c.Type() == "identifier" || c.Type() == "field_identifier" {
					return c
				}
			}
			return nil
		}
		n = next
	}
	return nil
}

func (w *walker) handleFunction(n *sitter.Node, sc scope, isDefinition bool) {
	declarator := n.ChildByFieldName("declarator")
	fnDecl := declarator
	for fnDecl != nil && fnDecl.Type() != "function_declarator" {
		fnDecl = fnDecl.ChildByFieldName("declarator")
	}
	if fnDecl == nil {
		return
	}
	nameNode := declaratorIdentifier(fnDecl.ChildByFieldName("declarator"))
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)

	inline := false
	static := false
	for i := 0; i < int(n.ChildCount()); i++ {
		switch w.text(n.Child(i)) {
		case "inline":
			inline = true
		case "static":
			static = true
		}
	}

	d := &tsDecl{
		kind:        KindFunction,
		name:        name,
		qualified:   sc.qualify(name),
		external:    !static && !sc.anonymous,
		inline:      inline,
		classMethod: sc.inClass,
		globalish:   !sc.inClass,
		definition:  isDefinition,
		loc:         w.point(nameNode),
		end:         w.endPoint(n),
	}
	w.register(d)
}

func (w *walker) handleVariable(n *sitter.Node, sc scope) {
	static, extern := false, false
	for i := 0; i < int(n.ChildCount()); i++ {
		switch w.text(n.Child(i)) {
		case "static":
			static = true
		case "extern":
			extern = true
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() != "init_declarator" && child.Type() != "identifier" {
			continue
		}
		nameNode := declaratorIdentifier(child)
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)

		d := &tsDecl{
			kind:      KindVariable,
			name:      name,
			qualified: sc.qualify(name),
			external:  !static && !sc.anonymous,
			globalish: true,
			// An extern declaration without an initialiser only declares.
			definition: !extern || child.Type() == "init_declarator",
			loc:        w.point(nameNode),
			end:        w.endPoint(n),
		}
		w.register(d)
	}
}

func (w *walker) handleField(n *sitter.Node, sc scope) {
	declarator := n.ChildByFieldName("declarator")
	nameNode := declaratorIdentifier(declarator)
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	d := &tsDecl{
		kind:       KindVariable,
		name:       name,
		qualified:  sc.qualify(name),
		external:   false,
		field:      true,
		globalish:  false,
		definition: true,
		loc:        w.point(nameNode),
		end:        w.endPoint(n),
	}
	w.register(d)
}

func (w *walker) handleRecord(n *sitter.Node, sc scope) {
	nameNode := n.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = w.text(nameNode)
	}
	body := n.ChildByFieldName("body")

	d := &tsDecl{
		kind:       KindRecord,
		name:       name,
		qualified:  sc.qualify(name),
		external:   !sc.anonymous,
		globalish:  !sc.inClass,
		definition: body != nil,
		loc:        w.point(n),
		end:        w.endPoint(n),
	}
	if nameNode != nil {
		d.loc = w.point(nameNode)
	}
	w.register(d)

	if body != nil {
		inner := sc
		inner.inClass = true
		if name != "" {
			inner.namespaces = append(append([]string{}, sc.namespaces...), name)
		}
		w.walkChildren(body, inner)
	}
}

func (w *walker) handleTypedef(n *sitter.Node, sc scope) {
	typeNode := n.ChildByFieldName("type")
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == typeNode || !child.IsNamed() {
			continue
		}
		nameNode := declaratorIdentifier(child)
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		d := &tsDecl{
			kind:       KindTypedef,
			name:       name,
			qualified:  sc.qualify(name),
			external:   !sc.anonymous,
			globalish:  !sc.inClass,
			definition: true,
			loc:        w.point(nameNode),
			end:        w.endPoint(n),
		}
		w.register(d)
	}
}

func (w *walker) handleAlias(n *sitter.Node, sc scope) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	d := &tsDecl{
		kind:       KindTypedef,
		name:       name,
		qualified:  sc.qualify(name),
		external:   !sc.anonymous,
		globalish:  !sc.inClass,
		definition: true,
		loc:        w.point(nameNode),
		end:        w.endPoint(n),
	}
	w.register(d)
}

// linkDefinitions makes every declaration in a redeclaration chain point at
// the chain's one defining node (if any), so a forward declaration can tell
// "never defined" apart from "defined elsewhere in this chain" without
// re-walking the chain itself. Run once, after every file (main plus every
// transitively included header) has been walked, since a chain's members
// can legitimately span files.
func (w *walker) linkDefinitions() {
	for _, chain := range w.byName {
		var def *tsDecl
		for _, d := range chain {
			if d.definition {
				def = d
				break
			}
		}
		if def == nil {
			continue
		}
		for _, d := range chain {
			d.def = def
		}
	}
}

func (w *walker) lookup(name string) *tsDecl {
	chain := w.byName[name]
	if len(chain) == 0 {
		return nil
	}
	return chain[len(chain)-1]
}

// resolvePending drains the current file's queued type-identifier and
// identifier nodes into TypeLocations/DeclRefExprs. It must run before that
// file's tree-sitter tree closes, since the nodes it reads are only valid
// as long as the owning tree is alive; lookups against w.byName, however,
// may still resolve to a declaration registered from a different file (a
// header included earlier, or — once linkDefinitions runs later — a
// definition seen afterwards, via the chain's shared identity).
func (w *walker) resolvePending() {
	for _, n := range w.pendingTypeIDs {
		name := w.text(n)
		loc := &tsTypeLocation{loc: w.point(n), name: name, mainFile: w.mainFile}
		if d := w.lookup(name); d != nil {
			switch d.kind {
			case KindTypedef:
				loc.typedefT = d
			case KindRecord:
				loc.recordT = d
			}
		}
		w.typeLocs = append(w.typeLocs, loc)
	}

	for _, n := range w.pendingRefs {
		name := w.text(n)
		ref := &tsDeclRef{loc: w.point(n), name: name, target: w.lookup(name), mainFile: w.mainFile}
		w.refs = append(w.refs, ref)
	}
}

func (w *walker) unit() Unit {
	return &tsUnit{
		file:     w.mainFile,
		funcs:    w.funcs,
		vars:     w.vars,
		recs:     w.recs,
		tdefs:    w.tdefs,
		typeLocs: w.typeLocs,
		refs:     w.refs,
	}
}

type tsUnit struct {
	file     string
	funcs    []Decl
	vars     []Decl
	recs     []Decl
	tdefs    []Decl
	typeLocs []TypeLocation
	refs     []DeclRefExpr
}

func (u *tsUnit) MainFile() string              { return u.file }
func (u *tsUnit) Functions() []Decl             { return u.funcs }
func (u *tsUnit) Variables() []Decl             { return u.vars }
func (u *tsUnit) Records() []Decl               { return u.recs }
func (u *tsUnit) Typedefs() []Decl              { return u.tdefs }
func (u *tsUnit) TypeLocations() []TypeLocation { return u.typeLocs }
func (u *tsUnit) DeclRefExprs() []DeclRefExpr   { return u.refs }
