package astutil

import "testing"

func TestDialectForPath(t *testing.T) {
	cases := map[string]Dialect{
		"foo.ts":  DialectTypeScript,
		"foo.tsx": DialectTSX,
		"foo.jsx": DialectTSX,
		"foo.js":  DialectJavaScript,
		"foo.mjs": DialectJavaScript,
	}
	for path, want := range cases {
		if got := DialectForPath(path); got != want {
			t.Errorf("DialectForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestParseJavaScriptFindsCallExpressions(t *testing.T) {
	src := []byte(`console.log("hi"); eval("danger");`)
	tree, err := Parse("file.js", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	calls := FindAll(tree.Root(), "call_expression")
	if len(calls) != 2 {
		t.Fatalf("expected 2 call expressions, got %d", len(calls))
	}

	names := map[string]bool{}
	for _, c := range calls {
		names[CalleeName(c, tree.Source)] = true
	}
	if !names["console.log"] || !names["eval"] {
		t.Errorf("expected console.log and eval callees, got %v", names)
	}
}

func TestParseTSXFindsJSXElements(t *testing.T) {
	src := []byte(`function List() { return <div>{items.map(i => <Item key={i.id} />)}</div>; }`)
	tree, err := Parse("List.tsx", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	elements := FindAll(tree.Root(), "jsx_self_closing_element")
	if len(elements) == 0 {
		t.Fatal("expected at least one self-closing JSX element")
	}
}

func TestEnclosingOfTypeFindsAncestor(t *testing.T) {
	src := []byte(`function f() { if (true) { eval("x"); } }`)
	tree, err := Parse("f.js", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	calls := FindAll(tree.Root(), "call_expression")
	if len(calls) != 1 {
		t.Fatalf("expected 1 call expression, got %d", len(calls))
	}
	fn := EnclosingOfType(calls[0], "function_declaration")
	if fn == nil {
		t.Fatal("expected to find enclosing function_declaration")
	}
}
