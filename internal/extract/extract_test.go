package extract

import (
	"testing"

	"neurolint/internal/rule"
)

func TestConfigExtractsStrictModeScenario(t *testing.T) {
	before := `{"compilerOptions":{"strict":false}}`
	after := `{"compilerOptions":{"strict":true}}`

	rules := Config("tsconfig.json", before, after)
	var found *rule.Rule
	for _, r := range rules {
		if r.Category == rule.CategoryTSConfigStrict {
			found = r
		}
	}
	if found == nil {
		t.Fatalf("expected a tsconfig-strict rule, got %+v", rules)
	}
	if found.Description != "Enable TypeScript strict mode" {
		t.Errorf("unexpected description: %q", found.Description)
	}
	if found.Confidence < 0.90 {
		t.Errorf("expected confidence >= 0.90, got %f", found.Confidence)
	}
	re, err := found.Compiled()
	if err != nil {
		t.Fatalf("Compiled: %v", err)
	}
	if !re.MatchString(`"strict":false`) {
		t.Error("expected rule pattern to match the literal before-text")
	}
}

func TestConfigDetectsNewPackageScript(t *testing.T) {
	before := `{"scripts":{"build":"next build"}}`
	after := `{"scripts":{"build":"next build","lint":"next lint"}}`
	rules := Config("package.json", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategoryPackageScripts {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a package-scripts rule, got %+v", rules)
	}
}

func TestConfigDetectsAddedDependency(t *testing.T) {
	before := `{"dependencies":{"react":"18.0.0"}}`
	after := `{"dependencies":{"react":"18.0.0","zod":"3.0.0"}}`
	rules := Config("package.json", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategoryPackageAddDep {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a package-add-dep rule, got %+v", rules)
	}
}

func TestConfigSwallowsNonJSONWithoutPanicking(t *testing.T) {
	rules := Config("tsconfig.json", "not json {{{", "also not json")
	if rules != nil {
		t.Errorf("expected nil rules for unparsable JSON, got %+v", rules)
	}
}

func TestComponentDetectsAddedKeyProp(t *testing.T) {
	before := "items.map(item => <Item value={item.value} />)"
	after := "items.map(item => <Item value={item.value} key={item.id} />)"
	rules := Component("List.tsx", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategoryJSXKeyProp {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a jsx-key-prop rule, got %+v", rules)
	}
}

func TestComponentDetectsUseClientAdditionForHookUsingFile(t *testing.T) {
	before := "import { useState } from 'react';\nfunction Counter() { useState(0); }\n"
	after := "'use client';\nimport { useState } from 'react';\nfunction Counter() { useState(0); }\n"
	rules := Component("Counter.tsx", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategoryComponentConversion && r.Description == "Add 'use client' directive to hook-using component" {
			found = true
			if r.Confidence < 0.90 {
				t.Errorf("expected high-confidence use-client rule, got %f", r.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("expected a use-client directive rule, got %+v", rules)
	}
}

func TestComponentSkipsUseClientAdditionWithoutHooks(t *testing.T) {
	before := "function Static() { return 1; }\n"
	after := "'use client';\nfunction Static() { return 1; }\n"
	rules := Component("Static.tsx", before, after)

	for _, r := range rules {
		if r.Description == "Add 'use client' directive to hook-using component" {
			t.Errorf("expected no use-client rule for hook-free file, got %+v", rules)
		}
	}
}

func TestComponentDetectsForwardRefMigration(t *testing.T) {
	before := "const Input = forwardRef((props, ref) => <input ref={ref} {...props} />);"
	after := "const Input = (props) => <input ref={props.ref} {...props} />;"
	rules := Component("Input.tsx", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategoryReact19ForwardRef {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a react19-forwardRef rule, got %+v", rules)
	}
}

func TestGenericDetectsConsoleRemoval(t *testing.T) {
	before := "function f() {\n  console.log('debug');\n  return 1;\n}\n"
	after := "function f() {\n  return 1;\n}\n"
	rules := Generic("f.ts", before, after)

	found := false
	for _, r := range rules {
		if r.Description == "Remove console statement" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a console-removal rule, got %+v", rules)
	}
}

func TestGenericDetectsDangerousExpressionRemoval(t *testing.T) {
	before := "function f() {\n  eval(userInput);\n  return 1;\n}\n"
	after := "function f() {\n  return 1;\n}\n"
	rules := Generic("f.ts", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategorySecurity {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a security rule for eval removal, got %+v", rules)
	}
}

func TestGenericDetectsImportAddition(t *testing.T) {
	before := "const x = 1;\n"
	after := "import { z } from 'zod';\nconst x = 1;\n"
	rules := Generic("f.ts", before, after)

	found := false
	for _, r := range rules {
		if r.Category == rule.CategoryImport {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an import rule, got %+v", rules)
	}
}

func TestIsConfigTargetDetectsByContentAndPath(t *testing.T) {
	if !IsConfigTarget("tsconfig.json", `{"compilerOptions":{}}`, "") {
		t.Error("expected compilerOptions content to be detected as config")
	}
	if !IsConfigTarget("next.config.js", "", "") {
		t.Error("expected next.config.js path to be detected as config")
	}
	if IsConfigTarget("App.tsx", "const x = 1", "const x = 2") {
		t.Error("expected a plain component file not to be detected as config")
	}
}
