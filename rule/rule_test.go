package rule

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func str(s string) *string { return &s }

func mustParse(t *testing.T, src string) *Table {
	t.Helper()
	tab, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tab
}

const exampleTable = `
name: example
select:
  element: attribute
  idAttr: id
rules:
- element: MaxLength
  expr: 'Length ?? "100"'
  anchors:
  - after: Length
- element: IsSearchable
  value: "1"
  anchors:
  - after: MaxLength
  - last: true
`

func TestParse(t *testing.T) {
	tab := mustParse(t, exampleTable)
	if err := tab.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []*Rule{
		{Element: "MaxLength", Kind: Require, Expr: `Length ?? "100"`, Anchors: []Anchor{{After: "Length"}}},
		{Element: "IsSearchable", Kind: Require, Value: str("1"), Anchors: []Anchor{{After: "MaxLength"}, {Last: true}}},
	}
	if diff := cmp.Diff(want, tab.Rules, cmp.AllowUnexported(Rule{}), ignorePrograms); diff != "" {
		t.Errorf("rules (-want +got):\n%s", diff)
	}
	if !tab.Compiled() {
		t.Error("table not marked compiled")
	}
}

var ignorePrograms = cmp.FilterPath(func(p cmp.Path) bool {
	switch p.Last().String() {
	case ".when", ".expr":
		return true
	}
	return false
}, cmp.Ignore())

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no name", "select: {element: a}\n"},
		{"unknown field", "name: x\nbogus: 1\n"},
		{"not yaml", "name: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); !errors.Is(err, ErrBadRule) {
				t.Errorf("got %v, want ErrBadRule", err)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	sel := "select: {element: attribute}\n"
	tests := []struct {
		name string
		src  string
	}{
		{"no select", "name: x\nrules: [{element: A, value: '1', anchors: [{last: true}]}]\n"},
		{"no element", "name: x\n" + sel + "rules: [{value: '1', anchors: [{last: true}]}]\n"},
		{"bad kind", "name: x\n" + sel + "rules: [{element: A, kind: upsert, value: '1'}]\n"},
		{"require no value", "name: x\n" + sel + "rules: [{element: A, anchors: [{last: true}]}]\n"},
		{"require no anchor", "name: x\n" + sel + "rules: [{element: A, value: '1'}]\n"},
		{"set no value", "name: x\n" + sel + "rules: [{element: A, kind: set}]\n"},
		{"two anchor targets", "name: x\n" + sel + "rules: [{element: A, value: '1', anchors: [{after: B, last: true}]}]\n"},
		{"empty anchor", "name: x\n" + sel + "rules: [{element: A, value: '1', anchors: [{}]}]\n"},
		{"self anchor", "name: x\n" + sel + "rules: [{element: A, value: '1', anchors: [{after: A}]}]\n"},
		{"bad when", "name: x\n" + sel + "rules: [{element: A, kind: remove, when: 'Type =='}]\n"},
		{"bad expr", "name: x\n" + sel + "rules: [{element: A, kind: set, expr: '1 +'}]\n"},
		{"extends", "name: x\nextends: [cleanup]\n"},
		{"bad drop", "name: x\n" + sel + "drop: 'Type =='\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := mustParse(t, tt.src)
			if err := tab.Compile(); !errors.Is(err, ErrBadRule) {
				t.Errorf("got %v, want ErrBadRule", err)
			}
		})
	}
}

func TestEval(t *testing.T) {
	tab := mustParse(t, `
name: eval
select: {element: attribute}
rules:
- element: MaxLength
  when: 'Type in ["nvarchar", "memo"]'
  expr: 'IsPrimaryName == "1" ? "100" : Length'
  anchors: [{last: true}]
- element: IsFilterable
  expr: 'Type == "primarykey"'
  anchors: [{last: true}]
- element: Width
  expr: 2 * 21
  value: "0"
  anchors: [{last: true}]
- element: Owner
  when: present(attr.owner)
  expr: attr.owner
  anchors: [{last: true}]
`)
	if err := tab.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	maxLen, filt, width, owner := tab.Rules[0], tab.Rules[1], tab.Rules[2], tab.Rules[3]

	env := NewEnv(map[string]any{"Type": "nvarchar", "Length": "40"}, "f1", map[string]any{"owner": "me"})
	ok, err := maxLen.Applies(env)
	if err != nil || !ok {
		t.Fatalf("Applies = %v, %v", ok, err)
	}
	if v, ok, err := maxLen.Resolve(env); v != "40" || !ok || err != nil {
		t.Errorf("MaxLength = %q, %v, %v", v, ok, err)
	}
	if v, ok, _ := filt.Resolve(env); v != "0" || !ok {
		t.Errorf("IsFilterable = %q, %v", v, ok)
	}
	if v, _, _ := width.Resolve(env); v != "42" {
		t.Errorf("Width = %q", v)
	}
	if ok, _ := owner.Applies(env); !ok {
		t.Error("owner rule should apply")
	}
	if v, _, _ := owner.Resolve(env); v != "me" {
		t.Errorf("Owner = %q", v)
	}

	env = NewEnv(map[string]any{"Type": "lookup"}, "f2", map[string]any{})
	if ok, _ := maxLen.Applies(env); ok {
		t.Error("MaxLength should not apply to lookup")
	}
	if ok, _ := owner.Applies(env); ok {
		t.Error("owner rule should not apply without attribute")
	}
	env = NewEnv(map[string]any{"Type": "nvarchar"}, "f3", nil)
	if _, ok, err := maxLen.Resolve(env); ok || err != nil {
		t.Errorf("MaxLength without Length resolved: %v, %v", ok, err)
	}
}

func TestOverrides(t *testing.T) {
	tab := mustParse(t, exampleTable)
	got, err := tab.WithOverrides(map[string]map[string]any{
		"MaxLength":    {"expr": nil, "value": "255"},
		"IsSearchable": {"when": `Type != "lookup"`},
	})
	if err != nil {
		t.Fatalf("WithOverrides: %v", err)
	}
	if got.Rules[0].Expr != "" || got.Rules[0].Value == nil || *got.Rules[0].Value != "255" {
		t.Errorf("MaxLength override not applied: %s", got.Rules[0].Expr)
	}
	if diff := cmp.Diff([]Anchor{{After: "Length"}}, got.Rules[0].Anchors); diff != "" {
		t.Errorf("anchors (-want +got):\n%s", diff)
	}
	if got.Rules[1].When == "" {
		t.Error("IsSearchable when not applied")
	}
	if tab.Rules[0].Expr == "" {
		t.Error("override modified the source table")
	}
	if _, err := tab.WithOverrides(map[string]map[string]any{"Nope": {"value": "1"}}); !errors.Is(err, ErrBadRule) {
		t.Errorf("unmatched override: got %v, want ErrBadRule", err)
	}
}

func TestBuiltins(t *testing.T) {
	want := []string{"attribute-metadata", "cleanup", "dataverse", "primarykey", "string-fields", "system-fields"}
	names := Names()
	for _, n := range want {
		if Lookup(n) == nil {
			t.Errorf("built-in %q not registered (have %v)", n, names)
		}
	}
	for _, n := range want {
		t.Run(n, func(t *testing.T) {
			tab, err := Resolve(n)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(tab.Rules) == 0 {
				t.Error("no rules")
			}
			if tab.Select == nil || tab.Select.Element != "attribute" {
				t.Errorf("select = %v", tab.Select)
			}
		})
	}
}

func TestResolveDefault(t *testing.T) {
	def, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if def.Name != DefaultSet {
		t.Errorf("name = %q", def.Name)
	}
	n := 0
	for _, p := range Lookup(DefaultSet).Extends {
		n += len(Lookup(p).Rules)
	}
	if len(def.Rules) != n {
		t.Errorf("%d rules, want %d", len(def.Rules), n)
	}
	if def.Rules[0].Element != "SourceType" {
		t.Errorf("first rule %s, want attribute-metadata first", def.Rules[0])
	}
	if last := def.Rules[len(def.Rules)-1]; last.Key() != "nvarchar-format" {
		t.Errorf("last rule %s, want cleanup last", last)
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestResolveLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
name: base
select: {element: attribute, idAttr: PhysicalName}
rules:
- element: A
  value: "1"
  anchors: [{last: true}]
`)
	local := writeFile(t, dir, "local.yaml", `
name: local
extends: [base.yaml]
rules:
- element: B
  value: "2"
  anchors: [{after: A}]
overrides:
  A: {value: "9"}
`)
	site := writeFile(t, dir, "site.yaml", `
name: site
overrides:
  B: {value: "3"}
  A: {when: 'id != "skip"'}
`)
	tab, err := Resolve(local + ", " + site)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var got []string
	for _, r := range tab.Rules {
		got = append(got, r.Element+"="+*r.Value)
	}
	if diff := cmp.Diff([]string{"A=9", "B=3"}, got); diff != "" {
		t.Errorf("rules (-want +got):\n%s", diff)
	}
	if tab.Rules[0].When == "" {
		t.Error("second layer override of A lost")
	}
	if !strings.Contains(tab.Name, "site.yaml") {
		t.Errorf("name = %q", tab.Name)
	}
}

func TestDrop(t *testing.T) {
	dir := t.TempDir()
	extra := writeFile(t, dir, "extra.yaml", `
name: extra
drop: 'attr.keep == "no"'
`)
	tab, err := Resolve("dataverse, drop-system-fields, " + extra)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := `(IsCustomField == "0" && Type != "primarykey") || (attr.keep == "no")`
	if tab.Drop != want {
		t.Errorf("drop = %q, want %q", tab.Drop, want)
	}
	tests := []struct {
		name   string
		values map[string]any
		attrs  map[string]any
		want   bool
	}{
		{"custom", map[string]any{"IsCustomField": "1", "Type": "nvarchar"}, nil, false},
		{"system", map[string]any{"IsCustomField": "0", "Type": "datetime"}, nil, true},
		{"primary key", map[string]any{"IsCustomField": "0", "Type": "primarykey"}, nil, false},
		{"unmarked", map[string]any{"Type": "nvarchar"}, nil, false},
		{"attribute", map[string]any{"IsCustomField": "1"}, map[string]any{"keep": "no"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tab.Drops(NewEnv(tt.values, "f", tt.attrs))
			if err != nil {
				t.Fatalf("Drops: %v", err)
			}
			if got != tt.want {
				t.Errorf("Drops = %v, want %v", got, tt.want)
			}
		})
	}

	def, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if def.Drop != "" {
		t.Errorf("default set drops %q", def.Drop)
	}
	if ok, err := def.Drops(NewEnv(map[string]any{"IsCustomField": "0"}, "f", nil)); ok || err != nil {
		t.Errorf("default Drops = %v, %v", ok, err)
	}
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: a\nextends: [b.yaml]\n")
	writeFile(t, dir, "b.yaml", "name: b\nextends: [a.yaml]\n")
	other := writeFile(t, dir, "other.yaml", `
name: other
select: {element: field}
rules: [{element: X, kind: remove}]
`)
	if _, err := Resolve(filepath.Join(dir, "a.yaml")); !errors.Is(err, ErrBadRule) || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("cycle: got %v", err)
	}
	if _, err := Resolve("no-such-set"); !errors.Is(err, ErrNoSuchTable) {
		t.Errorf("unknown: got %v, want ErrNoSuchTable", err)
	}
	if _, err := Resolve("cleanup," + other); !errors.Is(err, ErrBadRule) {
		t.Errorf("conflicting select: got %v, want ErrBadRule", err)
	}
	if err := Register(&Table{Name: "cleanup"}); !errors.Is(err, ErrTableExists) {
		t.Errorf("duplicate register: got %v, want ErrTableExists", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	tab, err := Resolve("primarykey")
	if err != nil {
		t.Fatal(err)
	}
	d, err := Marshal(tab)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(d)
	if err != nil {
		t.Fatalf("Parse(Marshal): %v\n%s", err, d)
	}
	if err := back.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(back.Rules) != len(tab.Rules) {
		t.Errorf("%d rules after round trip, want %d", len(back.Rules), len(tab.Rules))
	}
}
