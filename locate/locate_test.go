package locate

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const entityDoc = `<?xml version="1.0" encoding="utf-8"?>
<ImportExportXml>
  <Entities>
    <Entity>
      <attributes>
        <attribute PhysicalName="pm_Name">
          <Type>nvarchar</Type>
          <Length>100</Length>
        </attribute>
        <attribute PhysicalName="pm_StaffMemberId">
          <Type>primarykey</Type>
        </attribute>
        <attribute PhysicalName="CreatedBy">
          <Type>lookup</Type>
        </attribute>
      </attributes>
    </Entity>
  </Entities>
</ImportExportXml>
`

func ids(frags []Fragment) []string {
	res := make([]string, len(frags))
	for i := range frags {
		res[i] = frags[i].ID
	}
	return res
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name string
		sel  Selector
		want []string
	}{
		{
			name: "all attributes",
			sel:  Selector{Element: "attribute", IDAttr: "PhysicalName"},
			want: []string{"pm_Name", "pm_StaffMemberId", "CreatedBy"},
		},
		{
			name: "glob",
			sel:  Selector{Element: "attribute", IDAttr: "PhysicalName", Match: "pm_*"},
			want: []string{"pm_Name", "pm_StaffMemberId"},
		},
		{
			name: "index ids",
			sel:  Selector{Element: "attribute"},
			want: []string{"attribute[0]", "attribute[1]", "attribute[2]"},
		},
		{
			name: "not found",
			sel:  Selector{Element: "relationship"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags, err := Locate([]byte(entityDoc), tt.sel)
			if err != nil {
				t.Fatalf("Locate: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(frags)); diff != "" {
				t.Errorf("ids (-want +got):\n%s", diff)
			}
			for _, f := range frags {
				if got := entityDoc[f.Start:f.End]; got != string(f.Text) {
					t.Errorf("%s: text does not match span", f.ID)
				}
				if !strings.HasPrefix(string(f.Text), "<attribute") || !strings.HasSuffix(string(f.Text), "</attribute>") {
					t.Errorf("%s: bad span %q", f.ID, f.Text)
				}
			}
		})
	}
}

func TestLocateLine(t *testing.T) {
	frags, err := Locate([]byte(entityDoc), Selector{Element: "attribute", IDAttr: "PhysicalName"})
	if err != nil {
		t.Fatal(err)
	}
	if frags[0].Line != 6 {
		t.Errorf("line: got %d want 6", frags[0].Line)
	}
}

func TestLocateNested(t *testing.T) {
	doc := `<root><section id="a"><section id="b"><x/></section><y/></section><section id="c"/></root>`
	frags, err := Locate([]byte(doc), Selector{Element: "section", IDAttr: "id"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids(frags)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	want := `<section id="a"><section id="b"><x/></section><y/></section>`
	if got := string(frags[0].Text); got != want {
		t.Errorf("outer fragment: got %q want %q", got, want)
	}
	if got := string(frags[1].Text); got != `<section id="c"/>` {
		t.Errorf("self closing fragment: got %q", got)
	}
}

func TestLocateBOM(t *testing.T) {
	doc := "\xef\xbb\xbf<root><a id=\"x\">1</a></root>"
	frags, err := Locate([]byte(doc), Selector{Element: "a", IDAttr: "id"})
	if err != nil {
		t.Fatal(err)
	}
	if len(frags) != 1 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if got := doc[frags[0].Start:frags[0].End]; got != `<a id="x">1</a>` {
		t.Errorf("span: %q", got)
	}
}

func TestLocateMalformed(t *testing.T) {
	doc := `<root>
<attribute PhysicalName="f1">
  <CanModifyAdditionalSettings>1</CanModifyAdditionalSettings>
  </CanModifyAdditionalSettings>
</attribute>
</root>`
	_, err := Locate([]byte(doc), Selector{Element: "attribute", IDAttr: "PhysicalName"})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	var sErr *SyntaxError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if sErr.Fragment != "f1" {
		t.Errorf("fragment: got %q want f1", sErr.Fragment)
	}
	if sErr.Line != 4 {
		t.Errorf("line: got %d want 4", sErr.Line)
	}
}

func TestSelectorCheck(t *testing.T) {
	bad := []Selector{
		{},
		{Element: "a", Match: "x*"},
		{Element: "a", IDAttr: "id", Match: "["},
	}
	for _, sel := range bad {
		if _, err := Locate([]byte("<a/>"), sel); !errors.Is(err, ErrBadSelector) {
			t.Errorf("%+v: expected ErrBadSelector, got %v", sel, err)
		}
	}
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		doc string
		ok  bool
	}{
		{`<a><b>1</b></a>`, true},
		{"<?xml version=\"1.0\"?>\n<a/>\n", true},
		{`<a><b>1</a>`, false},
		{`<a/><b/>`, false},
		{``, false},
		{`<a><b>1<c>0</c></a>`, false},
	}
	for _, tt := range tests {
		err := WellFormed([]byte(tt.doc))
		if tt.ok && err != nil {
			t.Errorf("%q: unexpected error %v", tt.doc, err)
		}
		if !tt.ok && !errors.Is(err, ErrMalformed) {
			t.Errorf("%q: expected ErrMalformed, got %v", tt.doc, err)
		}
	}
}
