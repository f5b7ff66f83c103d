package wikilink

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw   string
		id    string
		title string
		ok    bool
	}{
		{"[[p1|Parent Corp]]", "p1", "Parent Corp", true},
		{"[[p1]]", "p1", "", true},
		{"[[ p1 | Parent ]]", "p1", "Parent", true},
		{"see [[p1|Parent]] inline", "p1", "Parent", true},
		{"plain text", "", "", false},
		{"[[|no id]]", "", "", false},
		{"[[ ]]", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		id, title, ok := Parse(c.raw)
		if id != c.id || title != c.title || ok != c.ok {
			t.Errorf("Parse(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.raw, id, title, ok, c.id, c.title, c.ok)
		}
	}
}

func TestID(t *testing.T) {
	if got := ID("[[org-7|ACME]]"); got != "org-7" {
		t.Errorf("ID = %q, want org-7", got)
	}
	if got := ID("no link here"); got != "" {
		t.Errorf("ID = %q, want empty", got)
	}
}

func TestIDs_OrderAndSkip(t *testing.T) {
	raws := []string{"[[s1|S1]]", "not a link", "[[s2|S2]]", "[[]]", "[[s3]]"}
	got := IDs(raws)
	want := []string{"s1", "s2", "s3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
}

func TestIDs_Empty(t *testing.T) {
	if got := IDs(nil); got != nil {
		t.Errorf("IDs(nil) = %v, want nil", got)
	}
}

func TestReplaceAll(t *testing.T) {
	repl := func(id, title string) string {
		if title == "" {
			title = id
		}
		return "<" + id + ":" + title + ">"
	}
	got := ReplaceAll("see [[a|Alpha]] and [[b]], not [[|broken]]", repl)
	want := "see <a:Alpha> and <b:b>, not [[|broken]]"
	if got != want {
		t.Errorf("ReplaceAll = %q, want %q", got, want)
	}
}

func TestReplaceAll_NoLinks(t *testing.T) {
	in := "plain text without references"
	if got := ReplaceAll(in, func(id, _ string) string { return id }); got != in {
		t.Errorf("ReplaceAll = %q, want input unchanged", got)
	}
}
