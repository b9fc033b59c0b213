package registry

import (
	"slices"
	"testing"
)

func lookupOf(ids ...string) Lookup {
	return func(id string) (Definition, bool) {
		if slices.Contains(ids, id) {
			return Definition{ID: id}, true
		}
		return Definition{}, false
	}
}

func TestTrimNumericSuffix(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"sticky-note-3", "sticky-note", true},
		{"sticky-note-1-2", "sticky-note-1", true},
		{"sticky-note", "sticky-note", false},
		{"note-", "note-", false},
		{"-12", "-12", false},
		{"score100", "score100", false},
		{"a-1b", "a-1b", false},
	}
	for _, tt := range tests {
		got, ok := TrimNumericSuffix(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("TrimNumericSuffix(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTemplateCandidates(t *testing.T) {
	got := TemplateCandidates("tpl-sticky-note-1-2")
	want := []string{"sticky-note-1-2", "sticky-note-1", "sticky-note"}
	if !slices.Equal(got, want) {
		t.Errorf("TemplateCandidates() = %v, want %v", got, want)
	}
	if got := TemplateCandidates("sticky-note-1"); got != nil {
		t.Errorf("TemplateCandidates(non-template) = %v, want nil", got)
	}
}

func TestResolve(t *testing.T) {
	lookup := lookupOf("sticky-note", "photo", "tpl-photo-1")

	tests := []struct {
		name   string
		id     string
		want   string
		wantOK bool
	}{
		{"exact", "sticky-note", "sticky-note", true},
		{"base id", "sticky-note-7", "sticky-note", true},
		{"instance of template", "tpl-photo-1-3", "tpl-photo-1", true},
		{"template falls back to builtin", "tpl-sticky-note-4", "sticky-note", true},
		{"deep template chain", "tpl-sticky-note-4-1-9", "sticky-note", true},
		{"unknown", "ghost-1", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := Resolve(tt.id, lookup)
			if ok != tt.wantOK || def.ID != tt.want {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.id, def.ID, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveStrategyOrder(t *testing.T) {
	lookup := lookupOf("note", "note-1")

	def, _ := Resolve("note-1", lookup)
	if def.ID != "note-1" {
		t.Errorf("exact match should win, got %q", def.ID)
	}

	def, ok := Resolve("note-1", lookup, BaseID)
	if !ok || def.ID != "note" {
		t.Errorf("Resolve with BaseID only = (%q, %v), want (note, true)", def.ID, ok)
	}
}
