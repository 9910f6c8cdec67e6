package ignore

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestMatcherPatterns(t *testing.T) {
	m := New([]string{
		"# comments are skipped",
		"",
		"*.bak.yml",
		"child1/devel.*.yml",
		"!keep.bak.yml",
		"scratch/",
	})

	tests := []struct {
		tree, file string
		want       bool
	}{
		{"parent", "system.site.yml", false},
		{"parent", "old.bak.yml", true},
		{"parent", "keep.bak.yml", false},
		{"child1", "devel.settings.yml", true},
		{"child2", "devel.settings.yml", false},
	}
	for _, tt := range tests {
		if got := m.IsIgnored(tt.tree, tt.file); got != tt.want {
			t.Errorf("IsIgnored(%q, %q) = %v, want %v", tt.tree, tt.file, got, tt.want)
		}
	}

	if !m.IsIgnoredTree("scratch") {
		t.Error("expected scratch tree to be ignored")
	}
	if m.IsIgnoredTree("parent") {
		t.Error("parent tree should not be ignored")
	}
	if got := len(m.Patterns()); got != 4 {
		t.Errorf("expected 4 patterns, got %d", got)
	}
}

func TestLoad(t *testing.T) {
	fs := memfs.New()

	m, err := Load(fs)
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if m.IsIgnored("parent", "a.yml") {
		t.Error("empty matcher should ignore nothing")
	}

	if err := util.WriteFile(fs, FileName, []byte("*.local.yml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.IsIgnored("parent", "settings.local.yml") {
		t.Error("expected settings.local.yml to be ignored")
	}
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	if m.IsIgnored("parent", "a.yml") || m.IsIgnoredTree("parent") {
		t.Error("nil matcher should ignore nothing")
	}
	if m.Patterns() != nil {
		t.Error("nil matcher has no patterns")
	}
}
