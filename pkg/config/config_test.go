package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	s, err := Load(Options{SearchPaths: []string{dir}, EnvFile: filepath.Join(dir, ".env")})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Root != "config" {
		t.Errorf("expected root 'config', got %q", s.Root)
	}
	if s.DefaultTree != "default" {
		t.Errorf("expected default_tree 'default', got %q", s.DefaultTree)
	}
	if s.Extension != ".yml" {
		t.Errorf("expected extension '.yml', got %q", s.Extension)
	}
	if s.IdentityKey != "uuid" {
		t.Errorf("expected identity_key 'uuid', got %q", s.IdentityKey)
	}
	if s.Manifest.Prefix != "config_split.config_split" {
		t.Errorf("unexpected manifest prefix %q", s.Manifest.Prefix)
	}
	if s.Manifest.CreateMissing {
		t.Error("create_missing must default to false")
	}
	if s.File != "" {
		t.Errorf("no settings file expected, got %q", s.File)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "splitmerge.yaml"), `
root: sync
default_tree: base
extension: yaml
ignore:
  - core.extension.*
manifest:
  create_missing: true
migration:
  module: my_site
  update_number: 9100
`)

	s, err := Load(Options{SearchPaths: []string{dir}, EnvFile: filepath.Join(dir, ".env")})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Root != "sync" || s.DefaultTree != "base" {
		t.Errorf("unexpected root/default_tree: %q/%q", s.Root, s.DefaultTree)
	}
	if s.Extension != ".yaml" {
		t.Errorf("extension should be normalized to '.yaml', got %q", s.Extension)
	}
	if len(s.Ignore) != 1 || s.Ignore[0] != "core.extension.*" {
		t.Errorf("unexpected ignore list %v", s.Ignore)
	}
	if !s.Manifest.CreateMissing {
		t.Error("create_missing should be true")
	}
	if s.Manifest.Prefix != "config_split.config_split" {
		t.Errorf("unset keys keep defaults, got prefix %q", s.Manifest.Prefix)
	}
	if s.Migration.Module != "my_site" || s.Migration.UpdateNumber != 9100 {
		t.Errorf("unexpected migration settings %+v", s.Migration)
	}
	if !strings.HasSuffix(s.File, "splitmerge.yaml") {
		t.Errorf("expected File to point at splitmerge.yaml, got %q", s.File)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "splitmerge.yaml"), "identity_key: uuid\n")
	t.Setenv("SPLITMERGE_IDENTITY_KEY", "_core")
	t.Setenv("SPLITMERGE_MANIFEST_CREATE_MISSING", "true")

	s, err := Load(Options{SearchPaths: []string{dir}, EnvFile: filepath.Join(dir, ".env")})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.IdentityKey != "_core" {
		t.Errorf("environment should win over file, got %q", s.IdentityKey)
	}
	if !s.Manifest.CreateMissing {
		t.Error("SPLITMERGE_MANIFEST_CREATE_MISSING not applied")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "SPLITMERGE_ROOT=exported\n")
	t.Cleanup(func() { _ = os.Unsetenv("SPLITMERGE_ROOT") })

	s, err := Load(Options{SearchPaths: []string{dir}, EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Root != "exported" {
		t.Errorf("expected root from .env, got %q", s.Root)
	}
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(Options{File: filepath.Join(dir, "nope.yaml"), EnvFile: filepath.Join(dir, ".env")})
	if err == nil {
		t.Fatal("expected an error for a missing explicit settings file")
	}
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.yaml")
	writeFile(t, file, "identity_key: uuid\nmanifest:\n  create_missing: maybe\n")

	_, err := Load(Options{File: file, EnvFile: filepath.Join(dir, ".env")})
	if err == nil {
		t.Fatal("expected schema validation to fail")
	}
	var se *SettingsError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SettingsError, got %T", err)
	}
	if se.File != file {
		t.Errorf("expected error to name %s, got %s", file, se.File)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults", func(*Settings) {}, ""},
		{"empty root", func(s *Settings) { s.Root = " " }, "root"},
		{"empty default tree", func(s *Settings) { s.DefaultTree = "" }, "default_tree"},
		{"empty identity", func(s *Settings) { s.IdentityKey = "" }, "identity_key"},
		{"bad extension", func(s *Settings) { s.Extension = ".ini" }, "unsupported extension"},
		{"bare extension", func(s *Settings) { s.Extension = "json" }, ""},
		{"negative update", func(s *Settings) { s.Migration.UpdateNumber = -1 }, "update_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultsAreIndependentCopies(t *testing.T) {
	a := Defaults()
	a.Ignore = append(a.Ignore, "x")
	a.Root = "changed"

	b := Defaults()
	if b.Root != "config" || len(b.Ignore) != 0 {
		t.Errorf("Defaults() leaked a mutation: %+v", b)
	}
}
