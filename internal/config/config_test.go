package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Get("user", "name"); ok {
		t.Error("empty config unexpectedly has user.name set")
	}
}

func TestSetGetAndSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := New()
	cfg.Set("user", "name", "Ada Lovelace")
	cfg.Set("user", "email", "ada@example.com")
	cfg.Set("core", "editor", "vim")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := reloaded.Get("user", "name"); !ok || v != "Ada Lovelace" {
		t.Errorf("user.name = %q, %v, want Ada Lovelace, true", v, ok)
	}
	if v, ok := reloaded.Get("USER", "EMAIL"); !ok || v != "ada@example.com" {
		t.Errorf("lookup should be case-insensitive: got %q, %v", v, ok)
	}
	if v, _ := reloaded.Get("core", "editor"); v != "vim" {
		t.Errorf("core.editor = %q, want vim", v)
	}
}

func TestLoad_IgnoresCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "# a comment\n\n[user]\n\tname = Bob\n; another comment\n\temail = bob@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := cfg.Get("user", "name"); !ok || v != "Bob" {
		t.Errorf("user.name = %q, %v, want Bob, true", v, ok)
	}
	if v, ok := cfg.Get("user", "email"); !ok || v != "bob@example.com" {
		t.Errorf("user.email = %q, %v, want bob@example.com, true", v, ok)
	}
}

func TestResolveIdentity_PrefersEnvOverConfig(t *testing.T) {
	t.Setenv("PYGIT_AUTHOR_NAME", "Env Name")
	t.Setenv("PYGIT_AUTHOR_EMAIL", "env@example.com")

	cfg := New()
	cfg.Set("user", "name", "Config Name")
	cfg.Set("user", "email", "config@example.com")

	id, err := ResolveIdentity(cfg)
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if id.Name != "Env Name" || id.Email != "env@example.com" {
		t.Errorf("ResolveIdentity = %+v, want env values", id)
	}
}

func TestResolveIdentity_FallsBackToConfig(t *testing.T) {
	t.Setenv("PYGIT_AUTHOR_NAME", "")
	t.Setenv("PYGIT_AUTHOR_EMAIL", "")

	cfg := New()
	cfg.Set("user", "name", "Config Name")
	cfg.Set("user", "email", "config@example.com")

	id, err := ResolveIdentity(cfg)
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if id.Name != "Config Name" || id.Email != "config@example.com" {
		t.Errorf("ResolveIdentity = %+v, want config values", id)
	}
}

func TestResolveIdentity_ErrorsWhenUnset(t *testing.T) {
	t.Setenv("PYGIT_AUTHOR_NAME", "")
	t.Setenv("PYGIT_AUTHOR_EMAIL", "")

	if _, err := ResolveIdentity(New()); err == nil {
		t.Error("ResolveIdentity should fail when no identity is configured anywhere")
	}
}
