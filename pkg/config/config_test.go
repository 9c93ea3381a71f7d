package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return os.ErrInvalid
	}
	return nil
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("ZETTL_TEST_TOKEN", "s3cret")
	p := filepath.Join(t.TempDir(), "c.yml")
	_ = os.WriteFile(p, []byte("name: z\ntoken: ${ZETTL_TEST_TOKEN}\n"), 0o644)

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Token != "s3cret" {
		t.Errorf("token = %q", s.Token)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.yml")
	_ = os.WriteFile(p, []byte("token: x\n"), 0o644)
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yml")
	_ = os.WriteFile(def, []byte("name: fallback\n"), 0o644)

	var s sample
	if err := LoadWithDefaults(filepath.Join(dir, "missing.yml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Name != "fallback" {
		t.Errorf("name = %q", s.Name)
	}
	if err := LoadWithDefaults(filepath.Join(dir, "missing.yml"), "", &s); err == nil {
		t.Fatal("expected error without default file")
	}
}

func TestSave_CreatesDirs(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "c.yml")
	if err := Save(p, &sample{Name: "z"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "name: z") {
		t.Errorf("saved = %q", data)
	}
}
