package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFlattenYAMLAndLoadKeys(t *testing.T) {
	m := map[string]any{
		"top": map[string]any{
			"sub": "value",
			"arr": []any{"one", "two"},
		},
		"other": "v",
	}
	keys := make(map[string]struct{})
	flattenYAML("", m, keys)
	if _, ok := keys["top.sub"]; !ok {
		t.Fatalf("expected top.sub in keys")
	}
	if _, ok := keys["top.arr[0]"]; !ok {
		t.Fatalf("expected top.arr[0] in keys")
	}

	p := filepath.Join(t.TempDir(), "test.yaml")
	data, _ := yaml.Marshal(m)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	got, err := loadKeysFromLocale(p)
	if err != nil {
		t.Fatalf("loadKeysFromLocale failed: %v", err)
	}
	if _, ok := got["top.sub"]; !ok {
		t.Fatalf("expected loaded key top.sub")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "a.go"), `package pkg
func f() {
	_ = i18n.T("cli.used")
	_ = i18n.TLang(r.Header.Get("Accept-Language"), "error.used")
	_ = "error.literal"
	_ = "database.type"
	_ = i18n.T("cli.undefined")
}`)
	writeFile(t, filepath.Join(root, "pkg", "a_test.go"), `package pkg
var _ = i18n.T("cli.only_in_tests")`)
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(locales, "en.yaml"), "cli.used: a\nerror.used: b\nerror.literal: c\ncli.orphan: d\n")
	writeFile(t, filepath.Join(locales, "de.yaml"), "cli.used: a\nerror.used: b\ncli.orphan: d\n")

	r, err := lint(root, locales, "en.yaml")
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if strings.Join(r.Undefined, ",") != "cli.undefined" {
		t.Errorf("undefined = %v", r.Undefined)
	}
	if strings.Join(r.Orphaned, ",") != "cli.orphan" {
		t.Errorf("orphaned = %v", r.Orphaned)
	}
	if strings.Join(r.Missing["de.yaml"], ",") != "error.literal" {
		t.Errorf("missing = %v", r.Missing)
	}
	if !r.failed() {
		t.Error("expected failure")
	}

	var buf bytes.Buffer
	printReport(&buf, r)
	if !strings.Contains(buf.String(), "Missing in de.yaml") {
		t.Errorf("report:\n%s", buf.String())
	}
}

func TestLint_RepositoryLocalesConsistent(t *testing.T) {
	root := filepath.Join("..", "..")
	r, err := lint(root, filepath.Join(root, localesDir), primaryLocale)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if r.failed() {
		var buf bytes.Buffer
		printReport(&buf, r)
		t.Fatalf("locale problems:\n%s", buf.String())
	}
}
