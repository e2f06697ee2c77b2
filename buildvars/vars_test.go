package buildvars

import (
	"runtime/debug"
	"testing"
)

func TestResolve(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	info := &debug.BuildInfo{
		Main: debug.Module{Path: modulePath, Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	Version = ""
	v, c, d := Resolve(info)
	if v != "v1.4.0" || c != "abc123" || d != "2026-01-02T03:04:05Z" {
		t.Fatalf("Resolve = %q %q %q", v, c, d)
	}

	Version = "9.9.9"
	if v, _, _ := Resolve(info); v != "9.9.9" {
		t.Fatalf("link-time version must win, got %q", v)
	}
}

func TestResolve_FromDeps(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = ""

	info := &debug.BuildInfo{
		Main: debug.Module{Path: "example.com/wrapper", Version: "(devel)"},
		Deps: []*debug.Module{{Path: modulePath, Version: "v0.3.1"}},
	}
	if v, _, _ := Resolve(info); v != "v0.3.1" {
		t.Fatalf("version = %q", v)
	}
}
