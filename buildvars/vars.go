// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

import (
	"runtime/debug"
)

const modulePath = "github.com/toeirei/walletkeeper"

// Set at link time, e.g.
// -ldflags "-X github.com/toeirei/walletkeeper/buildvars.Version=1.2.3".
var (
	Version   string
	GitCommit string
	BuildDate string
)

// VersionOrDefault returns Version if set, otherwise def.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}

// Resolve combines the link-time variables with the module build info. A nil
// info reads the running binary's own build info.
func Resolve(info *debug.BuildInfo) (version, commit, date string) {
	version = VersionOrDefault("dev")
	commit = GitCommit
	date = BuildDate

	if info == nil {
		var ok bool
		if info, ok = debug.ReadBuildInfo(); !ok {
			return version, commit, date
		}
	}

	if version == "dev" {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, dep := range info.Deps {
			if version != "dev" {
				break
			}
			if dep.Path == modulePath && dep.Version != "" {
				version = dep.Version
			}
		}
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "" && s.Value != "" {
				commit = s.Value
			}
		case "vcs.time":
			if date == "" && s.Value != "" {
				date = s.Value
			}
		}
	}
	return version, commit, date
}

// String formats Resolve(nil) as "version (commit) built: date".
func String() string {
	v, c, d := Resolve(nil)
	out := v
	if c != "" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}
