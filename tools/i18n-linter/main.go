// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks translation keys for consistency. It scans the Go
// sources for message ids, compares them with the primary locale and makes
// sure every other locale defines the same keys.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// report collects the findings of one run.
type report struct {
	Undefined []string            // used in code, missing from the primary locale
	Orphaned  []string            // in the primary locale, never used
	Missing   map[string][]string // locale file -> keys missing there
}

func (r report) failed() bool {
	if len(r.Undefined) > 0 {
		return true
	}
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

func main() {
	r, err := lint(projectRoot, localesDir, primaryLocale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	printReport(os.Stdout, r)
	if r.failed() {
		os.Exit(1)
	}
}

func lint(root, dir, primary string) (report, error) {
	r := report{Missing: make(map[string][]string)}

	primaryKeys, err := loadKeysFromLocale(filepath.Join(dir, primary))
	if err != nil {
		return r, fmt.Errorf("load primary locale %s: %w", primary, err)
	}
	namespaces := make(map[string]struct{})
	for k := range primaryKeys {
		namespaces[strings.SplitN(k, ".", 2)[0]] = struct{}{}
	}

	used, err := findUsedKeys(root, namespaces)
	if err != nil {
		return r, fmt.Errorf("scan sources: %w", err)
	}

	r.Undefined = diff(used, primaryKeys)
	r.Orphaned = diff(primaryKeys, used)

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return r, err
	}
	for _, f := range files {
		if filepath.Base(f) == primary {
			continue
		}
		keys, err := loadKeysFromLocale(f)
		if err != nil {
			return r, fmt.Errorf("load %s: %w", f, err)
		}
		r.Missing[filepath.Base(f)] = diff(primaryKeys, keys)
	}
	return r, nil
}

func printReport(w io.Writer, r report) {
	section := func(title string, keys []string) {
		fmt.Fprintf(w, "--- %s ---\n", title)
		if len(keys) == 0 {
			fmt.Fprintln(w, "  none")
		}
		for _, k := range keys {
			fmt.Fprintf(w, "  - %s\n", k)
		}
	}
	section("Used in code but undefined", r.Undefined)
	section("Orphaned in primary locale", r.Orphaned)

	locales := make([]string, 0, len(r.Missing))
	for l := range r.Missing {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	for _, l := range locales {
		section("Missing in "+l, r.Missing[l])
	}
}

// diff returns the sorted keys of a that are not in b.
func diff(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

var (
	callRe     = regexp.MustCompile(`i18n\.T\("([^"]+)"`)
	callLangRe = regexp.MustCompile(`i18n\.TLang\([^,]+,\s*"([^"]+)"`)
	literalRe  = regexp.MustCompile(`"([a-z]+\.[a-z_.]+)"`)
)

// findUsedKeys scans non-test .go files below root for i18n.T and
// i18n.TLang ids and for string literals inside one of namespaces.
func findUsedKeys(root string, namespaces map[string]struct{}) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			switch info.Name() {
			case "tools", "_examples", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		src := string(content)
		for _, re := range []*regexp.Regexp{callRe, callLangRe} {
			for _, m := range re.FindAllStringSubmatch(src, -1) {
				keys[m[1]] = struct{}{}
			}
		}
		for _, m := range literalRe.FindAllStringSubmatch(src, -1) {
			if _, ok := namespaces[strings.SplitN(m[1], ".", 2)[0]]; ok {
				keys[m[1]] = struct{}{}
			}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML file and returns a flat map of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts a nested map into dot-separated keys.
func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	case []any:
		for i, val := range v {
			flattenYAML(fmt.Sprintf("%s[%d]", prefix, i), val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
