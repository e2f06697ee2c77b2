// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package i18n translates user-facing CLI output and API error messages.
// Messages live in embedded YAML files under locales/.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	current   string
)

// Init loads every embedded locale and selects lang. Unknown languages fall
// back to English.
func Init(lang string) {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			continue
		}
		_, _ = b.ParseMessageFileBytes(data, f.Name())
	}

	mu.Lock()
	bundle = b
	current = match(b, lang)
	localizer = i18n.NewLocalizer(b, current)
	mu.Unlock()
}

// SetLang changes the active language.
func SetLang(lang string) { Init(lang) }

// GetLang returns the active language tag.
func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// GetAvailableLocales maps each embedded language tag to its display name.
func GetAvailableLocales() map[string]string {
	ensure()
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string)
	for _, tag := range bundle.LanguageTags() {
		out[tag.String()] = displayName(tag)
	}
	return out
}

// T translates messageID in the active language. A single map argument is
// used as template data; any other arguments are applied with fmt.Sprintf.
// Unknown ids are returned unchanged.
func T(messageID string, args ...any) string {
	ensure()
	mu.RLock()
	l := localizer
	mu.RUnlock()
	return localize(l, messageID, args...)
}

// TLang is T for an explicit language list such as an Accept-Language
// header, without touching the active language.
func TLang(accept, messageID string, args ...any) string {
	ensure()
	mu.RLock()
	b := bundle
	mu.RUnlock()
	return localize(i18n.NewLocalizer(b, accept), messageID, args...)
}

func localize(l *i18n.Localizer, messageID string, args ...any) string {
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(args) == 1 {
		if data, ok := args[0].(map[string]any); ok {
			cfg.TemplateData = data
			args = nil
		}
	}
	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	if len(args) > 0 && strings.Contains(msg, "%") {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func ensure() {
	mu.RLock()
	ready := localizer != nil
	mu.RUnlock()
	if !ready {
		Init("en")
	}
}

func match(b *i18n.Bundle, lang string) string {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return language.English.String()
	}
	matcher := language.NewMatcher(b.LanguageTags())
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English.String()
	}
	return b.LanguageTags()[idx].String()
}

func displayName(tag language.Tag) string {
	switch tag.String() {
	case "en":
		return "English"
	case "de":
		return "Deutsch"
	}
	return tag.String()
}
