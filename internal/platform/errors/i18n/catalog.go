// Package i18n renders error codes as player-facing messages.
//
// Templates live in the "errors" namespace of the shared message catalog.
// A locale that lacks a code borrows the base locale's template.
package i18n

import (
	"bytes"
	"sync"
	"text/template"

	i18ncatalog "github.com/louisbranch/parley/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

const namespace = "errors"

// Catalog holds the parsed error templates for one locale.
type Catalog struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog for the closest supported locale.
func GetCatalog(locale string) *Catalog {
	bundle := i18ncatalog.Default()
	resolved := bundle.Match(locale)

	catalogsMu.RLock()
	cached, ok := catalogs[resolved]
	catalogsMu.RUnlock()
	if ok {
		return cached
	}

	messages := bundle.NamespaceMessages(i18ncatalog.BaseLocale, namespace)
	if resolved != i18ncatalog.BaseLocale {
		for code, message := range bundle.NamespaceMessages(resolved, namespace) {
			messages[code] = message
		}
	}
	built := NewCatalog(resolved, messages)

	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[resolved]; ok {
		return existing
	}
	catalogs[resolved] = built
	return built
}

// NewCatalog parses messages into a catalog. A template that does not parse
// is kept as literal text.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, message := range messages {
		c.raw[code] = message
		parsed, err := template.New(code).Option("missingkey=zero").Parse(message)
		if err != nil {
			continue
		}
		c.templates[code] = parsed
	}
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders code with metadata. Unknown codes render as the code
// itself; missing metadata renders empty.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return raw
	}
	return buf.String()
}
