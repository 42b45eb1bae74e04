// Package catalog loads localized message catalogs from embedded YAML.
//
// Files live at locales/<locale>/<namespace>.yaml. Every file is checked
// against catalog.schema.json, and every message must parse as a
// text/template, before it joins the Bundle. A loaded Bundle is read-only.
package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
	"text/template"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the source locale every other locale translates from.
const BaseLocale = "en-US"

const schemaName = "catalog.schema.json"

//go:embed locales/*/*.yaml
var embedded embed.FS

//go:embed catalog.schema.json
var schemaJSON []byte

var defaultBundle = mustLoadDefault()

type document struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeMessages struct {
	byNamespace map[string]map[string]string
	raw         map[string]string
	parsed      map[string]*template.Template
}

// Bundle holds every loaded locale.
type Bundle struct {
	locales map[string]*localeMessages
	tags    []language.Tag
	matcher language.Matcher
}

// Default returns the bundle built from the embedded catalogs.
func Default() *Bundle {
	return defaultBundle
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embedded)
}

// LoadFromFS loads every locales/*/*.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	files, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(files)

	b := &Bundle{locales: make(map[string]*localeMessages)}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", name, err)
		}
		doc, err := decode(schema, data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", name, err)
		}
		if err := b.add(name, doc); err != nil {
			return nil, err
		}
	}
	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("catalogs define no %s messages", BaseLocale)
	}
	if err := b.indexTags(); err != nil {
		return nil, err
	}
	return b, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add catalog schema: %w", err)
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	return schema, nil
}

func decode(schema *jsonschema.Schema, data []byte) (document, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return document{}, fmt.Errorf("decode yaml: %w", err)
	}
	// The validator only understands JSON value types.
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return document{}, fmt.Errorf("encode for validation: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return document{}, fmt.Errorf("decode for validation: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return document{}, fmt.Errorf("validate: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("decode catalog: %w", err)
	}
	return doc, nil
}

func (b *Bundle) add(name string, doc document) error {
	dir, file := path.Split(name)
	wantLocale := path.Base(dir)
	wantNamespace := strings.TrimSuffix(file, path.Ext(file))

	if doc.Locale != wantLocale {
		return fmt.Errorf("catalog %s: locale %q is filed under %q", name, doc.Locale, wantLocale)
	}
	if doc.Namespace != wantNamespace {
		return fmt.Errorf("catalog %s: namespace %q is filed under %q", name, doc.Namespace, wantNamespace)
	}

	loc := b.locales[doc.Locale]
	if loc == nil {
		loc = &localeMessages{
			byNamespace: make(map[string]map[string]string),
			raw:         make(map[string]string),
			parsed:      make(map[string]*template.Template),
		}
		b.locales[doc.Locale] = loc
	}
	if _, dup := loc.byNamespace[doc.Namespace]; dup {
		return fmt.Errorf("catalog %s: namespace %q defined twice for %s", name, doc.Namespace, doc.Locale)
	}

	ns := make(map[string]string, len(doc.Messages))
	for key, text := range doc.Messages {
		if _, dup := loc.raw[key]; dup {
			return fmt.Errorf("catalog %s: key %q defined twice for %s", name, key, doc.Locale)
		}
		tmpl, err := template.New(key).Option("missingkey=zero").Parse(text)
		if err != nil {
			return fmt.Errorf("catalog %s: key %q: %w", name, key, err)
		}
		ns[key] = text
		loc.raw[key] = text
		loc.parsed[key] = tmpl
	}
	loc.byNamespace[doc.Namespace] = ns
	return nil
}

// indexTags builds the locale matcher. The base locale is listed first so
// requests the matcher cannot place resolve to it.
func (b *Bundle) indexTags() error {
	b.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range b.Locales() {
		if locale == BaseLocale {
			continue
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return nil
}

// Register copies every message into the x/text/message default catalog
// under its locale tag and that tag's bare language.
func (b *Bundle) Register() error {
	for _, locale := range b.Locales() {
		tag := language.MustParse(locale)
		tags := []language.Tag{tag}
		if base, conf := tag.Base(); conf != language.No {
			if bare := language.Make(base.String()); bare.String() != locale {
				tags = append(tags, bare)
			}
		}
		loc := b.locales[locale]
		for _, key := range slices.Sorted(maps.Keys(loc.raw)) {
			for _, t := range tags {
				if err := message.SetString(t, key, loc.raw[key]); err != nil {
					return fmt.Errorf("register %s/%s: %w", locale, key, err)
				}
			}
		}
	}
	return nil
}

// Match maps a requested locale, an Accept-Language value or a bare
// language such as "pt", to the closest loaded locale.
func (b *Bundle) Match(requested string) string {
	requested = strings.TrimSpace(requested)
	if b.HasLocale(requested) {
		return requested
	}
	if b.matcher == nil {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return BaseLocale
	}
	return b.tags[idx].String()
}

// HasLocale reports whether locale was loaded.
func (b *Bundle) HasLocale(locale string) bool {
	_, ok := b.locales[locale]
	return ok
}

// Locales lists the loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	return slices.Sorted(maps.Keys(b.locales))
}

// LocaleMessages returns a copy of every message defined for locale.
func (b *Bundle) LocaleMessages(locale string) map[string]string {
	loc, ok := b.locales[locale]
	if !ok {
		return map[string]string{}
	}
	return maps.Clone(loc.raw)
}

// NamespaceMessages returns a copy of one namespace for locale, without
// falling back to the base locale.
func (b *Bundle) NamespaceMessages(locale, namespace string) map[string]string {
	loc, ok := b.locales[locale]
	if !ok {
		return map[string]string{}
	}
	ns, ok := loc.byNamespace[namespace]
	if !ok {
		return map[string]string{}
	}
	return maps.Clone(ns)
}

// Message returns the raw template for key, falling back to the base locale.
func (b *Bundle) Message(locale, key string) (string, bool) {
	for _, candidate := range []string{locale, BaseLocale} {
		if loc, ok := b.locales[candidate]; ok {
			if text, ok := loc.raw[key]; ok {
				return text, true
			}
		}
	}
	return "", false
}

// Render executes the template for key with data. An unknown key renders
// as the key; missing data fields render empty.
func (b *Bundle) Render(locale, key string, data any) string {
	for _, candidate := range []string{locale, BaseLocale} {
		loc, ok := b.locales[candidate]
		if !ok {
			continue
		}
		tmpl, ok := loc.parsed[key]
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return loc.raw[key]
		}
		return buf.String()
	}
	return key
}

func mustLoadDefault() *Bundle {
	b, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	if err := b.Register(); err != nil {
		panic(err)
	}
	return b
}
