package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

var (
	// ErrNotFound is returned when an identifier has no catalog entry.
	ErrNotFound = errors.New("reference entry not found")

	// ErrInvalidCatalog is returned when a catalog document cannot be loaded.
	ErrInvalidCatalog = errors.New("invalid reference catalog")
)

// Currency describes a currency a settings object can select.
type Currency struct {
	ID        string `yaml:"id" json:"id"`
	Code      string `yaml:"code" json:"code"`
	Name      string `yaml:"name" json:"name"`
	Symbol    string `yaml:"symbol" json:"symbol"`
	Precision int    `yaml:"precision" json:"precision"`
}

// Language describes a user interface and document language.
type Language struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Locale string `yaml:"locale" json:"locale"`
}

// DateFormat pairs a user-facing date pattern with its Go layout.
type DateFormat struct {
	ID     string `yaml:"id" json:"id"`
	Format string `yaml:"format" json:"format"`
	Layout string `yaml:"layout" json:"layout"`
}

// Apply formats t using the date format.
func (d DateFormat) Apply(t time.Time) string {
	return t.Format(d.Layout)
}

// Timezone maps an identifier to an IANA zone name.
type Timezone struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
}

// Location loads the zone from the system time zone database.
func (tz Timezone) Location() (*time.Location, error) {
	return time.LoadLocation(tz.Name)
}

type document struct {
	Currencies  []Currency   `yaml:"currencies"`
	Languages   []Language   `yaml:"languages"`
	DateFormats []DateFormat `yaml:"date_formats"`
	Timezones   []Timezone   `yaml:"timezones"`
}

// Catalog holds the reference tables indexed by identifier.
type Catalog struct {
	currencies  map[string]Currency
	languages   map[string]Language
	dateFormats map[string]DateFormat
	timezones   map[string]Timezone
}

// Parse loads a catalog from its YAML description. Language locales are
// normalized to BCP 47 tags.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		currencies:  make(map[string]Currency, len(doc.Currencies)),
		languages:   make(map[string]Language, len(doc.Languages)),
		dateFormats: make(map[string]DateFormat, len(doc.DateFormats)),
		timezones:   make(map[string]Timezone, len(doc.Timezones)),
	}

	for _, cur := range doc.Currencies {
		if err := index(c.currencies, cur.ID, cur, "currency"); err != nil {
			return nil, err
		}
	}
	for _, lang := range doc.Languages {
		locale, err := NormalizeLocale(lang.Locale)
		if err != nil {
			return nil, fmt.Errorf("%w: language %s: %v", ErrInvalidCatalog, lang.ID, err)
		}
		lang.Locale = locale
		if err := index(c.languages, lang.ID, lang, "language"); err != nil {
			return nil, err
		}
	}
	for _, df := range doc.DateFormats {
		if df.Layout == "" {
			return nil, fmt.Errorf("%w: date format %s has no layout", ErrInvalidCatalog, df.ID)
		}
		if err := index(c.dateFormats, df.ID, df, "date format"); err != nil {
			return nil, err
		}
	}
	for _, tz := range doc.Timezones {
		if err := index(c.timezones, tz.ID, tz, "timezone"); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func index[T any](m map[string]T, id string, v T, kind string) error {
	if id == "" {
		return fmt.Errorf("%w: %s without id", ErrInvalidCatalog, kind)
	}
	if _, dup := m[id]; dup {
		return fmt.Errorf("%w: duplicate %s %s", ErrInvalidCatalog, kind, id)
	}
	m[id] = v
	return nil
}

// Builtin returns the catalog embedded in the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtinCatalog)
}

// Currency returns the currency with the given identifier.
func (c *Catalog) Currency(id string) (Currency, error) {
	return lookup(c.currencies, id, "currency")
}

// Language returns the language with the given identifier.
func (c *Catalog) Language(id string) (Language, error) {
	return lookup(c.languages, id, "language")
}

// DateFormat returns the date format with the given identifier.
func (c *Catalog) DateFormat(id string) (DateFormat, error) {
	return lookup(c.dateFormats, id, "date format")
}

// Timezone returns the timezone with the given identifier.
func (c *Catalog) Timezone(id string) (Timezone, error) {
	return lookup(c.timezones, id, "timezone")
}

func lookup[T any](m map[string]T, id, kind string) (T, error) {
	v, ok := m[strings.TrimSpace(id)]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
	}
	return v, nil
}

// NormalizeLocale converts locale identifiers such as "pt_BR" into canonical
// BCP 47 form ("pt-BR").
func NormalizeLocale(locale string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return tag.String(), nil
}
