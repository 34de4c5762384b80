// Package catalog holds the static client tables the scenario composer draws
// from: personas, regional markets, wealth tiers and the product taxonomy.
package catalog

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Table file names inside a catalog directory.
const (
	PersonasFile = "personas.yaml"
	MarketsFile  = "markets.yaml"
	TiersFile    = "tiers.yaml"
	ProductsFile = "products.yaml"
)

// Complexity classifies how sophisticated a tier's conversations are.
type Complexity string

// Tier complexity classes.
const (
	Moderate      Complexity = "moderate"
	Sophisticated Complexity = "sophisticated"
	HighlyComplex Complexity = "highly_complex"
)

// Valid reports whether c is one of the known complexity classes.
func (c Complexity) Valid() bool {
	switch c {
	case Moderate, Sophisticated, HighlyComplex:
		return true
	}
	return false
}

// Range is an inclusive integer range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Persona is a client archetype.
type Persona struct {
	Name             string   `yaml:"name"`
	Age              Range    `yaml:"age"`
	Income           Range    `yaml:"income"`
	Goals            []string `yaml:"goals"`
	Challenges       []string `yaml:"challenges"`
	FamilySituations []string `yaml:"family_situations"`
}

// MarketProfile describes one regional market.
type MarketProfile struct {
	Name       string   `yaml:"name"`
	Weight     int      `yaml:"weight"`
	Currencies []string `yaml:"currencies"`
	Products   []string `yaml:"products"`
	Challenges []string `yaml:"challenges"`
	Goals      []string `yaml:"goals"`
	Scenarios  []string `yaml:"scenarios"`
}

// WealthTier describes one client wealth segment.
type WealthTier struct {
	Name        string     `yaml:"name"`
	DisplayName string     `yaml:"display_name"`
	Description string     `yaml:"description"`
	Assets      Range      `yaml:"assets"`
	Income      Range      `yaml:"income"`
	Complexity  Complexity `yaml:"complexity"`
	Weight      int        `yaml:"weight"`
	Products    []string   `yaml:"products"`
	Needs       []string   `yaml:"needs"`
}

// ProductCategory groups related product names.
type ProductCategory struct {
	Name     string   `yaml:"name"`
	Products []string `yaml:"products"`
}

// Catalog aggregates all tables. Treat it as read-only once loaded.
type Catalog struct {
	Personas   []Persona
	Markets    []MarketProfile
	Tiers      []WealthTier
	Categories []ProductCategory
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It panics if the embedded tables are
// invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(dataFS, "data")
		if err != nil {
			defaultErr = eris.Wrap(err, "catalog: open embedded data")
			return
		}
		defaultCat, defaultErr = Load(sub)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCat
}

// Load reads and validates the four table files from fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	var personas struct {
		Personas []Persona `yaml:"personas"`
	}
	var markets struct {
		Markets []MarketProfile `yaml:"markets"`
	}
	var tiers struct {
		Tiers []WealthTier `yaml:"tiers"`
	}
	var products struct {
		Categories []ProductCategory `yaml:"categories"`
	}

	files := []struct {
		name string
		dst  any
	}{
		{PersonasFile, &personas},
		{MarketsFile, &markets},
		{TiersFile, &tiers},
		{ProductsFile, &products},
	}
	for _, f := range files {
		if err := decode(fsys, f.name, f.dst); err != nil {
			return nil, err
		}
	}

	cat := &Catalog{
		Personas:   personas.Personas,
		Markets:    markets.Markets,
		Tiers:      tiers.Tiers,
		Categories: products.Categories,
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func decode(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return eris.Wrapf(err, "catalog: read %s", name)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return eris.Wrapf(err, "catalog: parse %s", name)
	}
	return nil
}

// Market returns the market with the given name.
func (c *Catalog) Market(name string) (MarketProfile, bool) {
	for _, m := range c.Markets {
		if m.Name == name {
			return m, true
		}
	}
	return MarketProfile{}, false
}

// Tier returns the tier with the given name.
func (c *Catalog) Tier(name string) (WealthTier, bool) {
	for _, t := range c.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return WealthTier{}, false
}

// Persona returns the persona with the given life-stage name.
func (c *Catalog) Persona(name string) (Persona, bool) {
	for _, p := range c.Personas {
		if p.Name == name {
			return p, true
		}
	}
	return Persona{}, false
}
