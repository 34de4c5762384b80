package catalog

import (
	"github.com/rotisserie/eris"
)

// Validate checks the invariants the composer relies on: non-empty tables and
// lists, ordered ranges, positive weights, unique names and known complexity
// classes.
func (c *Catalog) Validate() error {
	if len(c.Personas) == 0 {
		return eris.New("catalog: no personas")
	}
	if len(c.Markets) == 0 {
		return eris.New("catalog: no markets")
	}
	if len(c.Tiers) == 0 {
		return eris.New("catalog: no tiers")
	}
	if len(c.Categories) == 0 {
		return eris.New("catalog: no product categories")
	}

	seen := make(map[string]bool)
	for _, p := range c.Personas {
		if err := uniqueName(seen, "persona", p.Name); err != nil {
			return err
		}
		if err := checkRange("persona "+p.Name+" age", p.Age); err != nil {
			return err
		}
		if err := checkRange("persona "+p.Name+" income", p.Income); err != nil {
			return err
		}
		if err := nonEmpty("persona "+p.Name, map[string][]string{
			"goals":             p.Goals,
			"challenges":        p.Challenges,
			"family_situations": p.FamilySituations,
		}); err != nil {
			return err
		}
	}

	seen = make(map[string]bool)
	for _, m := range c.Markets {
		if err := uniqueName(seen, "market", m.Name); err != nil {
			return err
		}
		if m.Weight <= 0 {
			return eris.Errorf("catalog: market %s has non-positive weight %d", m.Name, m.Weight)
		}
		if err := nonEmpty("market "+m.Name, map[string][]string{
			"currencies": m.Currencies,
			"products":   m.Products,
			"challenges": m.Challenges,
			"goals":      m.Goals,
			"scenarios":  m.Scenarios,
		}); err != nil {
			return err
		}
	}

	seen = make(map[string]bool)
	for _, t := range c.Tiers {
		if err := uniqueName(seen, "tier", t.Name); err != nil {
			return err
		}
		if t.Weight <= 0 {
			return eris.Errorf("catalog: tier %s has non-positive weight %d", t.Name, t.Weight)
		}
		if !t.Complexity.Valid() {
			return eris.Errorf("catalog: tier %s has unknown complexity %q", t.Name, t.Complexity)
		}
		if err := checkRange("tier "+t.Name+" assets", t.Assets); err != nil {
			return err
		}
		if err := checkRange("tier "+t.Name+" income", t.Income); err != nil {
			return err
		}
		if err := nonEmpty("tier "+t.Name, map[string][]string{
			"products": t.Products,
			"needs":    t.Needs,
		}); err != nil {
			return err
		}
	}

	seen = make(map[string]bool)
	for _, pc := range c.Categories {
		if err := uniqueName(seen, "product category", pc.Name); err != nil {
			return err
		}
		if len(pc.Products) == 0 {
			return eris.Errorf("catalog: product category %s has no products", pc.Name)
		}
	}

	return nil
}

func uniqueName(seen map[string]bool, kind, name string) error {
	if name == "" {
		return eris.Errorf("catalog: %s with empty name", kind)
	}
	if seen[name] {
		return eris.Errorf("catalog: duplicate %s %s", kind, name)
	}
	seen[name] = true
	return nil
}

func checkRange(label string, r Range) error {
	if r.Min < 0 || r.Min > r.Max {
		return eris.Errorf("catalog: %s range [%d, %d] is invalid", label, r.Min, r.Max)
	}
	return nil
}

func nonEmpty(label string, lists map[string][]string) error {
	for field, l := range lists {
		if len(l) == 0 {
			return eris.Errorf("catalog: %s has empty %s", label, field)
		}
	}
	return nil
}
