// Package composer turns a client persona into an advisor-facing instruction
// by picking a generation strategy and filling one of its sentence templates.
//
// All randomness comes from the *rand.Rand handed to New, drawn in a fixed
// order: age, income, strategy, then the strategy's own draws. Two composers
// built from identically seeded generators produce identical output for the
// same sequence of personas.
package composer

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/wealth-dataset/internal/catalog"
	"github.com/sells-group/wealth-dataset/internal/weighted"
)

// Strategy names a way of building an instruction.
type Strategy string

// Generation strategies.
const (
	StrategyGoal      Strategy = "goal"
	StrategyChallenge Strategy = "challenge"
	StrategyProduct   Strategy = "product"
	StrategyComplex   Strategy = "complex"
	StrategyHSBC      Strategy = "hsbc"
	StrategyMarket    Strategy = "market"
	StrategyTier      Strategy = "tier"
)

// StrategyWeight pairs a strategy with its relative selection weight.
type StrategyWeight struct {
	Strategy Strategy
	Weight   int
}

// StrategyWeights is the strategy menu. Market- and tier-specific scenarios
// are favoured over the simpler persona-only strategies.
var StrategyWeights = []StrategyWeight{
	{StrategyGoal, 1},
	{StrategyChallenge, 1},
	{StrategyProduct, 1},
	{StrategyComplex, 1},
	{StrategyHSBC, 1},
	{StrategyMarket, 2},
	{StrategyTier, 3},
}

// Composer builds instructions from the catalog tables.
type Composer struct {
	cat        *catalog.Catalog
	rng        *rand.Rand
	strategies *weighted.Table[Strategy]
	markets    *weighted.Table[catalog.MarketProfile]
	tiers      *weighted.Table[catalog.WealthTier]
	printer    *message.Printer
}

// New creates a Composer over a validated catalog.
func New(cat *catalog.Catalog, rng *rand.Rand) *Composer {
	strategies := make([]Strategy, len(StrategyWeights))
	sw := make([]int, len(StrategyWeights))
	for i, s := range StrategyWeights {
		strategies[i] = s.Strategy
		sw[i] = s.Weight
	}

	mw := make([]int, len(cat.Markets))
	for i, m := range cat.Markets {
		mw[i] = m.Weight
	}

	tw := make([]int, len(cat.Tiers))
	for i, t := range cat.Tiers {
		tw[i] = t.Weight
	}

	return &Composer{
		cat:        cat,
		rng:        rng,
		strategies: weighted.MustNew(strategies, sw),
		markets:    weighted.MustNew(cat.Markets, mw),
		tiers:      weighted.MustNew(cat.Tiers, tw),
		printer:    message.NewPrinter(language.English),
	}
}

// Compose returns one instruction for persona p.
func (c *Composer) Compose(p catalog.Persona) string {
	age, income := c.sampleAgeIncome(p)
	return c.run(c.strategies.Pick(c.rng), p, age, income)
}

// ComposeWith is Compose with the strategy fixed instead of drawn. Strategies
// missing from StrategyWeights are rejected before any randomness is consumed.
func (c *Composer) ComposeWith(s Strategy, p catalog.Persona) (string, error) {
	if !KnownStrategy(s) {
		return "", eris.Errorf("composer: unknown strategy %q", s)
	}
	age, income := c.sampleAgeIncome(p)
	return c.run(s, p, age, income), nil
}

// KnownStrategy reports whether s is on the strategy menu.
func KnownStrategy(s Strategy) bool {
	for _, sw := range StrategyWeights {
		if sw.Strategy == s {
			return true
		}
	}
	return false
}

// StrategyProbability returns the chance Compose picks s.
func (c *Composer) StrategyProbability(s Strategy) float64 {
	for i := 0; i < c.strategies.Len(); i++ {
		if c.strategies.Item(i) == s {
			return c.strategies.Probability(i)
		}
	}
	return 0
}

// MarketProbability returns the chance the market strategy picks market name.
func (c *Composer) MarketProbability(name string) float64 {
	for i := 0; i < c.markets.Len(); i++ {
		if c.markets.Item(i).Name == name {
			return c.markets.Probability(i)
		}
	}
	return 0
}

// TierProbability returns the chance the tier strategy picks tier name.
func (c *Composer) TierProbability(name string) float64 {
	for i := 0; i < c.tiers.Len(); i++ {
		if c.tiers.Item(i).Name == name {
			return c.tiers.Probability(i)
		}
	}
	return 0
}

func (c *Composer) sampleAgeIncome(p catalog.Persona) (int, int) {
	age := c.between(p.Age.Min, p.Age.Max)
	income := roundThousand(c.between(p.Income.Min, p.Income.Max))
	return age, income
}

func (c *Composer) run(s Strategy, p catalog.Persona, age, income int) string {
	switch s {
	case StrategyGoal:
		return c.goal(p, age, income)
	case StrategyChallenge:
		return c.challenge(p, age, income)
	case StrategyProduct:
		return c.product(p, age, income)
	case StrategyComplex:
		return c.complex(p, age, income)
	case StrategyHSBC:
		return c.hsbc(p, age, income)
	case StrategyMarket:
		return c.market(p, age, income)
	case StrategyTier:
		return c.tier(p)
	}
	panic("composer: no builder for strategy " + string(s))
}

func (c *Composer) goal(p catalog.Persona, age, income int) string {
	s := c.newScene(age, income)
	s.set("family", c.choice(p.FamilySituations))
	s.set("goal", c.choice(p.Goals))
	return s.render(c.choice(goalTemplates))
}

func (c *Composer) challenge(p catalog.Persona, age, income int) string {
	s := c.newScene(age, income)
	s.set("family", c.choice(p.FamilySituations))
	s.set("challenge", c.choice(p.Challenges))
	s.setMoney("savings", c.between(income/4, income*2))
	return s.render(c.choice(challengeTemplates))
}

func (c *Composer) product(p catalog.Persona, age, income int) string {
	s := c.newScene(age, income)
	s.set("family", c.choice(p.FamilySituations))
	category := c.cat.Categories[c.rng.IntN(len(c.cat.Categories))]
	s.set("product", c.choice(category.Products))
	s.set("goal", c.choice(p.Goals))
	return s.render(c.choice(productTemplates))
}

func (c *Composer) complex(p catalog.Persona, age, income int) string {
	s := c.newScene(age, income)
	s.set("family", c.choice(p.FamilySituations))
	s.set("challenge", c.choice(p.Challenges))
	s.set("goal", c.choice(p.Goals))
	s.setMoney("savings", c.between(max(0, income/10), income*3))
	s.setMoney("debt", c.between(0, income))
	return s.render(c.choice(complexTemplates))
}

func (c *Composer) hsbc(p catalog.Persona, age, income int) string {
	s := c.newScene(age, income)
	s.set("family", c.choice(p.FamilySituations))
	s.set("goal", c.choice(p.Goals))
	s.set("challenge", c.choice(p.Challenges))
	savings := c.between(max(income/2, 100000), income*5)
	s.setMoney("savings", savings)
	s.setMoney("double_savings", savings*2)
	s.setMoney("half_income", income/2)
	return s.render(c.choice(hsbcTemplates))
}

func (c *Composer) market(p catalog.Persona, age, income int) string {
	s := c.newScene(age, income)
	s.set("family", c.choice(p.FamilySituations))
	s.setMoney("savings", c.between(max(income/2, 50000), income*4))

	m := c.markets.Pick(c.rng)
	s.set("market", DisplayName(m.Name))
	s.set("currencies", strings.Join(c.sample(m.Currencies, 2), " and "))
	s.set("product", c.choice(m.Products))
	s.set("challenge", c.choice(m.Challenges))
	s.set("goal", c.choice(m.Goals))
	s.set("scenario", c.choice(m.Scenarios))
	return s.render(c.choice(marketTemplates))
}

// tier discards the persona's sampled age and income: age is redrawn after
// the tier is chosen and income comes from the tier's own range.
func (c *Composer) tier(p catalog.Persona) string {
	t := c.tiers.Pick(c.rng)
	age := c.between(p.Age.Min, p.Age.Max)

	s := c.newScene(age, 0)
	s.set("tier", t.DisplayName)
	s.set("family", c.choice(p.FamilySituations))
	s.setMoney("income", roundThousand(c.between(t.Income.Min, t.Income.Max)))
	s.setMoney("assets", roundThousand(c.between(t.Assets.Min, t.Assets.Max)))
	s.set("product", c.choice(t.Products))
	s.set("need", c.choice(t.Needs))

	// Catalog validation guarantees a known complexity.
	return s.render(c.choice(tierTemplates[t.Complexity]))
}

// between draws uniformly from [lo, hi]. An upper bound below lo is raised
// to lo.
func (c *Composer) between(lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return lo + c.rng.IntN(hi-lo+1)
}

func (c *Composer) choice(items []string) string {
	return items[c.rng.IntN(len(items))]
}

// sample draws k distinct items in draw order, or every item (shuffled) if
// there are fewer than k.
func (c *Composer) sample(items []string, k int) []string {
	k = min(k, len(items))
	pool := append([]string(nil), items...)
	out := make([]string, 0, k)
	for range k {
		i := c.rng.IntN(len(pool))
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

// FormatMoney renders n as "$" plus a thousands-separated integer.
func FormatMoney(n int) string {
	return message.NewPrinter(language.English).Sprintf("$%d", n)
}

// DisplayName turns an internal table key such as "Hong_Kong" into
// "Hong Kong".
func DisplayName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

func roundThousand(n int) int {
	return int(math.RoundToEven(float64(n)/1000)) * 1000
}

// scene collects the values a template may reference.
type scene struct {
	printer *message.Printer
	values  map[string]string
}

func (c *Composer) newScene(age, income int) *scene {
	s := &scene{printer: c.printer, values: make(map[string]string, 12)}
	s.set("age", strconv.Itoa(age))
	s.setMoney("income", income)
	return s
}

func (s *scene) set(key, value string) {
	s.values[key] = value
}

func (s *scene) setMoney(key string, n int) {
	s.values[key] = s.printer.Sprintf("$%d", n)
}

func (s *scene) render(tmpl string) string {
	pairs := make([]string, 0, len(s.values)*2)
	for k, v := range s.values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
