package game

import (
	"math"
	"sort"
	"time"
)

// Listing is the per-planet market state for one good. Stock moves with
// every trade and drives the quoted price relative to the equilibrium level.
type Listing struct {
	Good        string `json:"good"`
	BasePrice   int    `json:"base_price"`
	Stock       int    `json:"stock"`
	Equilibrium int    `json:"equilibrium"`
}

// Planet is one world in the shared universe. Owner is the folded name of
// the controlling commander; empty means unclaimed.
type Planet struct {
	Name          string `json:"name"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	TechLevel     int    `json:"tech_level"`
	Government    string `json:"government"`
	Population    int    `json:"population"`
	HasBank       bool   `json:"has_bank"`
	SecurityLevel int    `json:"security_level"`
	SmugglerHub   bool   `json:"is_smuggler_hub"`
	DockingFee    int    `json:"docking_fee"`
	BribeCost     int    `json:"bribe_cost"`

	Owner         string `json:"owner,omitempty"`
	Defenders     int    `json:"defenders"`
	BaseDefenders int    `json:"base_defenders"`
	Shields       int    `json:"shields"`
	BaseShields   int    `json:"base_shields"`
	CreditBalance int    `json:"credit_balance"`

	Market map[string]*Listing `json:"market"`

	LastDefenseRegen   time.Time `json:"last_defense_regen,omitempty"`
	AttackPenaltyUntil time.Time `json:"attack_penalty_until,omitempty"`

	Script string `json:"script,omitempty"`
}

type planetSeed struct {
	name       string
	x, y       int
	tech       int
	government string
	population int
	bank       bool
	security   int
	hub        bool
	dockingFee int
	bribeCost  int
	defenders  int
	shields    int
}

var defaultPlanetSeeds = []planetSeed{
	{name: "Terra Nova", x: 0, y: 0, tech: 8, government: "Federation", population: 9200000, bank: true, security: 2, dockingFee: 40, bribeCost: 5000, defenders: 60, shields: 400},
	{name: "Kestrel", x: 4, y: 3, tech: 6, government: "Corporate", population: 3100000, bank: true, security: 2, dockingFee: 25, bribeCost: 3500, defenders: 40, shields: 260},
	{name: "Drift Anchorage", x: 9, y: 1, tech: 5, government: "Syndicate", population: 640000, security: 0, hub: true, dockingFee: 10, bribeCost: 900, defenders: 22, shields: 120},
	{name: "Hadley's Hope", x: 3, y: 8, tech: 4, government: "Colonial", population: 480000, bank: true, security: 1, dockingFee: 15, bribeCost: 1800, defenders: 18, shields: 110},
	{name: "Vossk Prime", x: 11, y: 7, tech: 7, government: "Hegemony", population: 5400000, bank: true, security: 2, dockingFee: 35, bribeCost: 4200, defenders: 55, shields: 340},
	{name: "Rustbelt", x: 7, y: 12, tech: 3, government: "Frontier", population: 120000, security: 0, dockingFee: 5, bribeCost: 600, defenders: 10, shields: 60},
	{name: "Caldera", x: 14, y: 4, tech: 5, government: "Colonial", population: 870000, bank: true, security: 1, dockingFee: 20, bribeCost: 2200, defenders: 26, shields: 150},
	{name: "Mokolo Reach", x: 2, y: 14, tech: 6, government: "Federation", population: 2100000, bank: true, security: 2, dockingFee: 30, bribeCost: 3800, defenders: 38, shields: 240},
	{name: "Sable Verge", x: 13, y: 13, tech: 4, government: "Syndicate", population: 330000, security: 0, hub: true, dockingFee: 8, bribeCost: 750, defenders: 16, shields: 90},
	{name: "Port Halcyon", x: 6, y: 6, tech: 7, government: "Corporate", population: 4100000, bank: true, security: 1, dockingFee: 28, bribeCost: 3000, defenders: 44, shields: 280},
}

// defaultPlanets builds the stock universe. Market stock starts at the
// equilibrium level so the first quote of an epoch equals the base price.
func defaultPlanets(now time.Time) map[string]*Planet {
	planets := make(map[string]*Planet, len(defaultPlanetSeeds))
	for _, seed := range defaultPlanetSeeds {
		planet := &Planet{
			Name:             seed.name,
			X:                seed.x,
			Y:                seed.y,
			TechLevel:        seed.tech,
			Government:       seed.government,
			Population:       seed.population,
			HasBank:          seed.bank,
			SecurityLevel:    seed.security,
			SmugglerHub:      seed.hub,
			DockingFee:       seed.dockingFee,
			BribeCost:        seed.bribeCost,
			Defenders:        seed.defenders,
			BaseDefenders:    seed.defenders,
			Shields:          seed.shields,
			BaseShields:      seed.shields,
			Market:           make(map[string]*Listing),
			LastDefenseRegen: now,
		}
		for _, good := range goodCatalog {
			if !planetStocks(seed, good) {
				continue
			}
			equilibrium := marketEquilibrium(seed, good)
			planet.Market[foldName(good.Name)] = &Listing{
				Good:        good.Name,
				BasePrice:   good.BasePrice,
				Stock:       equilibrium,
				Equilibrium: equilibrium,
			}
		}
		planets[foldName(seed.name)] = planet
	}
	return planets
}

// planetStocks decides whether a planet's vendor carries a good at all.
// High-value goods need tech; contraband only moves through hubs and
// low-security worlds.
func planetStocks(seed planetSeed, good Good) bool {
	if good.Contraband {
		return seed.hub || seed.security == 0
	}
	switch {
	case good.BasePrice >= 3000:
		return seed.tech >= 6
	case good.BasePrice >= 500:
		return seed.tech >= 4
	default:
		return true
	}
}

func marketEquilibrium(seed planetSeed, good Good) int {
	level := 30 + seed.tech*10
	if good.Contraband {
		level /= 3
	}
	if level < 10 {
		level = 10
	}
	return level
}

// Distance is the straight-line separation between two planets.
func Distance(a, b *Planet) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// regenDefenses tops up fighters and shields toward the base garrison, one
// increment per elapsed interval.
func (p *Planet) regenDefenses(cfg *Config, now time.Time) {
	if cfg.PlanetDefenseRegenSeconds <= 0 {
		return
	}
	if p.LastDefenseRegen.IsZero() {
		p.LastDefenseRegen = now
		return
	}
	interval := time.Duration(cfg.PlanetDefenseRegenSeconds) * time.Second
	for now.Sub(p.LastDefenseRegen) >= interval {
		p.LastDefenseRegen = p.LastDefenseRegen.Add(interval)
		if p.Defenders < p.BaseDefenders {
			p.Defenders += cfg.PlanetDefenseRegenFighters
			if p.Defenders > p.BaseDefenders {
				p.Defenders = p.BaseDefenders
			}
		}
		if p.Shields < p.BaseShields {
			p.Shields += cfg.PlanetDefenseRegenShieldPoints
			if p.Shields > p.BaseShields {
				p.Shields = p.BaseShields
			}
		}
		if p.Defenders >= p.BaseDefenders && p.Shields >= p.BaseShields {
			p.LastDefenseRegen = now
			return
		}
	}
}

// resetForNewEpoch clears ownership and restores the base garrison.
func (p *Planet) resetForNewEpoch(now time.Time) {
	p.Owner = ""
	p.Defenders = p.BaseDefenders
	p.Shields = p.BaseShields
	p.CreditBalance = 0
	p.LastDefenseRegen = now
	p.AttackPenaltyUntil = time.Time{}
	for key, listing := range p.Market {
		listing.Stock = listing.Equilibrium
		p.Market[key] = listing
	}
}

// ListingNames returns the goods stocked here, sorted for stable output.
func (p *Planet) ListingNames() []string {
	names := make([]string, 0, len(p.Market))
	for _, listing := range p.Market {
		names = append(names, listing.Good)
	}
	sort.Strings(names)
	return names
}
