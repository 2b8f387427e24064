package game

import "sort"

// Good describes one tradeable commodity. Contraband goods carry a tier
// that drives smuggling detection and the bribe level needed to touch them.
type Good struct {
	Name       string `json:"name"`
	BasePrice  int    `json:"base_price"`
	Contraband bool   `json:"contraband"`
	Tier       int    `json:"tier,omitempty"`
}

var goodCatalog = []Good{
	{Name: "Hydro Rations", BasePrice: 18},
	{Name: "Ore Shale", BasePrice: 42},
	{Name: "Medigel", BasePrice: 95},
	{Name: "Hull Plating", BasePrice: 140},
	{Name: "Frontier Textiles", BasePrice: 210},
	{Name: "Cryo Seeds", BasePrice: 380},
	{Name: "Fusion Cells", BasePrice: 620},
	{Name: "Quantum Processors", BasePrice: 1450},
	{Name: "Graviton Lenses", BasePrice: 3200},
	{Name: "Starliner Components", BasePrice: 5400},
	{Name: "Nebula Spice", BasePrice: 2400, Contraband: true},
	{Name: "Plasma Rifles", BasePrice: 4800, Contraband: true},
	{Name: "Neural Dampeners", BasePrice: 9200, Contraband: true},
	{Name: "Void Relics", BasePrice: 18500, Contraband: true},
}

var goodsByName = buildGoodsIndex()

func buildGoodsIndex() map[string]Good {
	index := make(map[string]Good, len(goodCatalog))
	for i := range goodCatalog {
		good := goodCatalog[i]
		if good.Contraband && good.Tier == 0 {
			good.Tier = contrabandTier(good.BasePrice)
		}
		goodCatalog[i] = good
		index[foldName(good.Name)] = good
	}
	return index
}

// contrabandTier buckets contraband by street value. Higher tiers demand a
// deeper bribe relationship before a vendor will deal.
func contrabandTier(price int) int {
	switch {
	case price >= 16000:
		return 4
	case price >= 7000:
		return 3
	case price >= 2200:
		return 2
	default:
		return 1
	}
}

// requiredBribeLevel maps a contraband good to the minimum bribe level a
// commander must hold on the planet before trading it.
func requiredBribeLevel(good Good) int {
	switch {
	case good.BasePrice >= 16000:
		return 3
	case good.BasePrice >= 7000:
		return 2
	case good.BasePrice >= 2200:
		return 1
	default:
		return 1
	}
}

// LookupGood resolves a good by name, case-insensitively.
func LookupGood(name string) (Good, bool) {
	good, ok := goodsByName[foldName(name)]
	return good, ok
}

// Goods returns the full catalog sorted by base price.
func Goods() []Good {
	out := make([]Good, len(goodCatalog))
	copy(out, goodCatalog)
	sort.Slice(out, func(i, j int) bool { return out[i].BasePrice < out[j].BasePrice })
	return out
}
