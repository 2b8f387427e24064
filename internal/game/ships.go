package game

import (
	"fmt"
	"sort"
)

// ShipClass is a purchasable hull design. Instances start from the class
// baseline and diverge through upgrades, damage, and modules.
type ShipClass struct {
	Model         string `json:"model"`
	Cost          int    `json:"cost"`
	CargoPods     int    `json:"cargo_pods"`
	MaxCargoPods  int    `json:"max_cargo_pods"`
	Shields       int    `json:"shields"`
	MaxShields    int    `json:"max_shields"`
	Fighters      int    `json:"fighters"`
	MaxFighters   int    `json:"max_fighters"`
	Hull          int    `json:"hull"`
	SpecialWeapon string `json:"special_weapon,omitempty"`
}

var shipCatalog = []ShipClass{
	{Model: "Dustrunner", Cost: 0, CargoPods: 20, MaxCargoPods: 40, Shields: 50, MaxShields: 150, Fighters: 5, MaxFighters: 20, Hull: 100},
	{Model: "Meridian Trader", Cost: 9500, CargoPods: 45, MaxCargoPods: 90, Shields: 120, MaxShields: 300, Fighters: 12, MaxFighters: 40, Hull: 160},
	{Model: "Corsair Mk II", Cost: 48000, CargoPods: 35, MaxCargoPods: 70, Shields: 260, MaxShields: 600, Fighters: 40, MaxFighters: 120, Hull: 240, SpecialWeapon: "Ion Lance"},
	{Model: "Atlas Hauler", Cost: 160000, CargoPods: 120, MaxCargoPods: 260, Shields: 300, MaxShields: 700, Fighters: 25, MaxFighters: 80, Hull: 320},
	{Model: "Sovereign Warbarge", Cost: 640000, CargoPods: 80, MaxCargoPods: 160, Shields: 650, MaxShields: 1400, Fighters: 120, MaxFighters: 320, Hull: 520, SpecialWeapon: "Nova Charge"},
	{Model: "Eclipse Dreadnought", Cost: 1800000, CargoPods: 100, MaxCargoPods: 220, Shields: 1100, MaxShields: 2400, Fighters: 220, MaxFighters: 600, Hull: 800, SpecialWeapon: "Singularity Torpedo"},
}

var shipClassByModel = func() map[string]ShipClass {
	index := make(map[string]ShipClass, len(shipCatalog))
	for _, class := range shipCatalog {
		index[foldName(class.Model)] = class
	}
	return index
}()

// LookupShipClass resolves a catalog entry by model name.
func LookupShipClass(model string) (ShipClass, bool) {
	class, ok := shipClassByModel[foldName(model)]
	return class, ok
}

// ShipClasses returns the catalog ordered by cost.
func ShipClasses() []ShipClass {
	out := make([]ShipClass, len(shipCatalog))
	copy(out, shipCatalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out
}

// moduleSlots derives slot capacity from the hull's price tier.
func moduleSlots(cost int) int {
	switch {
	case cost < 12000:
		return 1
	case cost < 200000:
		return 2
	case cost < 1200000:
		return 3
	default:
		return 4
	}
}

// Module identifiers installable into ship slots.
const (
	ModuleScanner        = "scanner"
	ModuleJammer         = "jammer"
	ModuleCargoOptimizer = "cargo_optimizer"
)

var knownModules = map[string]struct{}{
	ModuleScanner:        {},
	ModuleJammer:         {},
	ModuleCargoOptimizer: {},
}

const unitsPerCargoPod = 10

// Ship is the per-commander instance state of a hull.
type Ship struct {
	Model         string   `json:"model"`
	CargoPods     int      `json:"cargo_pods"`
	MaxCargoPods  int      `json:"max_cargo_pods"`
	Shields       int      `json:"shields"`
	MaxShields    int      `json:"max_shields"`
	Fighters      int      `json:"fighters"`
	MaxFighters   int      `json:"max_fighters"`
	Hull          int      `json:"hull"`
	MaxHull       int      `json:"max_hull"`
	Fuel          float64  `json:"fuel"`
	MaxFuel       float64  `json:"max_fuel"`
	SpecialWeapon string   `json:"special_weapon,omitempty"`
	ModuleSlots   int      `json:"module_slots"`
	Modules       []string `json:"modules,omitempty"`
}

// NewShip builds a fresh instance from a catalog class.
func NewShip(class ShipClass) *Ship {
	maxFuel := float64(class.MaxCargoPods * 2)
	return &Ship{
		Model:         class.Model,
		CargoPods:     class.CargoPods,
		MaxCargoPods:  class.MaxCargoPods,
		Shields:       class.Shields,
		MaxShields:    class.MaxShields,
		Fighters:      class.Fighters,
		MaxFighters:   class.MaxFighters,
		Hull:          class.Hull,
		MaxHull:       class.Hull,
		Fuel:          maxFuel,
		MaxFuel:       maxFuel,
		SpecialWeapon: class.SpecialWeapon,
		ModuleSlots:   moduleSlots(class.Cost),
	}
}

// CargoCapacity reports total cargo units, including the optimizer bonus.
func (s *Ship) CargoCapacity() int {
	capacity := s.CargoPods * unitsPerCargoPod
	if s.HasModule(ModuleCargoOptimizer) {
		capacity = capacity * 112 / 100
	}
	return capacity
}

// FuelBurnPerUnit is the fuel consumed per unit of travel distance.
func (s *Ship) FuelBurnPerUnit() float64 {
	return 0.5 + float64(s.MaxCargoPods)/400
}

// HasModule reports whether the named module is installed.
func (s *Ship) HasModule(name string) bool {
	for _, installed := range s.Modules {
		if installed == name {
			return true
		}
	}
	return false
}

// InstallModule adds a module, enforcing the slot capacity invariant.
func (s *Ship) InstallModule(name string) error {
	if _, ok := knownModules[name]; !ok {
		return reject(RejectInvalidTarget, "unknown module %q", name)
	}
	if s.HasModule(name) {
		return reject(RejectNameConflict, "module %s already installed", name)
	}
	if len(s.Modules) >= s.ModuleSlots {
		return reject(RejectCapacityExceeded, "all %d module slots in use", s.ModuleSlots)
	}
	s.Modules = append(s.Modules, name)
	return nil
}

// IntegrityFraction is hull health in [0, 1].
func (s *Ship) IntegrityFraction() float64 {
	if s.MaxHull <= 0 {
		return 0
	}
	frac := float64(s.Hull) / float64(s.MaxHull)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// TradeInValue is the credit the yard offers against a new hull: half the
// list value, discounted by hull damage.
func (s *Ship) TradeInValue() int {
	class, ok := LookupShipClass(s.Model)
	if !ok {
		return 0
	}
	return int(0.5 * s.IntegrityFraction() * float64(class.Cost))
}

func (s *Ship) String() string {
	return fmt.Sprintf("%s (hull %d/%d, shields %d, fighters %d)", s.Model, s.Hull, s.MaxHull, s.Shields, s.Fighters)
}
