package game

import (
	"math"
	"time"
)

// quoteLocked prices one good at one planet. The multiplier is linear in
// how far stock sits below (or above) the equilibrium level, clamped to
// the configured band, so every buy raises the next quote and every sell
// lowers it. An attack penalty inflates prices for the recovery window.
func (w *World) quoteLocked(planet *Planet, listing *Listing) int {
	equilibrium := listing.Equilibrium
	if equilibrium <= 0 {
		equilibrium = 1
	}
	deviation := float64(equilibrium-listing.Stock) / float64(equilibrium)
	mult := 1 + w.cfg.MarketPriceSensitivity*deviation
	if mult < w.cfg.MarketPriceMinMult {
		mult = w.cfg.MarketPriceMinMult
	}
	if mult > w.cfg.MarketPriceMaxMult {
		mult = w.cfg.MarketPriceMaxMult
	}
	if w.now().Before(planet.AttackPenaltyUntil) {
		mult *= w.cfg.PlanetPricePenaltyMultiplier
	}
	price := int(math.Round(float64(listing.BasePrice) * mult))
	if price < 1 {
		price = 1
	}
	return price
}

// Quote returns the current unit price without mutating anything.
func (w *World) Quote(planetName, goodName string) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	planet, err := w.resolvePlanetLocked(planetName)
	if err != nil {
		return 0, err
	}
	listing, ok := planet.Market[foldName(goodName)]
	if !ok {
		return 0, reject(RejectInvalidTarget, "%s does not trade %s", planet.Name, goodName)
	}
	return w.quoteLocked(planet, listing), nil
}

// TradeReceipt describes a completed exchange.
type TradeReceipt struct {
	Good      string `json:"good"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
	Total     int    `json:"total"`
	Direction string `json:"direction"`
	Credits   int    `json:"credits"`
	Stock     int    `json:"stock"`
}

// Trade buys from or sells to the docked planet's market. Contraband goes
// through the smuggling check first; on detection the penalty lands
// atomically with the rejection and the exchange itself never happens.
func (w *World) Trade(name, goodName string, qty int, direction string) (*TradeReceipt, error) {
	result, err := w.apply("trade", name, func() (map[string]any, error) {
		if qty <= 0 {
			return nil, reject(RejectInvalidRequest, "quantity must be positive")
		}
		if direction != "buy" && direction != "sell" {
			return nil, reject(RejectInvalidRequest, "direction must be buy or sell")
		}
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		good, ok := LookupGood(goodName)
		if !ok {
			return nil, reject(RejectInvalidTarget, "unknown good %s", goodName)
		}
		listing, listed := planet.Market[foldName(good.Name)]
		if good.Contraband {
			if err := w.smugglingCheckLocked(c, planet, good, qty, direction); err != nil {
				return nil, err
			}
		}
		var receipt *TradeReceipt
		switch direction {
		case "buy":
			receipt, err = w.buyLocked(c, planet, good, listing, listed, qty)
		default:
			receipt, err = w.sellLocked(c, planet, good, listing, listed, qty)
		}
		if err != nil {
			return nil, err
		}
		if w.audit != nil {
			w.audit.RecordTrade(c.Name, planet.Name, receipt)
		}
		if w.scripts != nil && planet.Script != "" {
			w.scripts.OnTrade(planet.Script, map[string]any{
				"planet":    planet.Name,
				"commander": c.Name,
				"good":      receipt.Good,
				"quantity":  receipt.Quantity,
				"direction": receipt.Direction,
			})
		}
		return map[string]any{"receipt": receipt}, nil
	})
	if err != nil {
		return nil, err
	}
	return result["receipt"].(*TradeReceipt), nil
}

func (w *World) buyLocked(c *Commander, planet *Planet, good Good, listing *Listing, listed bool, qty int) (*TradeReceipt, error) {
	if !listed {
		return nil, reject(RejectInvalidTarget, "%s does not trade %s", planet.Name, good.Name)
	}
	if listing.Stock < qty {
		return nil, reject(RejectInsufficientResources, "only %d units of %s in stock", listing.Stock, good.Name)
	}
	if c.cargoUnits()+qty > c.Ship.CargoCapacity() {
		return nil, reject(RejectCapacityExceeded, "cargo hold fits %d more units", c.Ship.CargoCapacity()-c.cargoUnits())
	}
	unit := w.quoteLocked(planet, listing)
	total := unit * qty
	if c.Credits < total {
		return nil, reject(RejectInsufficientResources, "%d credits needed, %d on hand", total, c.Credits)
	}
	c.Credits -= total
	listing.Stock -= qty
	planet.CreditBalance += total
	c.addCargo(good.Name, qty)
	return &TradeReceipt{
		Good:      good.Name,
		Quantity:  qty,
		UnitPrice: unit,
		Total:     total,
		Direction: "buy",
		Credits:   c.Credits,
		Stock:     listing.Stock,
	}, nil
}

func (w *World) sellLocked(c *Commander, planet *Planet, good Good, listing *Listing, listed bool, qty int) (*TradeReceipt, error) {
	if c.Cargo[good.Name] < qty {
		return nil, reject(RejectInsufficientResources, "only %d units of %s aboard", c.Cargo[good.Name], good.Name)
	}
	var unit int
	if listed {
		unit = w.quoteLocked(planet, listing)
	} else {
		// Off-market goods move at salvage rates.
		unit = int(math.Round(float64(good.BasePrice) * w.cfg.SalvageSellMultiplier))
		if unit < 1 {
			unit = 1
		}
	}
	total := unit * qty
	c.removeCargo(good.Name, qty)
	c.Credits += total
	stock := 0
	if listed {
		listing.Stock += qty
		stock = listing.Stock
		if planet.CreditBalance >= total {
			planet.CreditBalance -= total
		} else {
			planet.CreditBalance = 0
		}
	}
	return &TradeReceipt{
		Good:      good.Name,
		Quantity:  qty,
		UnitPrice: unit,
		Total:     total,
		Direction: "sell",
		Credits:   c.Credits,
		Stock:     stock,
	}, nil
}

// smugglingCheckLocked gates contraband trades. An insufficient bribe
// level is a plain rejection; a detection roll applies confiscation, a
// fine, and a standing hit atomically with the rejection.
func (w *World) smugglingCheckLocked(c *Commander, planet *Planet, good Good, qty int, direction string) error {
	folded := foldName(planet.Name)
	required := requiredBribeLevel(good)
	level := c.bribeLevel(folded)
	if planet.SmugglerHub && required > 0 {
		required--
	}
	if planet.SecurityLevel >= 2 {
		required++
	}
	if level < required {
		return reject(RejectNotOwner, "%s demands bribe level %d for %s", planet.Name, required, good.Name)
	}
	if planet.SecurityLevel == 0 && planet.SmugglerHub {
		return nil
	}
	chance := w.cfg.ContrabandDetectionBase +
		w.cfg.ContrabandDetectionSecurityStep*float64(planet.SecurityLevel) -
		w.cfg.ContrabandDetectionBribeRelief*float64(level)
	if c.Ship.HasModule(ModuleJammer) {
		chance -= 0.12
	}
	if chance <= 0 {
		return nil
	}
	if chance > 0.95 {
		chance = 0.95
	}
	if w.eventRng.Float64() >= chance {
		return nil
	}

	// Caught. Confiscate the contraband involved, levy a fine against the
	// shipment's street value, and mark the commander.
	confiscated := 0
	if direction == "sell" {
		confiscated = qty
		if c.Cargo[good.Name] < confiscated {
			confiscated = c.Cargo[good.Name]
		}
		c.removeCargo(good.Name, confiscated)
	}
	fine := int(float64(good.BasePrice*qty) * w.cfg.ContrabandFineMultiplier)
	if fine > c.Credits {
		fine = c.Credits
	}
	c.Credits -= fine
	planet.CreditBalance += fine
	c.adjustAuthority(-10)
	c.adjustFrontier(2)
	if planet.SecurityLevel >= 2 {
		until := w.now().Add(time.Duration(w.cfg.BarredPlanetHours * float64(time.Hour)))
		c.barFrom(folded, until)
	}
	return reject(RejectSmugglingDetected,
		"customs seized %d units of %s and fined you %d credits", confiscated, good.Name, fine)
}

// accrueInterestLocked applies bank interest for the time elapsed since
// the balance was last touched. The rate is per 24 hours.
func (w *World) accrueInterestLocked(c *Commander) {
	if !w.cfg.EnableBank || c.BankBalance <= 0 {
		c.LastBankTouch = w.now().UTC()
		return
	}
	now := w.now().UTC()
	if c.LastBankTouch.IsZero() {
		c.LastBankTouch = now
		return
	}
	days := now.Sub(c.LastBankTouch).Hours() / 24
	if days <= 0 {
		return
	}
	earned := int(float64(c.BankBalance) * w.cfg.BankInterestRate * days)
	if earned <= 0 {
		// Sub-credit accrual: leave the touch time so the elapsed
		// window keeps growing until a whole credit is due.
		return
	}
	c.BankBalance += earned
	c.LastBankTouch = now
}

// Bank deposits or withdraws at a banking planet, accruing interest on
// the way through.
func (w *World) Bank(name string, amount int, direction string) (map[string]any, error) {
	return w.apply("bank", name, func() (map[string]any, error) {
		if !w.cfg.EnableBank {
			return nil, reject(RejectInvalidRequest, "banking is disabled")
		}
		if amount <= 0 {
			return nil, reject(RejectInvalidRequest, "amount must be positive")
		}
		if direction != "deposit" && direction != "withdraw" {
			return nil, reject(RejectInvalidRequest, "direction must be deposit or withdraw")
		}
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		if !planet.HasBank {
			return nil, reject(RejectInvalidTarget, "%s has no banking services", planet.Name)
		}
		w.accrueInterestLocked(c)
		switch direction {
		case "deposit":
			if c.Credits < amount {
				return nil, reject(RejectInsufficientResources, "only %d credits on hand", c.Credits)
			}
			c.Credits -= amount
			c.BankBalance += amount
		default:
			if c.BankBalance < amount {
				return nil, reject(RejectInsufficientResources, "only %d credits banked", c.BankBalance)
			}
			c.BankBalance -= amount
			c.Credits += amount
		}
		return map[string]any{"credits": c.Credits, "bank_balance": c.BankBalance}, nil
	})
}

// Repair restores hull at a banking planet. Cost scales with the hull's
// list value and the damage fraction.
func (w *World) Repair(name string) (map[string]any, error) {
	return w.apply("repair", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		if !planet.HasBank {
			return nil, reject(RejectInvalidTarget, "%s has no repair yards", planet.Name)
		}
		if c.Ship.Hull >= c.Ship.MaxHull {
			return nil, reject(RejectInvalidRequest, "hull is already at full integrity")
		}
		class, ok := LookupShipClass(c.Ship.Model)
		if !ok {
			return nil, reject(RejectInternal, "unknown hull class %s", c.Ship.Model)
		}
		damage := 1 - c.Ship.IntegrityFraction()
		value := class.Cost
		if value < 2000 {
			value = 2000
		}
		cost := int(math.Ceil(float64(value) * 0.2 * damage))
		if cost < 10 {
			cost = 10
		}
		if c.Credits < cost {
			return nil, reject(RejectInsufficientResources, "repairs cost %d credits", cost)
		}
		c.Credits -= cost
		c.Ship.Hull = c.Ship.MaxHull
		return map[string]any{"cost": cost, "hull": c.Ship.Hull}, nil
	})
}

// Upgrade prices per unit, matching the shipyard menu.
const (
	upgradeCargoPodPrice     = 75
	upgradeShieldBlockPrice  = 200
	upgradeShieldBlockPoints = 10
	upgradeFighterPrice      = 75
)

// Upgrade buys cargo pods, shield charge, or fighters up to the hull's
// rated maximums.
func (w *World) Upgrade(name, kind string, qty int) (map[string]any, error) {
	return w.apply("upgrade", name, func() (map[string]any, error) {
		if qty <= 0 {
			return nil, reject(RejectInvalidRequest, "quantity must be positive")
		}
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.dockedPlanetLocked(c); err != nil {
			return nil, err
		}
		var cost int
		switch kind {
		case "cargo_pods":
			if c.Ship.CargoPods+qty > c.Ship.MaxCargoPods {
				return nil, reject(RejectCapacityExceeded, "hull is rated for %d pods", c.Ship.MaxCargoPods)
			}
			cost = qty * upgradeCargoPodPrice
			if c.Credits < cost {
				return nil, reject(RejectInsufficientResources, "upgrade costs %d credits", cost)
			}
			c.Credits -= cost
			c.Ship.CargoPods += qty
		case "shields":
			points := qty * upgradeShieldBlockPoints
			if c.Ship.Shields+points > c.Ship.MaxShields {
				return nil, reject(RejectCapacityExceeded, "hull is rated for %d shield points", c.Ship.MaxShields)
			}
			cost = qty * upgradeShieldBlockPrice
			if c.Credits < cost {
				return nil, reject(RejectInsufficientResources, "upgrade costs %d credits", cost)
			}
			c.Credits -= cost
			c.Ship.Shields += points
		case "fighters":
			if c.Ship.Fighters+qty > c.Ship.MaxFighters {
				return nil, reject(RejectCapacityExceeded, "hull berths %d fighters", c.Ship.MaxFighters)
			}
			cost = qty * upgradeFighterPrice
			if c.Credits < cost {
				return nil, reject(RejectInsufficientResources, "upgrade costs %d credits", cost)
			}
			c.Credits -= cost
			c.Ship.Fighters += qty
		default:
			return nil, reject(RejectInvalidRequest, "unknown upgrade %q", kind)
		}
		return map[string]any{"cost": cost, "ship": c.Ship}, nil
	})
}

// InstallModule fits a capability module into a free slot.
func (w *World) InstallModule(name, module string) (map[string]any, error) {
	return w.apply("install_module", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.dockedPlanetLocked(c); err != nil {
			return nil, err
		}
		if err := c.Ship.InstallModule(module); err != nil {
			return nil, err
		}
		return map[string]any{"modules": c.Ship.Modules, "module_slots": c.Ship.ModuleSlots}, nil
	})
}

// BuyShip replaces the current hull with a catalog model, crediting the
// trade-in value of the old one. Cargo and fighters beyond the new hull's
// capacity do not carry over.
func (w *World) BuyShip(name, model string) (map[string]any, error) {
	return w.apply("buy_ship", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.dockedPlanetLocked(c); err != nil {
			return nil, err
		}
		class, ok := LookupShipClass(model)
		if !ok {
			return nil, reject(RejectInvalidTarget, "no hull called %s in the catalog", model)
		}
		if foldName(class.Model) == foldName(c.Ship.Model) {
			return nil, reject(RejectInvalidRequest, "already flying a %s", class.Model)
		}
		tradeIn := c.Ship.TradeInValue()
		cost := class.Cost - tradeIn
		if cost < 0 {
			cost = 0
		}
		if c.Credits < cost {
			return nil, reject(RejectInsufficientResources, "%s costs %d credits after trade-in", class.Model, cost)
		}
		c.Credits -= cost
		c.Ship = NewShip(class)
		if over := c.cargoUnits() - c.Ship.CargoCapacity(); over > 0 {
			w.jettisonLocked(c, over)
		}
		return map[string]any{"cost": cost, "trade_in": tradeIn, "ship": c.Ship}, nil
	})
}

// jettisonLocked discards cargo, cheapest goods first, until the hold fits.
func (w *World) jettisonLocked(c *Commander, over int) {
	for _, good := range Goods() {
		if over <= 0 {
			return
		}
		held := c.Cargo[good.Name]
		if held == 0 {
			continue
		}
		drop := held
		if drop > over {
			drop = over
		}
		c.removeCargo(good.Name, drop)
		over -= drop
	}
}

// PayBribe raises the commander's bribe level with the docked planet's
// underworld, unlocking deeper contraband tiers.
func (w *World) PayBribe(name string) (map[string]any, error) {
	return w.apply("bribe", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		folded := foldName(planet.Name)
		if c.bribeLevel(folded) >= 3 {
			return nil, reject(RejectInvalidRequest, "the locals already trust you completely")
		}
		cost := planet.BribeCost * (c.bribeLevel(folded) + 1)
		if c.Credits < cost {
			return nil, reject(RejectInsufficientResources, "the bribe runs %d credits", cost)
		}
		c.Credits -= cost
		level := c.raiseBribeLevel(folded)
		c.adjustAuthority(-2)
		c.adjustFrontier(3)
		return map[string]any{"bribe_level": level, "cost": cost}, nil
	})
}
