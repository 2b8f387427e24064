package game

import (
	"time"
)

// Commander is one playable character. Everything here persists to the
// character's save file; transient session state lives on Session instead.
type Commander struct {
	Name    string `json:"name"`
	Account string `json:"account"`

	Credits     int            `json:"credits"`
	BankBalance int            `json:"bank_balance"`
	Cargo       map[string]int `json:"cargo,omitempty"`
	Ship        *Ship          `json:"ship"`
	Location    string         `json:"location"`

	AuthorityStanding int `json:"authority_standing"`
	FrontierStanding  int `json:"frontier_standing"`

	OwnedPlanets  []string             `json:"owned_planets,omitempty"`
	BarredPlanets map[string]time.Time `json:"barred_planets,omitempty"`
	BribeLevels   map[string]int       `json:"bribe_levels,omitempty"`

	WinStreak         int       `json:"combat_win_streak"`
	LastSpecialWeapon time.Time `json:"last_special_weapon,omitempty"`

	Inbox   []Message `json:"messages,omitempty"`
	Archive []Message `json:"saved_messages,omitempty"`

	LastBankTouch time.Time `json:"last_bank_touch,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Retired       bool      `json:"retired,omitempty"`
}

func newCommander(name, account, startPlanet string, cfg *Config, now time.Time) *Commander {
	return &Commander{
		Name:      name,
		Account:   account,
		Credits:   cfg.StartingCredits,
		Cargo:     make(map[string]int),
		Ship:      NewShip(shipCatalog[0]),
		Location:  startPlanet,
		CreatedAt: now.UTC(),
	}
}

const standingLimit = 100

func clampStanding(v int) int {
	if v > standingLimit {
		return standingLimit
	}
	if v < -standingLimit {
		return -standingLimit
	}
	return v
}

func (c *Commander) adjustAuthority(delta int) {
	c.AuthorityStanding = clampStanding(c.AuthorityStanding + delta)
}

func (c *Commander) adjustFrontier(delta int) {
	c.FrontierStanding = clampStanding(c.FrontierStanding + delta)
}

// AuthorityLabel names the commander's standing with lawful powers.
func (c *Commander) AuthorityLabel() string {
	switch {
	case c.AuthorityStanding >= 60:
		return "HEROIC"
	case c.AuthorityStanding >= 25:
		return "TRUSTED"
	case c.AuthorityStanding <= -60:
		return "WANTED"
	case c.AuthorityStanding <= -25:
		return "SUSPECT"
	default:
		return "NEUTRAL"
	}
}

// FrontierLabel names the commander's standing with the fringe.
func (c *Commander) FrontierLabel() string {
	switch {
	case c.FrontierStanding >= 60:
		return "LEGENDARY"
	case c.FrontierStanding >= 25:
		return "CONNECTED"
	case c.FrontierStanding <= -60:
		return "OUTCAST"
	case c.FrontierStanding <= -25:
		return "UNTRUSTED"
	default:
		return "NEUTRAL"
	}
}

func (c *Commander) cargoUnits() int {
	total := 0
	for _, qty := range c.Cargo {
		total += qty
	}
	return total
}

func (c *Commander) addCargo(good string, qty int) {
	if c.Cargo == nil {
		c.Cargo = make(map[string]int)
	}
	c.Cargo[good] += qty
}

func (c *Commander) removeCargo(good string, qty int) bool {
	if c.Cargo[good] < qty {
		return false
	}
	c.Cargo[good] -= qty
	if c.Cargo[good] == 0 {
		delete(c.Cargo, good)
	}
	return true
}

func (c *Commander) ownsPlanet(folded string) bool {
	for _, name := range c.OwnedPlanets {
		if foldName(name) == folded {
			return true
		}
	}
	return false
}

func (c *Commander) grantPlanet(name string) {
	if !c.ownsPlanet(foldName(name)) {
		c.OwnedPlanets = append(c.OwnedPlanets, name)
	}
}

func (c *Commander) revokePlanet(folded string) {
	out := c.OwnedPlanets[:0]
	for _, name := range c.OwnedPlanets {
		if foldName(name) != folded {
			out = append(out, name)
		}
	}
	c.OwnedPlanets = out
	if len(c.OwnedPlanets) == 0 {
		c.OwnedPlanets = nil
	}
}

// barredFrom reports whether the commander is still locked out of a planet,
// pruning expired entries as it goes.
func (c *Commander) barredFrom(folded string, now time.Time) bool {
	until, ok := c.BarredPlanets[folded]
	if !ok {
		return false
	}
	if now.After(until) {
		delete(c.BarredPlanets, folded)
		if len(c.BarredPlanets) == 0 {
			c.BarredPlanets = nil
		}
		return false
	}
	return true
}

func (c *Commander) barFrom(folded string, until time.Time) {
	if c.BarredPlanets == nil {
		c.BarredPlanets = make(map[string]time.Time)
	}
	c.BarredPlanets[folded] = until
}

func (c *Commander) bribeLevel(folded string) int {
	return c.BribeLevels[folded]
}

func (c *Commander) raiseBribeLevel(folded string) int {
	if c.BribeLevels == nil {
		c.BribeLevels = make(map[string]int)
	}
	if c.BribeLevels[folded] < 3 {
		c.BribeLevels[folded]++
	}
	return c.BribeLevels[folded]
}

// winStreakBonus is the hit-chance bonus earned from consecutive wins.
func (c *Commander) winStreakBonus(cfg *Config) float64 {
	bonus := float64(c.WinStreak) * cfg.CombatWinStreakBonusPerWin
	if bonus > cfg.CombatWinStreakBonusCap {
		bonus = cfg.CombatWinStreakBonusCap
	}
	return bonus
}

// resetForNewEpoch returns the commander to a fresh campaign start while
// keeping the name, account link, and saved mail archive.
func (c *Commander) resetForNewEpoch(startPlanet string, cfg *Config, now time.Time) {
	c.Credits = cfg.StartingCredits
	c.BankBalance = 0
	c.Cargo = make(map[string]int)
	c.Ship = NewShip(shipCatalog[0])
	c.Location = startPlanet
	c.AuthorityStanding = 0
	c.FrontierStanding = 0
	c.OwnedPlanets = nil
	c.BarredPlanets = nil
	c.BribeLevels = nil
	c.WinStreak = 0
	c.LastSpecialWeapon = time.Time{}
	c.LastBankTouch = time.Time{}
	c.Inbox = nil
}
