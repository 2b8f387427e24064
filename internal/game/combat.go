package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Engagement target kinds.
const (
	TargetShip   = "ship"
	TargetPlanet = "planet"
	TargetPirate = "pirate"
)

// Weapon choices.
const (
	WeaponStandard = "standard"
	WeaponSpecial  = "special"
)

// Engagement result states.
const (
	ResultAttackerWins = "ATTACKER_WINS"
	ResultDefenderWins = "DEFENDER_WINS"
	ResultDraw         = "DRAW"
)

// CombatRound records one volley so an engagement replays from its seed.
type CombatRound struct {
	Round        int    `json:"round"`
	Actor        string `json:"actor"`
	Hit          bool   `json:"hit"`
	Crit         bool   `json:"crit,omitempty"`
	Damage       int    `json:"damage"`
	ShieldsLost  int    `json:"shields_lost"`
	FightersLost int    `json:"fighters_lost"`
	HullLost     int    `json:"hull_lost"`
}

// CombatOutcome is the full, auditable result of one engagement.
type CombatOutcome struct {
	EngagementID   string        `json:"engagement_id"`
	Seed           int64         `json:"seed"`
	Kind           string        `json:"kind"`
	Attacker       string        `json:"attacker"`
	Defender       string        `json:"defender"`
	Result         string        `json:"result"`
	Rounds         []CombatRound `json:"rounds"`
	LootCredits    int           `json:"loot_credits,omitempty"`
	CapturedPlanet string        `json:"captured_planet,omitempty"`
	SpecialUsed    bool          `json:"special_used,omitempty"`
}

// combatStack is the mutable fighting state of one side. Ships absorb
// damage shields → fighters → hull; planetary garrisons absorb
// fighters → shields and fall when both reach zero.
type combatStack struct {
	name     string
	planet   bool
	shields  int
	fighters int
	hull     int
	hitBonus float64
}

func stackFromShip(name string, ship *Ship, bonus float64) *combatStack {
	if ship.HasModule(ModuleScanner) {
		bonus += 0.10
	}
	return &combatStack{
		name:     name,
		shields:  ship.Shields,
		fighters: ship.Fighters,
		hull:     ship.Hull,
		hitBonus: bonus,
	}
}

func stackFromPlanet(planet *Planet) *combatStack {
	return &combatStack{
		name:     planet.Name,
		planet:   true,
		shields:  planet.Shields,
		fighters: planet.Defenders,
	}
}

func (s *combatStack) defeated() bool {
	if s.planet {
		return s.shields <= 0 && s.fighters <= 0
	}
	return s.hull <= 0
}

func (s *combatStack) committed() int {
	committed := s.fighters / 4
	if committed < 1 {
		committed = 1
	}
	return committed
}

// rollVolley produces the attack damage for one volley. All randomness
// comes from the engagement's seeded stream.
func rollVolley(rng *rand.Rand, attacker *combatStack, multiplier float64) (damage int, hit, crit bool) {
	committed := attacker.committed()
	chance := 0.55 + attacker.hitBonus
	if chance < 0.2 {
		chance = 0.2
	}
	if chance > 0.9 {
		chance = 0.9
	}
	if rng.Float64() >= chance {
		// A miss still grazes.
		return int(float64(rng.Intn(committed*2+1)) * multiplier), false, false
	}
	damage = committed*8 + rng.Intn(committed*6+1)
	if rng.Float64() < 0.12 {
		crit = true
		damage = damage * 3 / 2
	}
	return int(float64(damage) * multiplier), true, crit
}

// absorb applies volley damage to the stack and reports the losses.
func (s *combatStack) absorb(rng *rand.Rand, damage int) (shieldsLost, fightersLost, hullLost int) {
	if damage <= 0 {
		return 0, 0, 0
	}
	if s.planet {
		// Garrison fighters scatter incoming fire before the shield grid.
		if s.fighters > 0 {
			fightersLost = damage/10 + rng.Intn(3)
			if fightersLost < 1 {
				fightersLost = 1
			}
			if fightersLost > s.fighters {
				fightersLost = s.fighters
			}
			s.fighters -= fightersLost
			damage -= fightersLost * 8
		}
		if damage > 0 && s.shields > 0 {
			shieldsLost = damage
			if shieldsLost > s.shields {
				shieldsLost = s.shields
			}
			s.shields -= shieldsLost
		}
		return shieldsLost, fightersLost, 0
	}
	if s.shields > 0 {
		shieldsLost = damage
		if shieldsLost > s.shields {
			shieldsLost = s.shields
		}
		s.shields -= shieldsLost
		damage -= shieldsLost
	}
	if damage > 0 && s.fighters > 0 {
		fightersLost = damage/10 + rng.Intn(3)
		if fightersLost < 1 {
			fightersLost = 1
		}
		if fightersLost > s.fighters {
			fightersLost = s.fighters
		}
		s.fighters -= fightersLost
		damage -= fightersLost * 8
	}
	if damage > 0 {
		hullLost = damage / 2
		if hullLost < 1 {
			hullLost = 1
		}
		if hullLost > s.hull {
			hullLost = s.hull
		}
		s.hull -= hullLost
	}
	return shieldsLost, fightersLost, hullLost
}

// resolveStacks runs the engagement loop deterministically from the seed.
func resolveStacks(seed int64, attacker, defender *combatStack, specialMult float64, maxRounds int) ([]CombatRound, string) {
	rng := rand.New(rand.NewSource(seed))
	var rounds []CombatRound
	for round := 1; round <= maxRounds; round++ {
		mult := 1.0
		if round == 1 && specialMult > 1 {
			mult = specialMult
		}
		damage, hit, crit := rollVolley(rng, attacker, mult)
		sl, fl, hl := defender.absorb(rng, damage)
		rounds = append(rounds, CombatRound{
			Round: round, Actor: attacker.name, Hit: hit, Crit: crit,
			Damage: damage, ShieldsLost: sl, FightersLost: fl, HullLost: hl,
		})
		if defender.defeated() {
			return rounds, ResultAttackerWins
		}
		if defender.fighters > 0 || !defender.planet {
			damage, hit, crit = rollVolley(rng, defender, 1)
			sl, fl, hl = attacker.absorb(rng, damage)
			rounds = append(rounds, CombatRound{
				Round: round, Actor: defender.name, Hit: hit, Crit: crit,
				Damage: damage, ShieldsLost: sl, FightersLost: fl, HullLost: hl,
			})
			if attacker.defeated() {
				return rounds, ResultDefenderWins
			}
		}
	}
	return rounds, ResultDraw
}

// ResolveEngagement runs one complete combat between the named commander
// and a ship, planet, or pirate target. The outcome is deterministic given
// the recorded seed.
func (w *World) ResolveEngagement(name, targetKind, targetName, weapon string) (*CombatOutcome, error) {
	result, err := w.apply("engage", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		if weapon == "" {
			weapon = WeaponStandard
		}
		if weapon != WeaponStandard && weapon != WeaponSpecial {
			return nil, reject(RejectInvalidRequest, "unknown weapon choice %q", weapon)
		}
		specialMult := 1.0
		now := w.now()
		if weapon == WeaponSpecial {
			if !w.cfg.EnableSpecialWeapons {
				return nil, reject(RejectInvalidRequest, "special weapons are disabled")
			}
			if c.Ship.SpecialWeapon == "" {
				return nil, reject(RejectInvalidTarget, "%s mounts no special weapon", c.Ship.Model)
			}
			cooldown := time.Duration(w.cfg.SpecialWeaponCooldownHours * float64(time.Hour))
			if !c.LastSpecialWeapon.IsZero() {
				ready := c.LastSpecialWeapon.Add(cooldown)
				if now.Before(ready) {
					return nil, reject(RejectOnCooldown, "%s ready in %s", c.Ship.SpecialWeapon, ready.Sub(now).Round(time.Second))
				}
			}
			specialMult = w.cfg.SpecialWeaponDamageMultiplier
		}

		seed := w.seedFn()
		outcome := &CombatOutcome{
			EngagementID: uuid.NewString(),
			Seed:         seed,
			Kind:         targetKind,
			Attacker:     c.Name,
			SpecialUsed:  weapon == WeaponSpecial,
		}
		attackerStack := stackFromShip(c.Name, c.Ship, c.winStreakBonus(&w.cfg))

		switch targetKind {
		case TargetShip:
			defender, err := w.commanderLocked(targetName)
			if err != nil {
				return nil, err
			}
			if foldName(defender.Name) == foldName(c.Name) {
				return nil, reject(RejectInvalidTarget, "cannot engage your own ship")
			}
			if foldName(defender.Location) != foldName(c.Location) {
				return nil, reject(RejectInvalidTarget, "%s is not in this system", defender.Name)
			}
			defenderStack := stackFromShip(defender.Name, defender.Ship, defender.winStreakBonus(&w.cfg))
			if defender.Ship.HasModule(ModuleJammer) {
				attackerStack.hitBonus -= 0.12
			}
			outcome.Defender = defender.Name
			outcome.Rounds, outcome.Result = resolveStacks(seed, attackerStack, defenderStack, specialMult, w.cfg.CombatMaxRounds)
			w.settleShipCombatLocked(c, defender, attackerStack, defenderStack, outcome, seed)

		case TargetPlanet:
			planet, err := w.resolvePlanetLocked(targetName)
			if err != nil {
				return nil, err
			}
			if foldName(planet.Name) != foldName(c.Location) {
				return nil, reject(RejectInvalidTarget, "you must be at %s to assault it", planet.Name)
			}
			if planet.Owner == foldName(c.Name) {
				return nil, reject(RejectInvalidTarget, "you already control %s", planet.Name)
			}
			planet.regenDefenses(&w.cfg, now)
			defenderStack := stackFromPlanet(planet)
			outcome.Defender = planet.Name
			outcome.Rounds, outcome.Result = resolveStacks(seed, attackerStack, defenderStack, specialMult, w.cfg.CombatMaxRounds)
			w.settlePlanetCombatLocked(c, planet, attackerStack, defenderStack, outcome)

		case TargetPirate:
			defenderStack := pirateStack(seed)
			outcome.Defender = defenderStack.name
			outcome.Rounds, outcome.Result = resolveStacks(seed, attackerStack, defenderStack, specialMult, w.cfg.CombatMaxRounds)
			w.settlePirateCombatLocked(c, attackerStack, outcome, seed)

		default:
			return nil, reject(RejectInvalidTarget, "unknown engagement target %q", targetKind)
		}

		if weapon == WeaponSpecial {
			c.LastSpecialWeapon = now
		}
		if w.audit != nil {
			w.audit.RecordEngagement(outcome)
		}
		return map[string]any{"outcome": outcome}, nil
	})
	if err != nil {
		return nil, err
	}
	return result["outcome"].(*CombatOutcome), nil
}

// pirateStack builds a deterministic raider for the seed.
func pirateStack(seed int64) *combatStack {
	rng := rand.New(rand.NewSource(seed ^ 0x70697261)) // decorrelate from the volley stream
	return &combatStack{
		name:     fmt.Sprintf("Raider-%03d", rng.Intn(1000)),
		shields:  60 + rng.Intn(180),
		fighters: 8 + rng.Intn(40),
		hull:     80 + rng.Intn(160),
	}
}

// writeBackShip copies the surviving stack back onto the real ship.
func writeBackShip(ship *Ship, stack *combatStack) {
	ship.Shields = stack.shields
	ship.Fighters = stack.fighters
	ship.Hull = stack.hull
	if ship.Hull < 0 {
		ship.Hull = 0
	}
}

// destroyShipLocked scraps a destroyed hull: the commander restarts in a
// stock starter at the home port with empty holds.
func (w *World) destroyShipLocked(c *Commander, victor string) {
	c.Ship = NewShip(shipCatalog[0])
	c.Cargo = make(map[string]int)
	c.Location = startPlanetName
	c.WinStreak = 0
	w.deliverSystemMailLocked(c, "SHIP LOST",
		fmt.Sprintf("Your vessel was destroyed in combat with %s. A rescue shuttle returned you to %s with a stock %s.", victor, startPlanetName, c.Ship.Model))
}

func lootFraction(seed int64) float64 {
	rng := rand.New(rand.NewSource(seed ^ 0x6c6f6f74))
	return 0.25 + rng.Float64()*0.35
}

func (w *World) settleShipCombatLocked(attacker, defender *Commander, as, ds *combatStack, outcome *CombatOutcome, seed int64) {
	writeBackShip(attacker.Ship, as)
	writeBackShip(defender.Ship, ds)
	switch outcome.Result {
	case ResultAttackerWins:
		loot := int(lootFraction(seed) * float64(defender.Credits))
		defender.Credits -= loot
		attacker.Credits += loot
		outcome.LootCredits = loot
		attacker.WinStreak++
		attacker.adjustAuthority(-5)
		attacker.adjustFrontier(3)
		w.destroyShipLocked(defender, attacker.Name)
		w.news.post(fmt.Sprintf("%s destroys %s in open space", attacker.Name, defender.Name), "", w.cfg.NewsRetention, w.now())
	case ResultDefenderWins:
		defender.WinStreak++
		w.destroyShipLocked(attacker, defender.Name)
	}
}

func (w *World) settlePlanetCombatLocked(attacker *Commander, planet *Planet, as, ds *combatStack, outcome *CombatOutcome) {
	writeBackShip(attacker.Ship, as)
	planet.Shields = ds.shields
	planet.Defenders = ds.fighters
	planet.AttackPenaltyUntil = w.now().Add(time.Duration(w.cfg.PlanetPricePenaltySeconds) * time.Second)
	attacker.adjustAuthority(-8)
	switch outcome.Result {
	case ResultAttackerWins:
		previous := planet.Owner
		if previous != "" {
			if former, ok := w.commanders[previous]; ok {
				former.revokePlanet(foldName(planet.Name))
				w.deliverSystemMailLocked(former, "PLANET LOST",
					fmt.Sprintf("%s has fallen to %s.", planet.Name, attacker.Name))
			}
		}
		planet.Owner = foldName(attacker.Name)
		attacker.grantPlanet(planet.Name)
		attacker.WinStreak++
		outcome.CapturedPlanet = planet.Name
		loot := planet.CreditBalance / 2
		planet.CreditBalance -= loot
		attacker.Credits += loot
		outcome.LootCredits = loot
		w.news.post(fmt.Sprintf("%s seizes control of %s", attacker.Name, planet.Name), "", w.cfg.NewsRetention, w.now())
	case ResultDefenderWins:
		attacker.WinStreak = 0
		w.destroyShipLocked(attacker, planet.Name)
	}
}

func (w *World) settlePirateCombatLocked(attacker *Commander, as *combatStack, outcome *CombatOutcome, seed int64) {
	writeBackShip(attacker.Ship, as)
	switch outcome.Result {
	case ResultAttackerWins:
		rng := rand.New(rand.NewSource(seed ^ 0x626f756e))
		bounty := 150 + rng.Intn(900)
		attacker.Credits += bounty
		outcome.LootCredits = bounty
		attacker.WinStreak++
		attacker.adjustAuthority(4)
		attacker.adjustFrontier(-2)
	case ResultDefenderWins:
		w.destroyShipLocked(attacker, outcome.Defender)
	}
}
