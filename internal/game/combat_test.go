package game

import (
	"reflect"
	"testing"
	"time"
)

func TestResolveStacksDeterministic(t *testing.T) {
	build := func() (*combatStack, *combatStack) {
		attacker := &combatStack{name: "attacker", shields: 200, fighters: 40, hull: 180}
		defender := &combatStack{name: "defender", shields: 150, fighters: 30, hull: 160}
		return attacker, defender
	}

	a1, d1 := build()
	rounds1, result1 := resolveStacks(42, a1, d1, 1, 25)
	a2, d2 := build()
	rounds2, result2 := resolveStacks(42, a2, d2, 1, 25)

	if result1 != result2 {
		t.Fatalf("results diverged: %s vs %s", result1, result2)
	}
	if !reflect.DeepEqual(rounds1, rounds2) {
		t.Fatalf("round logs diverged for identical seeds")
	}
	if a1.hull != a2.hull || d1.shields != d2.shields {
		t.Fatalf("surviving stacks diverged for identical seeds")
	}
}

func TestResolveStacksDifferentSeedsDiverge(t *testing.T) {
	attacker := &combatStack{name: "a", shields: 200, fighters: 40, hull: 180}
	defender := &combatStack{name: "d", shields: 150, fighters: 30, hull: 160}
	rounds1, _ := resolveStacks(1, attacker, defender, 1, 25)

	attacker = &combatStack{name: "a", shields: 200, fighters: 40, hull: 180}
	defender = &combatStack{name: "d", shields: 150, fighters: 30, hull: 160}
	rounds2, _ := resolveStacks(2, attacker, defender, 1, 25)

	if reflect.DeepEqual(rounds1, rounds2) {
		t.Fatalf("distinct seeds produced identical round logs")
	}
}

func TestShipDamageOrderShieldsFirst(t *testing.T) {
	// No fighters aboard, so absorb is fully deterministic.
	stack := &combatStack{name: "dustrunner", shields: 50, hull: 100}
	rng := newTestRng(1)

	shieldsLost, _, hullLost := stack.absorb(rng, 30)
	if shieldsLost != 30 || hullLost != 0 {
		t.Fatalf("first volley losses = %d shields %d hull, want 30/0", shieldsLost, hullLost)
	}
	if stack.shields != 20 || stack.hull != 100 {
		t.Fatalf("after 30 damage: shields %d hull %d, want 20/100", stack.shields, stack.hull)
	}

	shieldsLost, _, hullLost = stack.absorb(rng, 40)
	if shieldsLost != 20 {
		t.Fatalf("shields absorbed %d, want the remaining 20", shieldsLost)
	}
	if stack.shields != 0 || stack.hull >= 100 {
		t.Fatalf("after 70 damage: shields %d hull %d, want 0 shields and hull loss", stack.shields, stack.hull)
	}
	if stack.defeated() {
		t.Fatalf("ship reported destroyed with %d hull left", stack.hull)
	}
}

func TestPlanetStackAbsorbsFightersBeforeShields(t *testing.T) {
	stack := &combatStack{name: "fortress", planet: true, shields: 100, fighters: 20}
	rng := newTestRng(7)
	_, fightersLost, _ := stack.absorb(rng, 50)
	if fightersLost == 0 {
		t.Fatalf("garrison fighters took no losses from first volley")
	}
	if stack.fighters >= 20 {
		t.Fatalf("fighters = %d, want < 20", stack.fighters)
	}
}

func TestPlanetStackDefeatedNeedsBothLayersDown(t *testing.T) {
	stack := &combatStack{name: "fortress", planet: true, shields: 0, fighters: 1}
	if stack.defeated() {
		t.Fatalf("garrison with fighters left reported defeated")
	}
	stack.fighters = 0
	if !stack.defeated() {
		t.Fatalf("empty garrison not reported defeated")
	}
}

func TestSpecialWeaponCooldown(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Bellatrix")
	start := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)
	fixedTime(w, start)
	w.seedFn = func() int64 { return 99 }
	c.Ship = NewShip(shipCatalog[5])

	outcome, err := w.ResolveEngagement(c.Name, TargetPirate, "", WeaponSpecial)
	if err != nil {
		t.Fatalf("first special engagement returned error: %v", err)
	}
	if !outcome.SpecialUsed {
		t.Fatalf("outcome.SpecialUsed = false, want true")
	}
	if !c.LastSpecialWeapon.Equal(start) {
		t.Fatalf("LastSpecialWeapon = %v, want %v", c.LastSpecialWeapon, start)
	}

	c.Ship = NewShip(shipCatalog[5])
	_, err = w.ResolveEngagement(c.Name, TargetPirate, "", WeaponSpecial)
	if RejectionCode(err) != RejectOnCooldown {
		t.Fatalf("second special engagement error = %v, want ON_COOLDOWN", err)
	}

	fixedTime(w, start.Add(7*time.Hour))
	c.Ship = NewShip(shipCatalog[5])
	if _, err := w.ResolveEngagement(c.Name, TargetPirate, "", WeaponSpecial); err != nil {
		t.Fatalf("post-cooldown engagement returned error: %v", err)
	}
}

func TestSpecialWeaponRequiresMount(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Alhena")

	_, err := w.ResolveEngagement(c.Name, TargetPirate, "", WeaponSpecial)
	if RejectionCode(err) != RejectInvalidTarget {
		t.Fatalf("special on bare hull error = %v, want INVALID_TARGET", err)
	}
}

func TestEngagePlanetRequiresPresence(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Wezen")

	_, err := w.ResolveEngagement(c.Name, TargetPlanet, "Rustbelt", WeaponStandard)
	if RejectionCode(err) != RejectInvalidTarget {
		t.Fatalf("remote assault error = %v, want INVALID_TARGET", err)
	}
}

func TestEngageOwnPlanetRejected(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Adhara")
	planet := w.planets[foldName(startPlanetName)]
	planet.Owner = foldName(c.Name)
	c.grantPlanet(planet.Name)

	_, err := w.ResolveEngagement(c.Name, TargetPlanet, startPlanetName, WeaponStandard)
	if RejectionCode(err) != RejectInvalidTarget {
		t.Fatalf("self-assault error = %v, want INVALID_TARGET", err)
	}
}

func TestEngagementRecordsSeed(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Naos")
	w.seedFn = func() int64 { return 1234 }
	c.Ship = NewShip(shipCatalog[5])

	outcome, err := w.ResolveEngagement(c.Name, TargetPirate, "", WeaponStandard)
	if err != nil {
		t.Fatalf("ResolveEngagement returned error: %v", err)
	}
	if outcome.Seed != 1234 {
		t.Fatalf("outcome.Seed = %d, want 1234", outcome.Seed)
	}
	if outcome.EngagementID == "" {
		t.Fatalf("engagement id is empty")
	}
	if len(outcome.Rounds) == 0 {
		t.Fatalf("no rounds recorded")
	}
}

func TestDestroyedCommanderRestartsAtHomePort(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Mirzam")
	c.Location = "Rustbelt"
	c.Cargo = map[string]int{"Ore Shale": 12}
	c.WinStreak = 4

	w.destroyShipLocked(c, "Raider-001")
	if c.Location != startPlanetName {
		t.Fatalf("location after loss = %q, want %q", c.Location, startPlanetName)
	}
	if c.Ship.Model != shipCatalog[0].Model {
		t.Fatalf("replacement hull = %q, want %q", c.Ship.Model, shipCatalog[0].Model)
	}
	if len(c.Cargo) != 0 || c.WinStreak != 0 {
		t.Fatalf("cargo/streak not cleared: %v / %d", c.Cargo, c.WinStreak)
	}
	if len(c.Inbox) == 0 || c.Inbox[len(c.Inbox)-1].Subject != "SHIP LOST" {
		t.Fatalf("loss notification missing from inbox")
	}
}
