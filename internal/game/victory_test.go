package game

import (
	"testing"
	"time"
)

func conquerPlanets(w *World, c *Commander, count int) {
	taken := 0
	for _, seed := range defaultPlanetSeeds {
		if taken >= count {
			return
		}
		planet := w.planets[foldName(seed.name)]
		planet.Owner = foldName(c.Name)
		c.grantPlanet(planet.Name)
		taken++
	}
}

func TestEvaluateCampaignDeclaresWinner(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Warlord")
	rival := seedTestCommander(t, w, "Rival")
	start := time.Date(2026, time.May, 1, 15, 0, 0, 0, time.UTC)
	fixedTime(w, start)
	conquerPlanets(w, c, 6) // 60% of ten planets

	if err := w.EvaluateCampaign(); err != nil {
		t.Fatalf("EvaluateCampaign returned error: %v", err)
	}
	board := w.Board()
	if board.CurrentWinner == nil {
		t.Fatalf("no winner declared at the ownership threshold")
	}
	if board.CurrentWinner.Commander != "Warlord" {
		t.Fatalf("winner = %q, want Warlord", board.CurrentWinner.Commander)
	}
	if board.ScheduledReset.IsZero() {
		t.Fatalf("winner declared without scheduling a reset")
	}
	if board.ScheduledReset.Hour() != 0 || board.ScheduledReset.Minute() != 1 {
		t.Fatalf("reset scheduled at %v, want a 00:01 boundary", board.ScheduledReset)
	}
	if len(rival.Inbox) == 0 || rival.Inbox[len(rival.Inbox)-1].Subject != "GALACTIC CHAMPION DECLARED" {
		t.Fatalf("rival did not receive the champion announcement")
	}
}

func TestEvaluateCampaignBelowThreshold(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Strider")
	conquerPlanets(w, c, 5) // 50%, below the 60% bar

	if err := w.EvaluateCampaign(); err != nil {
		t.Fatalf("EvaluateCampaign returned error: %v", err)
	}
	if w.Board().CurrentWinner != nil {
		t.Fatalf("winner declared below the ownership threshold")
	}
}

func TestEvaluateCampaignStandingBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VictoryAuthorityMin = -20
	w := newTestWorldWithConfig(t, cfg)
	c := seedTestCommander(t, w, "Blackguard")
	conquerPlanets(w, c, 6)
	c.AuthorityStanding = -80

	if err := w.EvaluateCampaign(); err != nil {
		t.Fatalf("EvaluateCampaign returned error: %v", err)
	}
	if w.Board().CurrentWinner != nil {
		t.Fatalf("winner declared outside the authority bounds")
	}
}

func TestScheduledResetStartsNewEpoch(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Emperor")
	start := time.Date(2026, time.May, 1, 15, 0, 0, 0, time.UTC)
	fixedTime(w, start)
	conquerPlanets(w, c, 7)
	c.Credits = 500_000

	if err := w.EvaluateCampaign(); err != nil {
		t.Fatalf("EvaluateCampaign returned error: %v", err)
	}
	reset := w.Board().ScheduledReset
	fixedTime(w, reset.Add(time.Minute))
	if err := w.EvaluateCampaign(); err != nil {
		t.Fatalf("EvaluateCampaign at reset time returned error: %v", err)
	}

	epoch, _ := w.Epoch()
	if epoch != 2 {
		t.Fatalf("epoch after reset = %d, want 2", epoch)
	}
	if w.Board().CurrentWinner != nil {
		t.Fatalf("winner board not cleared by the reset")
	}
	if got := len(w.Board().History); got != 1 {
		t.Fatalf("winner history length = %d, want 1", got)
	}
	for _, planet := range w.planets {
		if planet.Owner != "" {
			t.Fatalf("planet %s still owned after reset", planet.Name)
		}
	}
	if c.Credits != w.cfg.StartingCredits {
		t.Fatalf("credits after reset = %d, want %d", c.Credits, w.cfg.StartingCredits)
	}
	if c.Location != startPlanetName {
		t.Fatalf("location after reset = %q, want %q", c.Location, startPlanetName)
	}

	archived, err := w.store.ReadEpochArchive(1)
	if err != nil {
		t.Fatalf("ReadEpochArchive returned error: %v", err)
	}
	if archived.Epoch != 1 {
		t.Fatalf("archived epoch = %d, want 1", archived.Epoch)
	}
	if archived.Board.CurrentWinner == nil || archived.Board.CurrentWinner.Commander != "Emperor" {
		t.Fatalf("archive lost the closing champion")
	}
}

func TestNextResetTimeLandsAtQuietHour(t *testing.T) {
	now := time.Date(2026, time.May, 1, 15, 30, 0, 0, time.UTC)
	reset := nextResetTime(now, 7)
	want := time.Date(2026, time.May, 9, 0, 1, 0, 0, time.UTC)
	if !reset.Equal(want) {
		t.Fatalf("nextResetTime = %v, want %v", reset, want)
	}
}

func TestAdminResetNeedsMatchingToken(t *testing.T) {
	w := newTestWorld(t)
	seedTestCommander(t, w, "Pilot")
	w.accounts.SetAdminAccount("overseer")
	if err := w.accounts.Register("overseer", "secret1"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, err := w.RequestAdminReset("pilot-owner"); RejectionCode(err) != RejectNotOwner {
		t.Fatalf("non-admin request error = %v, want NOT_OWNER", err)
	}

	token, err := w.RequestAdminReset("overseer")
	if err != nil {
		t.Fatalf("RequestAdminReset returned error: %v", err)
	}
	if err := w.ConfirmAdminReset("overseer", "bogus"); RejectionCode(err) != RejectInvalidRequest {
		t.Fatalf("wrong-token confirm error = %v, want INVALID_REQUEST", err)
	}
	if err := w.ConfirmAdminReset("overseer", token); err != nil {
		t.Fatalf("ConfirmAdminReset returned error: %v", err)
	}
	epoch, _ := w.Epoch()
	if epoch != 2 {
		t.Fatalf("epoch after admin reset = %d, want 2", epoch)
	}
}

func TestAdminResetTokenExpires(t *testing.T) {
	w := newTestWorld(t)
	w.accounts.SetAdminAccount("overseer")
	if err := w.accounts.Register("overseer", "secret1"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	start := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	fixedTime(w, start)

	token, err := w.RequestAdminReset("overseer")
	if err != nil {
		t.Fatalf("RequestAdminReset returned error: %v", err)
	}
	fixedTime(w, start.Add(resetTokenTTL+time.Second))
	if err := w.ConfirmAdminReset("overseer", token); RejectionCode(err) != RejectInvalidRequest {
		t.Fatalf("expired-token confirm error = %v, want INVALID_REQUEST", err)
	}
}
