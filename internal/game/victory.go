package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// WinnerRecord is one archived campaign outcome.
type WinnerRecord struct {
	Commander    string    `json:"commander"`
	Epoch        int       `json:"epoch"`
	OwnedPlanets int       `json:"owned_planets"`
	OwnershipPct float64   `json:"ownership_pct"`
	TotalCredits int       `json:"total_credits"`
	DeclaredAt   time.Time `json:"declared_at"`
}

// WinnerBoard tracks the reigning champion and the bounded history.
type WinnerBoard struct {
	CurrentWinner  *WinnerRecord  `json:"current_winner,omitempty"`
	ScheduledReset time.Time      `json:"scheduled_reset,omitempty"`
	LastReset      time.Time      `json:"last_reset,omitempty"`
	History        []WinnerRecord `json:"history,omitempty"`
}

const winnerHistoryLimit = 50

// broadcastLocked fans an event out while the world lock is already held.
func (w *World) broadcastLocked(event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		return
	}
	for s := range w.sessions {
		s.Send(frame)
	}
}

// candidateLocked computes a commander's victory stats, or false when the
// commander fails the campaign filters.
func (w *World) candidateLocked(c *Commander) (WinnerRecord, bool) {
	if c.Retired {
		return WinnerRecord{}, false
	}
	owned := 0
	for _, p := range w.planets {
		if p.Owner == foldName(c.Name) {
			owned++
		}
	}
	total := len(w.planets)
	if total == 0 || owned == 0 {
		return WinnerRecord{}, false
	}
	pct := float64(owned) / float64(total) * 100
	record := WinnerRecord{
		Commander:    c.Name,
		Epoch:        w.epoch,
		OwnedPlanets: owned,
		OwnershipPct: pct,
		TotalCredits: c.Credits + c.BankBalance,
	}
	if pct < w.cfg.VictoryPlanetOwnershipPct {
		return record, false
	}
	if c.AuthorityStanding < w.cfg.VictoryAuthorityMin || c.AuthorityStanding > w.cfg.VictoryAuthorityMax {
		return record, false
	}
	if c.FrontierStanding < w.cfg.VictoryFrontierMin || c.FrontierStanding > w.cfg.VictoryFrontierMax {
		return record, false
	}
	return record, true
}

// EvaluateCampaign is the controller pass: declare a champion when one
// qualifies, and execute the scheduled reset when its time arrives. It
// runs under the same exclusive lock as every other mutation so it never
// observes a torn world.
func (w *World) EvaluateCampaign() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now().UTC()

	if !w.board.ScheduledReset.IsZero() && !now.Before(w.board.ScheduledReset) {
		return w.resetCampaignLocked(now, "scheduled")
	}
	if w.board.CurrentWinner != nil {
		return nil
	}

	candidates := make([]WinnerRecord, 0, 4)
	for _, c := range w.commanders {
		if record, ok := w.candidateLocked(c); ok {
			candidates = append(candidates, record)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.OwnedPlanets != b.OwnedPlanets {
			return a.OwnedPlanets > b.OwnedPlanets
		}
		if a.OwnershipPct != b.OwnershipPct {
			return a.OwnershipPct > b.OwnershipPct
		}
		if a.TotalCredits != b.TotalCredits {
			return a.TotalCredits > b.TotalCredits
		}
		return a.Commander < b.Commander
	})
	winner := candidates[0]
	winner.DeclaredAt = now
	w.declareWinnerLocked(winner, now)
	return nil
}

func (w *World) declareWinnerLocked(winner WinnerRecord, now time.Time) {
	w.board.CurrentWinner = &winner
	w.board.History = append(w.board.History, winner)
	if len(w.board.History) > winnerHistoryLimit {
		w.board.History = append(w.board.History[:0:0], w.board.History[len(w.board.History)-winnerHistoryLimit:]...)
	}
	w.board.ScheduledReset = nextResetTime(now, w.cfg.VictoryResetDays)

	body := fmt.Sprintf(
		"Commander %s controls %.1f%% of charted space (%d planets) and is declared GALACTIC CHAMPION of epoch %d. The campaign resets on %s.",
		winner.Commander, winner.OwnershipPct, winner.OwnedPlanets, winner.Epoch,
		w.board.ScheduledReset.Format("2006-01-02 15:04 MST"))
	for _, c := range w.commanders {
		w.deliverSystemMailLocked(c, "GALACTIC CHAMPION DECLARED", body)
	}
	w.news.post(fmt.Sprintf("GALACTIC CHAMPION: %s", winner.Commander), body, w.cfg.NewsRetention, now)
	w.broadcastLocked(Event{Event: "winner", Data: map[string]any{
		"commander":       winner.Commander,
		"epoch":           winner.Epoch,
		"ownership_pct":   winner.OwnershipPct,
		"scheduled_reset": w.board.ScheduledReset,
	}})
	log.WithField("commander", winner.Commander).WithField("epoch", winner.Epoch).Info("campaign winner declared")
}

// nextResetTime lands on 00:01 local the day after the reset interval, so
// campaigns always turn over at a quiet hour.
func nextResetTime(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	target := now.AddDate(0, 0, days)
	return time.Date(target.Year(), target.Month(), target.Day()+1, 0, 1, 0, 0, target.Location())
}

// resetCampaignLocked archives the outgoing epoch and reinitializes the
// world for the next one. Accounts and the winner history survive.
func (w *World) resetCampaignLocked(now time.Time, trigger string) error {
	snap := &UniverseSnapshot{
		Epoch:      w.epoch,
		EpochStart: w.epochStart,
		Planets:    w.planets,
		News:       w.news,
		Board:      w.board,
	}
	if err := w.store.ArchiveEpoch(w.epoch, snap); err != nil {
		log.WithError(err).Error("epoch archive failed, reset deferred")
		return fmt.Errorf("archive epoch %d: %w", w.epoch, err)
	}

	closing := w.epoch
	w.epoch++
	w.epochStart = now
	w.board.CurrentWinner = nil
	w.board.ScheduledReset = time.Time{}
	w.board.LastReset = now
	for _, p := range w.planets {
		p.resetForNewEpoch(now)
	}
	for _, c := range w.commanders {
		c.resetForNewEpoch(startPlanetName, &w.cfg, now)
		w.deliverSystemMailLocked(c, "NEW CAMPAIGN",
			fmt.Sprintf("Epoch %d has ended (%s reset). All commanders start fresh at %s.", closing, trigger, startPlanetName))
	}
	w.news.post(fmt.Sprintf("Epoch %d begins", w.epoch), "", w.cfg.NewsRetention, now)
	w.broadcastLocked(Event{Event: "campaign_reset", Data: map[string]any{
		"epoch": w.epoch,
	}})

	if err := w.checkpointLocked(); err != nil {
		log.WithError(err).Error("post-reset checkpoint failed")
	}
	log.WithField("epoch", w.epoch).WithField("trigger", trigger).Info("campaign reset complete")
	return nil
}

// Board returns a copy of the winner board.
func (w *World) Board() WinnerBoard {
	w.mu.RLock()
	defer w.mu.RUnlock()
	board := w.board
	if w.board.CurrentWinner != nil {
		winner := *w.board.CurrentWinner
		board.CurrentWinner = &winner
	}
	board.History = append([]WinnerRecord(nil), w.board.History...)
	return board
}

const resetTokenTTL = 5 * time.Minute

// RequestAdminReset begins the double-confirmed manual reset: the caller
// receives a token that must come back on the confirm call.
func (w *World) RequestAdminReset(account string) (string, error) {
	if !w.accounts.IsAdmin(account) {
		return "", reject(RejectNotOwner, "administrator access required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetToken = uuid.NewString()
	w.resetTokenTime = w.now()
	return w.resetToken, nil
}

// ConfirmAdminReset executes the manual reset when the token matches and
// has not expired.
func (w *World) ConfirmAdminReset(account, token string) error {
	if !w.accounts.IsAdmin(account) {
		return reject(RejectNotOwner, "administrator access required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resetToken == "" || token != w.resetToken {
		return reject(RejectInvalidRequest, "reset confirmation token does not match")
	}
	if w.now().Sub(w.resetTokenTime) > resetTokenTTL {
		w.resetToken = ""
		return reject(RejectInvalidRequest, "reset confirmation token expired, request again")
	}
	w.resetToken = ""
	return w.resetCampaignLocked(w.now().UTC(), "administrative")
}
