package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// startPlanetName is where fresh commanders dock first.
const startPlanetName = "Terra Nova"

// World is the single authoritative aggregate. All mutation flows through
// the apply gate under one write lock; reads take the read lock and never
// observe a partially applied action.
type World struct {
	mu       sync.RWMutex
	cfg      Config
	store    *Store
	accounts *AccountManager
	audit    *AuditLog
	scripts  *scriptEngine

	planets    map[string]*Planet
	commanders map[string]*Commander
	sessions   map[*Session]struct{}
	online     map[string]*Session

	news       newsFeed
	board      WinnerBoard
	epoch      int
	epochStart time.Time

	frozen         bool
	failedSaves    int
	resetToken     string
	resetTokenTime time.Time

	eventRng *rand.Rand
	now      func() time.Time
	seedFn   func() int64
}

// NewWorld loads or seeds the universe and every commander save.
func NewWorld(cfg Config, store *Store, accounts *AccountManager) (*World, error) {
	w := &World{
		cfg:        cfg,
		store:      store,
		accounts:   accounts,
		sessions:   make(map[*Session]struct{}),
		online:     make(map[string]*Session),
		commanders: make(map[string]*Commander),
		now:        time.Now,
	}
	w.eventRng = rand.New(rand.NewSource(time.Now().UnixNano()))
	w.seedFn = func() int64 { return w.eventRng.Int63() }

	snap, err := store.LoadUniverse()
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	now := w.now().UTC()
	if snap == nil {
		w.planets = defaultPlanets(now)
		w.epoch = 1
		w.epochStart = now
	} else {
		w.planets = snap.Planets
		w.news = snap.News
		w.board = snap.Board
		w.epoch = snap.Epoch
		w.epochStart = snap.EpochStart
		if w.epoch == 0 {
			w.epoch = 1
		}
	}
	commanders, err := store.LoadCommanders()
	if err != nil {
		return nil, fmt.Errorf("load commanders: %w", err)
	}
	w.commanders = commanders
	return w, nil
}

// SetScriptEngine attaches the planet event script engine.
func (w *World) SetScriptEngine(engine *scriptEngine) {
	w.mu.Lock()
	w.scripts = engine
	w.mu.Unlock()
}

// SetAuditLog attaches the sqlite audit journal.
func (w *World) SetAuditLog(audit *AuditLog) {
	w.mu.Lock()
	w.audit = audit
	w.mu.Unlock()
}

// Config returns the immutable settings the world was built with.
func (w *World) Config() Config {
	return w.cfg
}

// Accounts exposes the account manager for the action layer.
func (w *World) Accounts() *AccountManager {
	return w.accounts
}

// Epoch reports the current campaign generation and its start time.
func (w *World) Epoch() (int, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.epoch, w.epochStart
}

// apply is the single mutation gate. Every externally visible state change
// funnels through here so actions serialize in call order, a frozen store
// refuses new mutations, and a panicking action cannot take the server
// down with it.
func (w *World) apply(action, actor string, fn func() (map[string]any, error)) (result map[string]any, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frozen {
		return nil, reject(RejectStorageUnavailable, "storage unavailable, mutations are paused")
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithField("action", action).WithField("actor", actor).WithField("panic", r).Error("action panicked")
			result = nil
			err = reject(RejectInternal, "internal error")
		}
	}()
	result, err = fn()
	if err != nil {
		if rej, ok := AsRejection(err); ok {
			log.WithField("action", action).WithField("actor", actor).WithField("class", rej.Class().String()).Debug(rej.Message)
		} else {
			log.WithField("action", action).WithField("actor", actor).WithError(err).Warn("action failed")
		}
	}
	return result, err
}

func (w *World) commanderLocked(name string) (*Commander, error) {
	c, ok := w.commanders[foldName(name)]
	if !ok || c.Retired {
		return nil, reject(RejectInvalidTarget, "no commander named %s", name)
	}
	return c, nil
}

func (w *World) planetLocked(name string) (*Planet, error) {
	p, ok := w.planets[foldName(name)]
	if !ok {
		return nil, reject(RejectInvalidTarget, "no planet named %s", name)
	}
	return p, nil
}

// resolvePlanetLocked matches a possibly partial planet name.
func (w *World) resolvePlanetLocked(target string) (*Planet, error) {
	if p, ok := w.planets[foldName(target)]; ok {
		return p, nil
	}
	names := make([]string, 0, len(w.planets))
	for _, p := range w.planets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	if i, ok := uniqueMatch(target, names, true); ok {
		return w.planets[foldName(names[i])], nil
	}
	return nil, reject(RejectInvalidTarget, "no planet named %s", target)
}

// dockedPlanetLocked returns the planet the commander is docked at.
func (w *World) dockedPlanetLocked(c *Commander) (*Planet, error) {
	p, ok := w.planets[foldName(c.Location)]
	if !ok {
		return nil, reject(RejectInvalidTarget, "current location %s is unknown", c.Location)
	}
	return p, nil
}

// CreateCommander registers a new character for the account. Name
// uniqueness is server-wide and checked under the write lock, so exactly
// one of two concurrent registrations of the same name can succeed.
func (w *World) CreateCommander(account, name string) (map[string]any, error) {
	return w.apply("create_character", account, func() (map[string]any, error) {
		if err := validateName(name); err != nil {
			return nil, reject(RejectInvalidRequest, "%s", err.Error())
		}
		if foldName(name) == foldName(account) {
			return nil, reject(RejectNameConflict, "character name may not match the account name")
		}
		if _, exists := w.commanders[foldName(name)]; exists {
			return nil, reject(RejectNameConflict, "commander %s already exists", name)
		}
		now := w.now().UTC()
		c := newCommander(displayName(name), foldName(account), startPlanetName, &w.cfg, now)
		w.commanders[foldName(name)] = c
		if err := w.store.SaveCommander(c); err != nil {
			delete(w.commanders, foldName(name))
			return nil, fmt.Errorf("save commander: %w", err)
		}
		if err := w.accounts.AddCharacter(account, c.Name); err != nil {
			delete(w.commanders, foldName(name))
			if rmErr := w.store.DeleteCommander(c.Name); rmErr != nil {
				log.WithField("commander", c.Name).WithError(rmErr).Error("unwind orphaned commander save failed")
			}
			return nil, err
		}
		return map[string]any{"commander": w.commanderReportLocked(c)}, nil
	})
}

// AttachSession registers a connection for broadcast delivery.
func (w *World) AttachSession(s *Session) {
	w.mu.Lock()
	w.sessions[s] = struct{}{}
	w.mu.Unlock()
}

// DetachSession drops a closed connection and saves its character.
func (w *World) DetachSession(s *Session) {
	name := s.Commander()
	w.mu.Lock()
	delete(w.sessions, s)
	if name != "" && w.online[foldName(name)] == s {
		delete(w.online, foldName(name))
	}
	var save *Commander
	if name != "" {
		if c, ok := w.commanders[foldName(name)]; ok {
			save = c
		}
	}
	var err error
	if save != nil {
		err = w.store.SaveCommander(save)
	}
	w.mu.Unlock()
	if err != nil {
		log.WithField("commander", name).WithError(err).Error("save on disconnect failed")
	}
}

// BindCommander marks the session as the live connection for a character.
// An existing connection for the same character is superseded.
func (w *World) BindCommander(s *Session, name string) {
	w.mu.Lock()
	w.online[foldName(name)] = s
	w.mu.Unlock()
}

// ReleaseCommander clears the live-connection binding on logout.
func (w *World) ReleaseCommander(s *Session, name string) {
	w.mu.Lock()
	if w.online[foldName(name)] == s {
		delete(w.online, foldName(name))
	}
	w.mu.Unlock()
}

// Broadcast fans an event out to every attached session. Slow clients drop
// frames rather than blocking the caller.
func (w *World) Broadcast(event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("encode broadcast")
		return
	}
	w.mu.RLock()
	targets := make([]*Session, 0, len(w.sessions))
	for s := range w.sessions {
		targets = append(targets, s)
	}
	w.mu.RUnlock()
	for _, s := range targets {
		s.Send(frame)
	}
}

// notifyLocked pushes an event to one commander's live session, if any.
func (w *World) notifyLocked(folded string, event Event) {
	s, ok := w.online[folded]
	if !ok {
		return
	}
	frame, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.Send(frame)
}

// deliverSystemMailLocked drops engine mail into a commander's inbox and
// pings the live session.
func (w *World) deliverSystemMailLocked(c *Commander, subject, body string) {
	msg := newMessage(systemSender, subject, body, &w.cfg, w.now())
	c.deliverMail(msg, &w.cfg)
	w.notifyLocked(foldName(c.Name), Event{Event: "mail", Data: map[string]any{
		"id":      msg.ID,
		"from":    msg.From,
		"subject": msg.Subject,
	}})
}

// SendMail delivers commander-to-commander mail.
func (w *World) SendMail(from, to, subject, body string) (map[string]any, error) {
	return w.apply("send_mail", from, func() (map[string]any, error) {
		sender, err := w.commanderLocked(from)
		if err != nil {
			return nil, err
		}
		recipient, err := w.commanderLocked(to)
		if err != nil {
			return nil, err
		}
		if normalizeMailBody(body, &w.cfg) == "" {
			return nil, reject(RejectInvalidRequest, "message body is required")
		}
		msg := newMessage(sender.Name, subject, body, &w.cfg, w.now())
		recipient.deliverMail(msg, &w.cfg)
		w.notifyLocked(foldName(recipient.Name), Event{Event: "mail", Data: map[string]any{
			"id":      msg.ID,
			"from":    msg.From,
			"subject": msg.Subject,
		}})
		return map[string]any{"id": msg.ID}, nil
	})
}

// Mailbox returns a commander's inbox and archive.
func (w *World) Mailbox(name string) ([]Message, []Message, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, err := w.commanderLocked(name)
	if err != nil {
		return nil, nil, err
	}
	inbox := make([]Message, len(c.Inbox))
	copy(inbox, c.Inbox)
	archive := make([]Message, len(c.Archive))
	copy(archive, c.Archive)
	return inbox, archive, nil
}

// ReadMail marks a message read and returns it.
func (w *World) ReadMail(name, id string) (Message, error) {
	result, err := w.apply("read_mail", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		msg, ok := c.readMail(id)
		if !ok {
			return nil, reject(RejectInvalidTarget, "no message %s", id)
		}
		return map[string]any{"message": msg}, nil
	})
	if err != nil {
		return Message{}, err
	}
	return result["message"].(Message), nil
}

// ArchiveMail moves an inbox message into the bounded archive.
func (w *World) ArchiveMail(name, id string) error {
	_, err := w.apply("save_mail", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		return nil, c.archiveMail(id, &w.cfg)
	})
	return err
}

// DeleteMail removes a message from either box.
func (w *World) DeleteMail(name, id string) error {
	_, err := w.apply("delete_mail", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		return nil, c.deleteMail(id)
	})
	return err
}

// News returns the most recent feed items, newest last.
func (w *World) News(limit int) []NewsItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.news.recent(limit)
}

// PostNews publishes a feed item and broadcasts it.
func (w *World) PostNews(headline, body string) {
	w.mu.Lock()
	item := w.news.post(headline, body, w.cfg.NewsRetention, w.now())
	w.mu.Unlock()
	w.Broadcast(Event{Event: "news", Data: map[string]any{
		"headline": item.Headline,
		"body":     item.Body,
	}})
}

// Warp moves a commander to another planet, burning fuel and charging the
// docking fee on arrival.
func (w *World) Warp(name, target string) (map[string]any, error) {
	return w.apply("warp", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		from, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		dest, err := w.resolvePlanetLocked(target)
		if err != nil {
			return nil, err
		}
		if foldName(dest.Name) == foldName(from.Name) {
			return nil, reject(RejectInvalidTarget, "already docked at %s", dest.Name)
		}
		now := w.now()
		if c.barredFrom(foldName(dest.Name), now) {
			return nil, reject(RejectBarred, "you are barred from %s", dest.Name)
		}
		distance := Distance(from, dest)
		burn := distance * c.Ship.FuelBurnPerUnit()
		if c.Ship.Fuel < burn {
			return nil, reject(RejectInsufficientResources, "need %.1f fuel, have %.1f", burn, c.Ship.Fuel)
		}
		fee := 0
		if dest.DockingFee > 0 && dest.Owner != foldName(c.Name) {
			fee = dest.DockingFee
			if c.Credits < fee {
				return nil, reject(RejectInsufficientResources, "docking fee is %d credits", fee)
			}
		}
		c.Ship.Fuel -= burn
		if fee > 0 {
			c.Credits -= fee
			dest.CreditBalance += fee
		}
		c.Location = dest.Name
		dest.regenDefenses(&w.cfg, now)
		if w.scripts != nil && dest.Script != "" {
			if line := w.scripts.OnDock(dest.Script, map[string]any{
				"planet":    dest.Name,
				"commander": c.Name,
				"credits":   c.Credits,
			}); line != "" {
				w.notifyLocked(foldName(c.Name), Event{Event: "hail", Data: map[string]any{
					"planet": dest.Name,
					"text":   line,
				}})
			}
		}
		return map[string]any{
			"planet":      dest.Name,
			"fuel":        c.Ship.Fuel,
			"docking_fee": fee,
			"distance":    distance,
		}, nil
	})
}

const fuelPricePerUnit = 3

// Refuel tops the tank up to full for credits.
func (w *World) Refuel(name string) (map[string]any, error) {
	return w.apply("refuel", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		missing := c.Ship.MaxFuel - c.Ship.Fuel
		if missing <= 0 {
			return nil, reject(RejectInvalidRequest, "tank is already full")
		}
		cost := int(missing*fuelPricePerUnit + 0.5)
		if cost < 1 {
			cost = 1
		}
		if c.Credits < cost {
			return nil, reject(RejectInsufficientResources, "refuel costs %d credits", cost)
		}
		c.Credits -= cost
		c.Ship.Fuel = c.Ship.MaxFuel
		return map[string]any{"fuel": c.Ship.Fuel, "cost": cost}, nil
	})
}

// ClaimPlanet takes ownership of an unclaimed world the commander is
// docked at.
func (w *World) ClaimPlanet(name string) (map[string]any, error) {
	return w.apply("claim_planet", name, func() (map[string]any, error) {
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		if planet.Owner != "" {
			return nil, reject(RejectNotOwner, "%s is already claimed", planet.Name)
		}
		planet.Owner = foldName(c.Name)
		c.grantPlanet(planet.Name)
		w.news.post(fmt.Sprintf("%s claims %s", c.Name, planet.Name), "", w.cfg.NewsRetention, w.now())
		return map[string]any{"planet": planet.Name}, nil
	})
}

// PlanetDeposit moves credits from the owner into the planet treasury.
func (w *World) PlanetDeposit(name, planetName string, amount int) (map[string]any, error) {
	return w.apply("planet_deposit", name, func() (map[string]any, error) {
		if amount <= 0 {
			return nil, reject(RejectInvalidRequest, "amount must be positive")
		}
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.planetLocked(planetName)
		if err != nil {
			return nil, err
		}
		if planet.Owner != foldName(c.Name) {
			return nil, reject(RejectNotOwner, "you do not own %s", planet.Name)
		}
		if c.Credits < amount {
			return nil, reject(RejectInsufficientResources, "only %d credits on hand", c.Credits)
		}
		c.Credits -= amount
		planet.CreditBalance += amount
		return map[string]any{"planet_balance": planet.CreditBalance, "credits": c.Credits}, nil
	})
}

// TransferDefense moves fighters or shield charge from the docked ship to
// an owned planet's garrison.
func (w *World) TransferDefense(name string, fighters, shields int) (map[string]any, error) {
	return w.apply("transfer_defense", name, func() (map[string]any, error) {
		if fighters < 0 || shields < 0 || (fighters == 0 && shields == 0) {
			return nil, reject(RejectInvalidRequest, "nothing to transfer")
		}
		c, err := w.commanderLocked(name)
		if err != nil {
			return nil, err
		}
		planet, err := w.dockedPlanetLocked(c)
		if err != nil {
			return nil, err
		}
		if planet.Owner != foldName(c.Name) {
			return nil, reject(RejectNotOwner, "you do not own %s", planet.Name)
		}
		if c.Ship.Fighters < fighters {
			return nil, reject(RejectInsufficientResources, "only %d fighters aboard", c.Ship.Fighters)
		}
		if c.Ship.Shields < shields {
			return nil, reject(RejectInsufficientResources, "only %d shield charge aboard", c.Ship.Shields)
		}
		c.Ship.Fighters -= fighters
		c.Ship.Shields -= shields
		planet.Defenders += fighters
		planet.Shields += shields
		if planet.Defenders > planet.BaseDefenders {
			planet.BaseDefenders = planet.Defenders
		}
		if planet.Shields > planet.BaseShields {
			planet.BaseShields = planet.Shields
		}
		return map[string]any{
			"planet_defenders": planet.Defenders,
			"planet_shields":   planet.Shields,
		}, nil
	})
}

// commanderReportLocked assembles the info payload for a commander.
func (w *World) commanderReportLocked(c *Commander) map[string]any {
	return map[string]any{
		"name":               c.Name,
		"credits":            c.Credits,
		"bank_balance":       c.BankBalance,
		"location":           c.Location,
		"cargo":              c.Cargo,
		"cargo_units":        c.cargoUnits(),
		"cargo_capacity":     c.Ship.CargoCapacity(),
		"ship":               c.Ship,
		"authority_standing": c.AuthorityStanding,
		"authority_label":    c.AuthorityLabel(),
		"frontier_standing":  c.FrontierStanding,
		"frontier_label":     c.FrontierLabel(),
		"owned_planets":      c.OwnedPlanets,
		"win_streak":         c.WinStreak,
		"unread_mail":        countUnread(c.Inbox),
	}
}

func countUnread(inbox []Message) int {
	unread := 0
	for _, msg := range inbox {
		if !msg.Read {
			unread++
		}
	}
	return unread
}

// CommanderReport returns the info payload for one commander.
func (w *World) CommanderReport(name string) (map[string]any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, err := w.commanderLocked(name)
	if err != nil {
		return nil, err
	}
	return w.commanderReportLocked(c), nil
}

// viewedPlanetLocked resolves a report target: the named planet, or the
// viewer's docked planet when no name is given.
func (w *World) viewedPlanetLocked(viewer, planetName string) (*Planet, error) {
	if strings.TrimSpace(planetName) == "" {
		c, err := w.commanderLocked(viewer)
		if err != nil {
			return nil, err
		}
		return w.dockedPlanetLocked(c)
	}
	return w.resolvePlanetLocked(planetName)
}

// PlanetReport returns the public view of a planet plus its market quotes.
// An empty planet name reports the viewer's docked planet.
func (w *World) PlanetReport(viewer, planetName string) (map[string]any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	planet, err := w.viewedPlanetLocked(viewer, planetName)
	if err != nil {
		return nil, err
	}
	market := make([]map[string]any, 0, len(planet.Market))
	for _, goodName := range planet.ListingNames() {
		listing := planet.Market[foldName(goodName)]
		good, _ := LookupGood(goodName)
		entry := map[string]any{
			"good":  listing.Good,
			"price": w.quoteLocked(planet, listing),
			"stock": listing.Stock,
		}
		if good.Contraband {
			entry["contraband"] = true
			entry["required_bribe_level"] = requiredBribeLevel(good)
		}
		market = append(market, entry)
	}
	owner := ""
	if planet.Owner != "" {
		if ownerCmdr, ok := w.commanders[planet.Owner]; ok {
			owner = ownerCmdr.Name
		} else {
			owner = planet.Owner
		}
	}
	return map[string]any{
		"name":           planet.Name,
		"x":              planet.X,
		"y":              planet.Y,
		"tech_level":     planet.TechLevel,
		"government":     planet.Government,
		"population":     planet.Population,
		"has_bank":       planet.HasBank,
		"security_level": planet.SecurityLevel,
		"smuggler_hub":   planet.SmugglerHub,
		"docking_fee":    planet.DockingFee,
		"owner":          owner,
		"defenders":      planet.Defenders,
		"shields":        planet.Shields,
		"market":         market,
	}, nil
}

// GalaxyMap lists every planet with coordinates and ownership, the way a
// chart vendor would sell it.
func (w *World) GalaxyMap() []map[string]any {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.planets))
	for _, p := range w.planets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		p := w.planets[foldName(name)]
		claimed := p.Owner != ""
		out = append(out, map[string]any{
			"name":    p.Name,
			"x":       p.X,
			"y":       p.Y,
			"claimed": claimed,
		})
	}
	return out
}

// Checkpoint writes the universe snapshot and every commander save. It
// runs under the read lock so it never interleaves with a mutation.
func (w *World) Checkpoint() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.checkpointLocked()
}

func (w *World) checkpointLocked() error {
	for _, c := range w.commanders {
		if err := w.store.SaveCommander(c); err != nil {
			return fmt.Errorf("save commander %s: %w", c.Name, err)
		}
	}
	snap := &UniverseSnapshot{
		Epoch:      w.epoch,
		EpochStart: w.epochStart,
		Planets:    w.planets,
		News:       w.news,
		Board:      w.board,
	}
	if err := w.store.SaveUniverse(snap); err != nil {
		return fmt.Errorf("save universe: %w", err)
	}
	return nil
}

// RecordCheckpointFailure counts a failed checkpoint and freezes mutation
// once the configured threshold is crossed.
func (w *World) RecordCheckpointFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failedSaves++
	if w.failedSaves >= w.cfg.CheckpointFreezeThreshold && !w.frozen {
		w.frozen = true
		log.WithField("failures", w.failedSaves).Error("checkpoint failures exceeded threshold, freezing mutations")
	}
}

// RecordCheckpointSuccess clears the failure streak and unfreezes.
func (w *World) RecordCheckpointSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failedSaves = 0
	if w.frozen {
		w.frozen = false
		log.Info("storage recovered, mutations resumed")
	}
}

// Frozen reports whether mutations are currently refused.
func (w *World) Frozen() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frozen
}
