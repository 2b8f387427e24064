package game

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// AuditLog journals engagements and trades into sqlite so outcomes can be
// replayed (combat seeds) and analyzed offline. Writes are best-effort:
// a journal failure logs but never fails the action that produced it.
type AuditLog struct {
	db *sql.DB
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS engagements (
	id         TEXT PRIMARY KEY,
	seed       INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	attacker   TEXT NOT NULL,
	defender   TEXT NOT NULL,
	result     TEXT NOT NULL,
	rounds     TEXT NOT NULL,
	loot       INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	commander  TEXT NOT NULL,
	planet     TEXT NOT NULL,
	good       TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	unit_price INTEGER NOT NULL,
	direction  TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
`

// OpenAuditLog opens (and migrates) the journal database.
func OpenAuditLog(path string) (*AuditLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit database: %w", err)
	}
	return &AuditLog{db: db}, nil
}

func (a *AuditLog) Close() error {
	return a.db.Close()
}

// RecordEngagement journals a combat outcome with its seed and round log.
func (a *AuditLog) RecordEngagement(outcome *CombatOutcome) {
	rounds, err := json.Marshal(outcome.Rounds)
	if err != nil {
		log.WithError(err).Warn("encode engagement rounds")
		return
	}
	_, err = a.db.Exec(
		`INSERT INTO engagements (id, seed, kind, attacker, defender, result, rounds, loot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.EngagementID, outcome.Seed, outcome.Kind, outcome.Attacker,
		outcome.Defender, outcome.Result, string(rounds), outcome.LootCredits,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.WithError(err).Warn("journal engagement")
	}
}

// RecordTrade journals one completed exchange.
func (a *AuditLog) RecordTrade(commander, planet string, receipt *TradeReceipt) {
	_, err := a.db.Exec(
		`INSERT INTO trades (commander, planet, good, quantity, unit_price, direction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		commander, planet, receipt.Good, receipt.Quantity, receipt.UnitPrice,
		receipt.Direction, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.WithError(err).Warn("journal trade")
	}
}

// RecordEvent journals a free-form analytics event.
func (a *AuditLog) RecordEvent(name, detail string) {
	_, err := a.db.Exec(
		`INSERT INTO events (name, detail, created_at) VALUES (?, ?, ?)`,
		name, detail, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.WithError(err).Warn("journal event")
	}
}

// EngagementSeed looks a recorded engagement's seed back up, primarily for
// replay tooling and tests.
func (a *AuditLog) EngagementSeed(id string) (int64, error) {
	var seed int64
	err := a.db.QueryRow(`SELECT seed FROM engagements WHERE id = ?`, id).Scan(&seed)
	if err != nil {
		return 0, fmt.Errorf("lookup engagement %s: %w", id, err)
	}
	return seed, nil
}
