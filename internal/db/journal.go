package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/events"
)

// Journal records packets the client could not fully decode: unknown
// opcodes, short reads and framing errors.
type Journal struct {
	db     *Database
	logger zerolog.Logger
}

// Entry is one journal row.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Opcode     uint16    `json:"opcode"`
	Length     int       `json:"length"`
	ShortReads int       `json:"short_reads,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OpcodeCount is the number of journal rows for one opcode.
type OpcodeCount struct {
	Opcode uint16    `json:"opcode"`
	Count  int       `json:"count"`
	Last   time.Time `json:"last"`
}

// NewJournal opens the journal database at path and migrates its schema.
func NewJournal(path string) (*Journal, error) {
	database, err := NewDatabase(path)
	if err != nil {
		return nil, err
	}
	j := &Journal{
		db:     database,
		logger: log.With().Str("component", "journal").Logger(),
	}
	if err := j.migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}
	return j, nil
}

// journalSchema lists the schema steps in order. Append, never edit.
var journalSchema = []string{
	`CREATE TABLE packet_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		opcode INTEGER NOT NULL DEFAULT 0,
		length INTEGER NOT NULL DEFAULT 0,
		short_reads INTEGER NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX idx_journal_kind ON packet_journal(kind);
	CREATE INDEX idx_journal_created ON packet_journal(created_at);`,
}

func (j *Journal) migrate() error {
	version, err := j.db.Migrate(journalSchema)
	if err != nil {
		return err
	}
	j.logger.Debug().Int("schema_version", version).Msg("journal schema migrated")
	return nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts e. A zero CreatedAt is set to now.
func (j *Journal) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := j.db.Exec(
		`INSERT INTO packet_journal (session_id, kind, opcode, length, short_reads, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Kind, int(e.Opcode), e.Length, e.ShortReads, e.Detail, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty kind
// matches every kind.
func (j *Journal) Recent(limit int, kind string) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(
		`SELECT id, session_id, kind, opcode, length, short_reads, detail, created_at
		 FROM packet_journal
		 WHERE ? = '' OR kind = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			opcode int
			ms     int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &opcode, &e.Length, &e.ShortReads, &e.Detail, &ms); err != nil {
			return nil, err
		}
		e.Opcode = uint16(opcode)
		e.CreatedAt = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TopUnknown returns the most frequent unknown opcodes.
func (j *Journal) TopUnknown(limit int) ([]OpcodeCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := j.db.Query(
		`SELECT opcode, COUNT(*), MAX(created_at)
		 FROM packet_journal
		 WHERE kind = ?
		 GROUP BY opcode
		 ORDER BY COUNT(*) DESC, opcode
		 LIMIT ?`, string(events.EventUnknownPacket), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unknown opcodes: %w", err)
	}
	defer rows.Close()

	var out []OpcodeCount
	for rows.Next() {
		var (
			c      OpcodeCount
			opcode int
			ms     int64
		)
		if err := rows.Scan(&opcode, &c.Count, &ms); err != nil {
			return nil, err
		}
		c.Opcode = uint16(opcode)
		c.Last = time.UnixMilli(ms)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Prune deletes entries older than retention and returns how many were removed.
func (j *Journal) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()
	res, err := j.db.Exec("DELETE FROM packet_journal WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.logger.Info().Int64("removed", n).Dur("retention", retention).Msg("journal pruned")
	}
	return n, nil
}

// Subscribe records every packet diagnostic event published on bus.
func (j *Journal) Subscribe(bus *events.EventBus) {
	for _, t := range events.DiagnosticTypes {
		bus.Subscribe(t, "journal.record", j.onDiagnostic)
	}
}

func (j *Journal) onDiagnostic(_ context.Context, event events.Event) error {
	p, ok := event.Payload.(events.PacketDiagnosticPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return j.Record(Entry{
		SessionID:  p.SessionID,
		Kind:       string(event.Type),
		Opcode:     p.Opcode,
		Length:     p.Length,
		ShortReads: p.ShortReads,
		Detail:     p.Detail,
		CreatedAt:  event.Time,
	})
}
