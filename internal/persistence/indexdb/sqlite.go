package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	plog "hexmove.ai/internal/persistence/log"
)

// SQLiteIndex is a queryable secondary index of rulings. The JSONL journal
// stays the source of truth; writes are queued and dropped under pressure.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	drops  atomic.Uint64
}

type reqKind int

const (
	reqRuling reqKind = iota + 1
	reqRules
)

type req struct {
	kind reqKind

	ruling plog.Entry
	rules  rulesRow
}

type rulesRow struct {
	Name   string
	Digest string
}

// Stats reports queue pressure.
type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTotal     uint64
}

// Ruling is one indexed row, as returned by queries.
type Ruling struct {
	Seq          uint64
	Round        int
	Player       string
	PathID       string
	EntityID     string
	Accepted     bool
	Code         string
	StepsApplied int
	MP           int
	AfterDigest  string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return open(path, 4096)
}

func open(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rules (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rulings (
			seq INTEGER PRIMARY KEY,
			time TEXT NOT NULL,
			round INTEGER NOT NULL,
			player TEXT NOT NULL,
			path_id TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			code TEXT,
			steps_applied INTEGER NOT NULL,
			mp INTEGER NOT NULL,
			before_digest TEXT NOT NULL,
			after_digest TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rulings_entity_round ON rulings(entity_id, round);`,
		`CREATE INDEX IF NOT EXISTS idx_rulings_code ON rulings(code);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteEntry(e plog.Entry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqRuling, ruling: e}:
	default:
		s.drops.Add(1)
	}
	return nil
}

// RecordRules stores the digest of the rule set the authority runs with.
func (s *SQLiteIndex) RecordRules(name, digest string) {
	if s == nil || s.closed.Load() || name == "" || digest == "" {
		return
	}
	select {
	case s.ch <- req{kind: reqRules, rules: rulesRow{Name: name, Digest: digest}}:
	default:
		s.drops.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{QueueDepth: len(s.ch), QueueCapacity: cap(s.ch), DropTotal: s.drops.Load()}
}

// Rulings lists the indexed rulings for an entity in sequence order.
func (s *SQLiteIndex) Rulings(ctx context.Context, entityID string) ([]Ruling, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq,round,player,path_id,entity_id,accepted,COALESCE(code,''),steps_applied,mp,COALESCE(after_digest,'')
		 FROM rulings WHERE entity_id=? ORDER BY seq`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Ruling
	for rows.Next() {
		var r Ruling
		var accepted int
		if err := rows.Scan(&r.Seq, &r.Round, &r.Player, &r.PathID, &r.EntityID, &accepted, &r.Code, &r.StepsApplied, &r.MP, &r.AfterDigest); err != nil {
			return nil, err
		}
		r.Accepted = accepted != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// RulesDigest returns the recorded digest for name, or "" if none.
func (s *SQLiteIndex) RulesDigest(ctx context.Context, name string) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM rules WHERE name=?`, name).Scan(&d)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return d, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRuling, _ := s.db.Prepare(`INSERT OR REPLACE INTO rulings(seq,time,round,player,path_id,entity_id,accepted,code,steps_applied,mp,before_digest,after_digest,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertRules, _ := s.db.Prepare(`INSERT OR REPLACE INTO rules(name,digest,updated_at) VALUES(?,?,?)`)
	defer func() {
		if insertRuling != nil {
			_ = insertRuling.Close()
		}
		if insertRules != nil {
			_ = insertRules.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRuling:
			e := r.ruling
			raw, _ := json.Marshal(e)
			accepted := 0
			if e.Accepted {
				accepted = 1
			}
			if insertRuling != nil {
				if _, err := tx.Stmt(insertRuling).Exec(
					int64(e.Seq),
					e.Time,
					e.Round,
					e.Player,
					e.PathID,
					e.EntityID,
					accepted,
					e.Code,
					e.StepsApplied,
					e.MP,
					e.BeforeDigest,
					e.AfterDigest,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqRules:
			if insertRules != nil {
				if _, err := tx.Stmt(insertRules).Exec(r.rules.Name, r.rules.Digest, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		// Commit once the queue drains so readers see rulings promptly.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
