package journal

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// OpenDB opens the terminal-local sqlite journal and prepares its schema.
// The journal records print attempts for reprint and audit; sales truth
// stays with the remote backend.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Print journal: one row per print attempt
CREATE TABLE IF NOT EXISTS print_jobs(
  id TEXT PRIMARY KEY,
  order_number TEXT,
  transaction_id TEXT,
  total NUMERIC NOT NULL DEFAULT 0,
  sale_json TEXT NOT NULL,
  body TEXT NOT NULL,
  outcome TEXT NOT NULL DEFAULT 'pending',
  attempts INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_print_jobs_created_at ON print_jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_print_jobs_order ON print_jobs(order_number);

-- Terminal lock PIN (single row)
CREATE TABLE IF NOT EXISTS terminal(
  id INTEGER PRIMARY KEY CHECK (id = 1),
  pin_hash TEXT NOT NULL,
  updated_at TEXT
);

-- Unlocked UI sessions, same value as the 'tsid' cookie
CREATE TABLE IF NOT EXISTS terminal_sessions(
  id TEXT PRIMARY KEY,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
`
	_, err := db.Exec(schema)
	return err
}

// SeedPIN stores the startup PIN hash if no PIN exists yet (idempotent; safe
// to run every start).
func SeedPIN(db *sqlx.DB, rawPIN string) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM terminal`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] setting initial terminal PIN")
	h, err := bcrypt.GenerateFromPassword([]byte(rawPIN), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO terminal(id, pin_hash) VALUES(1, ?)`, string(h))
	return err
}
