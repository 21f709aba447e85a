package journal

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"nabilpos/internal/domain"
)

var ErrBadPIN = errors.New("invalid PIN")

type PrintJob struct {
	ID            string  `db:"id" json:"id"`
	OrderNumber   string  `db:"order_number" json:"order_number"`
	TransactionID string  `db:"transaction_id" json:"transaction_id"`
	Total         float64 `db:"total" json:"total"`
	SaleJSON      string  `db:"sale_json" json:"-"`
	Body          string  `db:"body" json:"-"`
	Outcome       string  `db:"outcome" json:"outcome"`
	Attempts      int     `db:"attempts" json:"attempts"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
	UpdatedAt     *string `db:"updated_at" json:"updated_at,omitempty"`
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record journals one print attempt and returns the job id.
func (s *Store) Record(sale *domain.Sale, txnID, body string) (string, error) {
	raw, err := json.Marshal(sale)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO print_jobs(id, order_number, transaction_id, total, sale_json, body)
		VALUES(?,?,?,?,?,?)`,
		id, sale.OrderNumber, txnID, sale.TotalAmount, string(raw), body)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetOutcome records how the print attempt ended.
func (s *Store) SetOutcome(id, outcome string) error {
	_, err := s.db.Exec(`
		UPDATE print_jobs SET outcome = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		outcome, id)
	return err
}

// BumpAttempts increments the attempt counter on a reprint.
func (s *Store) BumpAttempts(id string) error {
	_, err := s.db.Exec(`
		UPDATE print_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (s *Store) Get(id string) (PrintJob, error) {
	var j PrintJob
	err := s.db.Get(&j, `SELECT * FROM print_jobs WHERE id = ?`, id)
	return j, err
}

// Sale reconstructs the persisted sale snapshot stored with a job.
func (j PrintJob) Sale() (*domain.Sale, error) {
	var sale domain.Sale
	if err := json.Unmarshal([]byte(j.SaleJSON), &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) Recent(limit int) ([]PrintJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var jobs []PrintJob
	err := s.db.Select(&jobs, `
		SELECT * FROM print_jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	return jobs, err
}

// CheckPIN compares a candidate PIN against the stored hash.
func (s *Store) CheckPIN(raw string) error {
	var hash string
	if err := s.db.Get(&hash, `SELECT pin_hash FROM terminal WHERE id = 1`); err != nil {
		if err == sql.ErrNoRows {
			return ErrBadPIN
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) != nil {
		return ErrBadPIN
	}
	return nil
}

// BindSession registers an unlocked UI session id.
func (s *Store) BindSession(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO terminal_sessions(id) VALUES(?)
		ON CONFLICT(id) DO UPDATE SET last_seen = CURRENT_TIMESTAMP`, id)
	return err
}

// SessionValid reports whether the UI session id is unlocked.
func (s *Store) SessionValid(id string) (bool, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM terminal_sessions WHERE id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UnbindSession locks the terminal again.
func (s *Store) UnbindSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM terminal_sessions WHERE id = ?`, id)
	return err
}
