package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Journal keeps an audit trail of every request sent to the terminal and the
// last status snapshot of each strategy instance.
type Journal struct {
	db *sql.DB
}

type Transaction struct {
	ID      int64     `json:"id"`
	Action  string    `json:"action"`
	Ticket  int64     `json:"ticket"`
	Symbol  string    `json:"symbol"`
	Type    string    `json:"type"`
	Volume  float64   `json:"volume"`
	Price   float64   `json:"price"`
	SL      float64   `json:"sl"`
	TP      float64   `json:"tp"`
	RetCode int       `json:"retcode"`
	Comment string    `json:"comment,omitempty"`
	Error   string    `json:"error,omitempty"`
	Created time.Time `json:"created"`
}

func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("Не удалось создать каталог журнала: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Не удалось открыть журнал: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Не удалось применить миграции журнала: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trade_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			ticket INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			type TEXT NOT NULL,
			volume REAL NOT NULL,
			price REAL NOT NULL,
			sl REAL NOT NULL,
			tp REAL NOT NULL,
			retcode INTEGER NOT NULL,
			comment TEXT NOT NULL,
			error TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_transactions_ticket
			ON trade_transactions(ticket)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			magic INTEGER PRIMARY KEY,
			payload_json TEXT NOT NULL,
			updated_unix_millis INTEGER NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Record appends one transaction. A zero Created is replaced by now.
func (j *Journal) Record(ctx context.Context, t Transaction) error {
	if t.Created.IsZero() {
		t.Created = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO trade_transactions
			(action, ticket, symbol, type, volume, price, sl, tp, retcode, comment, error, created_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Action, t.Ticket, t.Symbol, t.Type, t.Volume, t.Price, t.SL, t.TP,
		t.RetCode, t.Comment, t.Error, t.Created.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("Не удалось записать транзакцию в журнал: %w", err)
	}
	return nil
}

// Recent returns up to limit transactions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, action, ticket, symbol, type, volume, price, sl, tp, retcode, comment, error, created_unix_millis
		 FROM trade_transactions
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать журнал: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var created int64
		err := rows.Scan(
			&t.ID, &t.Action, &t.Ticket, &t.Symbol, &t.Type, &t.Volume, &t.Price,
			&t.SL, &t.TP, &t.RetCode, &t.Comment, &t.Error, &created,
		)
		if err != nil {
			return nil, fmt.Errorf("Не удалось разобрать запись журнала: %w", err)
		}
		t.Created = time.UnixMilli(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeletedTickets returns the tickets of pending orders removed by a successful
// delete request sent at or after since.
func (j *Journal) DeletedTickets(ctx context.Context, since time.Time) (map[int64]bool, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT DISTINCT ticket
		 FROM trade_transactions
		 WHERE action = 'delete' AND error = '' AND created_unix_millis >= ?`,
		since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать удалённые ордера: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var ticket int64
		if err := rows.Scan(&ticket); err != nil {
			return nil, fmt.Errorf("Не удалось разобрать запись журнала: %w", err)
		}
		out[ticket] = true
	}
	return out, rows.Err()
}

// SaveSnapshot stores the encoded status snapshot of the strategy with the
// given magic number, replacing the previous one.
func (j *Journal) SaveSnapshot(ctx context.Context, magic int64, payload []byte) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO snapshots (magic, payload_json, updated_unix_millis)
		 VALUES (?, ?, ?)
		 ON CONFLICT(magic) DO UPDATE SET
			payload_json = excluded.payload_json,
			updated_unix_millis = excluded.updated_unix_millis`,
		magic, string(payload), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("Не удалось сохранить снимок состояния: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot; ok is false when none exists.
func (j *Journal) LoadSnapshot(ctx context.Context, magic int64) (payload []byte, ok bool, err error) {
	var raw string
	err = j.db.QueryRowContext(ctx,
		"SELECT payload_json FROM snapshots WHERE magic = ?",
		magic,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Не удалось загрузить снимок состояния: %w", err)
	}
	return []byte(raw), true, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
