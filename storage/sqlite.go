package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bans (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL UNIQUE,
	reason      TEXT NOT NULL DEFAULT '',
	timestamp   TEXT NOT NULL
);
`

type SQLiteStore struct {
	db *sqlx.DB
}

type banRow struct {
	UserID    string `db:"user_id"`
	Reason    string `db:"reason"`
	Timestamp string `db:"timestamp"`
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite open")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) IsBanned(userID string) (bool, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM bans WHERE user_id = ?", userID); err != nil {
		return false, errors.Wrap(err, "query ban")
	}
	return n > 0, nil
}

func (s *SQLiteStore) AddBan(userID, reason string) (bool, error) {
	res, err := s.db.Exec(
		"INSERT INTO bans (user_id, reason, timestamp) VALUES (?, ?, ?) ON CONFLICT(user_id) DO NOTHING",
		userID, reason, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, errors.Wrap(err, "insert ban")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) RemoveBan(userID string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM bans WHERE user_id = ?", userID)
	if err != nil {
		return false, errors.Wrap(err, "delete ban")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) List() ([]BanRecord, error) {
	var rows []banRow
	if err := s.db.Select(&rows, "SELECT user_id, reason, timestamp FROM bans ORDER BY seq"); err != nil {
		return nil, errors.Wrap(err, "list bans")
	}
	bans := make([]BanRecord, 0, len(rows))
	for _, r := range rows {
		ts, _ := time.Parse(time.RFC3339Nano, r.Timestamp)
		bans = append(bans, BanRecord{UserID: r.UserID, Reason: r.Reason, Timestamp: ts})
	}
	return bans, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
