// Package storage persists the ban list.
package storage

import (
	"time"

	"report-bot/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BanRecord is one entry of the ban list. UserID is unique.
type BanRecord struct {
	UserID    string    `json:"userId"    bson:"user_id"`
	Reason    string    `json:"reason"    bson:"reason"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// BanStore is the durable ban list. AddBan and RemoveBan report whether they
// changed anything; neither fails when there is nothing to do.
type BanStore interface {
	IsBanned(userID string) (bool, error)
	AddBan(userID, reason string) (bool, error)
	RemoveBan(userID string) (bool, error)
	List() ([]BanRecord, error)
	Close() error
}

func InitBans(cfg *config.DatabaseConfig) (BanStore, error) {
	switch cfg.Driver {
	case "json":
		s, err := NewJSONStore(cfg.JSON.Path)
		if err != nil {
			return nil, err
		}
		log.Printf("[DB] JSON ban list at %s", cfg.JSON.Path)
		return s, nil

	case "sqlite":
		s, err := NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Printf("[DB] SQLite initialised at %s", cfg.SQLite.Path)
		return s, nil

	case "mongodb":
		s, err := NewMongoStore(cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			return nil, err
		}
		log.Printf("[DB] MongoDB ban list in %s.%s", cfg.MongoDB.Database, mongoBansCollection)
		return s, nil

	default:
		return nil, errors.Errorf("unsupported database driver: %s (use \"json\", \"sqlite\" or \"mongodb\")", cfg.Driver)
	}
}
