package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// JSONStore keeps the ban list as one flat JSON array. Every mutation
// rewrites the whole file.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

func NewJSONStore(path string) (*JSONStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create ban list dir")
		}
	}
	s := &JSONStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *JSONStore) load() ([]BanRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []BanRecord{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read ban list")
	}
	var bans []BanRecord
	if err := json.Unmarshal(data, &bans); err != nil {
		return nil, errors.Wrapf(err, "parse %s", s.path)
	}
	return bans, nil
}

func (s *JSONStore) save(bans []BanRecord) error {
	if bans == nil {
		bans = []BanRecord{}
	}
	data, err := json.MarshalIndent(bans, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(s.path, data, 0644), "write ban list")
}

func (s *JSONStore) IsBanned(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bans, err := s.load()
	if err != nil {
		return false, err
	}
	return indexOf(bans, userID) >= 0, nil
}

func (s *JSONStore) AddBan(userID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bans, err := s.load()
	if err != nil {
		return false, err
	}
	if indexOf(bans, userID) >= 0 {
		return false, nil
	}
	bans = append(bans, BanRecord{UserID: userID, Reason: reason, Timestamp: time.Now().UTC()})
	if err := s.save(bans); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JSONStore) RemoveBan(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bans, err := s.load()
	if err != nil {
		return false, err
	}
	idx := indexOf(bans, userID)
	if idx < 0 {
		return false, nil
	}
	bans = append(bans[:idx], bans[idx+1:]...)
	if err := s.save(bans); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JSONStore) List() ([]BanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore) Close() error { return nil }

func indexOf(bans []BanRecord, userID string) int {
	for idx, b := range bans {
		if b.UserID == userID {
			return idx
		}
	}
	return -1
}
