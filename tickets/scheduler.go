package tickets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PendingDeletion is a ticket channel waiting to be deleted.
type PendingDeletion struct {
	ChannelID string    `json:"channel_id"`
	Outcome   Outcome   `json:"outcome"`
	DueAt     time.Time `json:"due_at"`
}

type schedulerState struct {
	PendingDeletions []PendingDeletion `json:"pending_deletions"`
}

// Scheduler fires one-shot channel deletions. Due times are written to a
// state file so Restore can re-arm them after a restart; with an empty path
// the schedule only lives in memory.
type Scheduler struct {
	mu      sync.Mutex
	fileMu  sync.Mutex
	path    string
	timers  map[string]*time.Timer
	pending map[string]PendingDeletion
	fire    func(PendingDeletion)
}

func NewScheduler(path string, fire func(PendingDeletion)) *Scheduler {
	return &Scheduler{
		path:    path,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]PendingDeletion),
		fire:    fire,
	}
}

// Schedule arranges for channelID to be deleted after the delay, replacing
// any deletion already scheduled for it.
func (s *Scheduler) Schedule(channelID string, outcome Outcome, after time.Duration) PendingDeletion {
	p := PendingDeletion{ChannelID: channelID, Outcome: outcome, DueAt: time.Now().Add(after).UTC()}

	s.mu.Lock()
	s.arm(p, after)
	s.mu.Unlock()

	if err := s.save(); err != nil {
		log.WithError(err).Warn("[Tickets] Failed to persist deletion schedule")
	}
	return p
}

// arm must be called with s.mu held.
func (s *Scheduler) arm(p PendingDeletion, after time.Duration) {
	if t, ok := s.timers[p.ChannelID]; ok {
		t.Stop()
	}
	s.pending[p.ChannelID] = p
	s.timers[p.ChannelID] = time.AfterFunc(after, func() {
		s.run(p)
	})
}

func (s *Scheduler) run(p PendingDeletion) {
	s.mu.Lock()
	cur, ok := s.pending[p.ChannelID]
	if !ok || !cur.DueAt.Equal(p.DueAt) {
		s.mu.Unlock()
		return
	}
	delete(s.pending, p.ChannelID)
	delete(s.timers, p.ChannelID)
	s.mu.Unlock()

	if err := s.save(); err != nil {
		log.WithError(err).Warn("[Tickets] Failed to persist deletion schedule")
	}
	if s.fire != nil {
		s.fire(p)
	}
}

func (s *Scheduler) Cancel(channelID string) bool {
	s.mu.Lock()
	t, ok := s.timers[channelID]
	if ok {
		t.Stop()
		delete(s.timers, channelID)
		delete(s.pending, channelID)
	}
	s.mu.Unlock()

	if ok {
		if err := s.save(); err != nil {
			log.WithError(err).Warn("[Tickets] Failed to persist deletion schedule")
		}
	}
	return ok
}

// Pending lists scheduled deletions, soonest first.
func (s *Scheduler) Pending() []PendingDeletion {
	s.mu.Lock()
	out := make([]PendingDeletion, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].DueAt.Equal(out[b].DueAt) {
			return out[a].ChannelID < out[b].ChannelID
		}
		return out[a].DueAt.Before(out[b].DueAt)
	})
	return out
}

// Restore re-arms deletions saved by a previous process. Overdue entries
// fire right away.
func (s *Scheduler) Restore() ([]PendingDeletion, error) {
	if s.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read ticket state")
	}
	var st schedulerState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrapf(err, "parse %s", s.path)
	}

	s.mu.Lock()
	for _, p := range st.PendingDeletions {
		remaining := time.Until(p.DueAt)
		if remaining < 0 {
			remaining = 0
		}
		s.arm(p, remaining)
	}
	s.mu.Unlock()

	return st.PendingDeletions, nil
}

// Stop halts all timers without touching the persisted schedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) save() error {
	if s.path == "" {
		return nil
	}
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	st := schedulerState{PendingDeletions: s.Pending()}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}
	return os.WriteFile(s.path, data, 0644)
}
