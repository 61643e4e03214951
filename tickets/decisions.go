package tickets

import (
	"sync"
	"time"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeClosed   Outcome = "closed"
)

type Decision struct {
	ChannelID string
	Outcome   Outcome
	StaffID   string
	At        time.Time
}

// Decisions remembers the outcome of each ticket. The first decision on a
// channel wins; later ones are refused.
type Decisions struct {
	mu        sync.Mutex
	byChannel map[string]Decision
}

func NewDecisions() *Decisions {
	return &Decisions{byChannel: make(map[string]Decision)}
}

// Commit records d unless the channel was already decided, in which case the
// earlier decision is returned with ok=false.
func (d *Decisions) Commit(dec Decision) (Decision, bool) {
	if dec.At.IsZero() {
		dec.At = time.Now()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.byChannel[dec.ChannelID]; ok {
		return prev, false
	}
	d.byChannel[dec.ChannelID] = dec
	return dec, true
}

func (d *Decisions) Get(channelID string) (Decision, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dec, ok := d.byChannel[channelID]
	return dec, ok
}

func (d *Decisions) Forget(channelID string) {
	d.mu.Lock()
	delete(d.byChannel, channelID)
	d.mu.Unlock()
}
