package tickets

import "sync"

// Registry maps reporters to their ticket channel and staff members to the
// reporter they claimed. It is a cache: the channel topic stays the source of
// truth for who filed a ticket.
type Registry struct {
	mu      sync.RWMutex
	tickets map[string]string // reporterID -> channelID
	claims  map[string]string // staffID -> reporterID
}

func NewRegistry() *Registry {
	return &Registry{
		tickets: make(map[string]string),
		claims:  make(map[string]string),
	}
}

// LinkTicket points reporterID at channelID, replacing any earlier ticket.
func (r *Registry) LinkTicket(reporterID, channelID string) {
	r.mu.Lock()
	r.tickets[reporterID] = channelID
	r.mu.Unlock()
}

func (r *Registry) Ticket(reporterID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.tickets[reporterID]
	return ch, ok
}

// UnlinkTicketChannel forgets the reporter whose ticket is channelID.
// A reporter already relinked to a newer channel is left alone.
func (r *Registry) UnlinkTicketChannel(channelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for reporterID, ch := range r.tickets {
		if ch == channelID {
			delete(r.tickets, reporterID)
			return reporterID, true
		}
	}
	return "", false
}

func (r *Registry) LinkClaim(staffID, reporterID string) {
	r.mu.Lock()
	r.claims[staffID] = reporterID
	r.mu.Unlock()
}

// UnlinkClaim removes the staff member's claim and reports whether one existed.
func (r *Registry) UnlinkClaim(staffID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.claims[staffID]
	delete(r.claims, staffID)
	return ok
}

func (r *Registry) Claim(staffID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reporterID, ok := r.claims[staffID]
	return reporterID, ok
}

// DropClaimsFor removes every claim on reporterID and returns the staff IDs
// that held one.
func (r *Registry) DropClaimsFor(reporterID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dropped []string
	for staffID, rid := range r.claims {
		if rid == reporterID {
			delete(r.claims, staffID)
			dropped = append(dropped, staffID)
		}
	}
	return dropped
}
