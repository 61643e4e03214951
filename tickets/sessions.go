package tickets

import (
	"sync"
	"time"
)

type ReportState int

const (
	ReasonPending ReportState = iota
	AwaitingCustomReason
)

func (s ReportState) String() string {
	switch s {
	case ReasonPending:
		return "reason_pending"
	case AwaitingCustomReason:
		return "awaiting_custom_reason"
	}
	return "unknown"
}

// Report is a report still being filled in by the reporter in DMs.
type Report struct {
	ReporterID   string
	ReporterName string
	ReporterTag  string
	TargetID     string
	TargetTag    string
	DMChannelID  string
	State        ReportState
	ReasonKey    string
	StartedAt    time.Time
}

type session struct {
	report Report
	timer  *time.Timer
}

// Sessions tracks reports in progress, one per reporter. Each step must be
// completed within the timeout or the report is dropped without a trace.
type Sessions struct {
	mu      sync.Mutex
	timeout time.Duration
	active  map[string]*session

	// OnExpire, when set, is called after a report times out.
	OnExpire func(Report)
}

func NewSessions(timeout time.Duration) *Sessions {
	return &Sessions{
		timeout: timeout,
		active:  make(map[string]*session),
	}
}

// Begin starts a report in ReasonPending, replacing any report the same
// reporter had open.
func (s *Sessions) Begin(r Report) {
	r.State = ReasonPending
	r.ReasonKey = ""
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.active[r.ReporterID]; ok {
		old.timer.Stop()
	}
	sess := &session{report: r}
	s.arm(sess)
	s.active[r.ReporterID] = sess
}

// arm must be called with s.mu held.
func (s *Sessions) arm(sess *session) {
	if sess.timer != nil {
		sess.timer.Stop()
	}
	reporterID := sess.report.ReporterID
	sess.timer = time.AfterFunc(s.timeout, func() {
		s.mu.Lock()
		cur, ok := s.active[reporterID]
		if !ok || cur != sess {
			s.mu.Unlock()
			return
		}
		delete(s.active, reporterID)
		report := cur.report
		s.mu.Unlock()

		if s.OnExpire != nil {
			s.OnExpire(report)
		}
	})
}

// SelectReason records the chosen reason for the reporter's pending report
// against targetID. For "other" the report moves to AwaitingCustomReason with
// a fresh timeout and stays open; any other reason completes the report. ok
// is false when there is no pending report for that target, which is the case
// for a menu left over from a report the reporter has since replaced.
func (s *Sessions) SelectReason(reporterID, targetID, key string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[reporterID]
	if !ok || sess.report.State != ReasonPending || sess.report.TargetID != targetID {
		return Report{}, false
	}
	sess.report.ReasonKey = key

	if key == ReasonOther {
		sess.report.State = AwaitingCustomReason
		s.arm(sess)
		return sess.report, true
	}

	sess.timer.Stop()
	delete(s.active, reporterID)
	return sess.report, true
}

// SubmitCustomReason completes a report waiting for free text.
func (s *Sessions) SubmitCustomReason(reporterID string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[reporterID]
	if !ok || sess.report.State != AwaitingCustomReason {
		return Report{}, false
	}
	sess.timer.Stop()
	delete(s.active, reporterID)
	return sess.report, true
}

func (s *Sessions) Get(reporterID string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.active[reporterID]
	if !ok {
		return Report{}, false
	}
	return sess.report, true
}

func (s *Sessions) AwaitingCustomReason(reporterID string) bool {
	r, ok := s.Get(reporterID)
	return ok && r.State == AwaitingCustomReason
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
