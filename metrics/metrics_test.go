package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TicketOpened()
	m.TicketOpened()
	m.Decision("approved")
	m.Relayed("staff_to_reporter", true)
	m.Relayed("staff_to_reporter", false)

	if got := testutil.ToFloat64(m.ticketsOpened); got != 2 {
		t.Errorf("tickets opened = %v", got)
	}
	if got := testutil.ToFloat64(m.decisions.WithLabelValues("approved")); got != 1 {
		t.Errorf("approved = %v", got)
	}
	if got := testutil.ToFloat64(m.relayed.WithLabelValues("staff_to_reporter", "failed")); got != 1 {
		t.Errorf("failed relays = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ReportStarted()
	m.ReportExpired()
	m.TicketOpened()
	m.Decision("rejected")
	m.Relayed("reporter_to_ticket", true)
	m.DMFailed()
}
