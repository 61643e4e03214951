// Package metrics exposes Prometheus counters for the report workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Metrics is safe to use through a nil pointer; every call is then a no-op.
type Metrics struct {
	reportsStarted prometheus.Counter
	reportsExpired prometheus.Counter
	ticketsOpened  prometheus.Counter
	decisions      *prometheus.CounterVec
	relayed        *prometheus.CounterVec
	dmFailures     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reportsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportbot_reports_started_total",
			Help: "Reports started with /report",
		}),
		reportsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportbot_reports_expired_total",
			Help: "Reports abandoned before a ticket was opened",
		}),
		ticketsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportbot_tickets_opened_total",
			Help: "Ticket channels created",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reportbot_decisions_total",
			Help: "Ticket decisions by outcome",
		}, []string{"outcome"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reportbot_relayed_messages_total",
			Help: "Messages relayed between staff, reporters and tickets",
		}, []string{"direction", "status"}),
		dmFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportbot_dm_failures_total",
			Help: "Direct messages that could not be delivered",
		}),
	}
	reg.MustRegister(m.reportsStarted, m.reportsExpired, m.ticketsOpened, m.decisions, m.relayed, m.dmFailures)
	return m
}

func (m *Metrics) ReportStarted() {
	if m != nil {
		m.reportsStarted.Inc()
	}
}

func (m *Metrics) ReportExpired() {
	if m != nil {
		m.reportsExpired.Inc()
	}
}

func (m *Metrics) TicketOpened() {
	if m != nil {
		m.ticketsOpened.Inc()
	}
}

func (m *Metrics) Decision(outcome string) {
	if m != nil {
		m.decisions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Relayed(direction string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.relayed.WithLabelValues(direction, status).Inc()
}

func (m *Metrics) DMFailed() {
	if m != nil {
		m.dmFailures.Inc()
	}
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("[Metrics] server failed")
		}
	}()
	log.Printf("[Metrics] Serving /metrics on %s", addr)
	return srv
}
