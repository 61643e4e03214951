package events

import (
	"context"
	"testing"

	"report-bot/config"
)

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey("moderation", ReportApproved); got != "moderation.report.approved" {
		t.Errorf("RoutingKey = %q", got)
	}
	if got := RoutingKey("", BanRemoved); got != "ban.removed" {
		t.Errorf("RoutingKey without prefix = %q", got)
	}
}

func TestNewDisabledIsNoop(t *testing.T) {
	p, err := New(&config.EventsConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(Noop); !ok {
		t.Fatalf("got %T, want Noop", p)
	}
	if err := p.Publish(context.Background(), Event{Type: TicketOpened}); err != nil {
		t.Errorf("Publish: %v", err)
	}
}

func TestDialRequiresURL(t *testing.T) {
	if _, err := New(&config.EventsConfig{Enabled: true}); err == nil {
		t.Fatal("expected error without amqp_url")
	}
}
