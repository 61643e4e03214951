package tickets

import (
	"strings"
	"testing"
)

func TestTopicRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"1", "123456789012345678", "987654321"} {
		got, ok := ParseTopic(FormatTopic(id))
		if !ok || got != id {
			t.Errorf("ParseTopic(FormatTopic(%q)) = %q, %v", id, got, ok)
		}
	}
}

func TestParseTopicRejectsMalformed(t *testing.T) {
	t.Parallel()

	tcases := map[string]string{
		"empty":          "",
		"no_prefix":      "123456",
		"prefix_only":    "Report by ",
		"other_topic":    "General chat",
		"not_snowflake":  "Report by someone",
		"lowercase":      "report by 123",
		"trailing_words": "Report by 123 and 456",
	}
	for name, topic := range tcases {
		if id, ok := ParseTopic(topic); ok {
			t.Errorf("%s: ParseTopic(%q) = %q, want failure", name, topic, id)
		}
	}
}

func TestParseTopicTrimsWhitespace(t *testing.T) {
	t.Parallel()

	if id, ok := ParseTopic("Report by  555 "); !ok || id != "555" {
		t.Errorf("got %q, %v", id, ok)
	}
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	tcases := map[string]string{
		"Alice":         "report-alice",
		"bob_the.Great": "report-bobthegreat",
		"Ünïcödé":       "report-ncd",
		"x-y-z 99":      "report-x-y-z99",
		"":              "report-",
	}
	for in, want := range tcases {
		if got := ChannelName(in); got != want {
			t.Errorf("ChannelName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReasons(t *testing.T) {
	t.Parallel()

	want := []string{"harassment", "spam", "child-endangerment", "impersonation", "self-harm", "other"}
	got := Reasons()
	if len(got) != len(want) {
		t.Fatalf("got %d reasons, want %d", len(got), len(want))
	}
	for idx, r := range got {
		if r.Key != want[idx] {
			t.Errorf("reason %d = %q, want %q", idx, r.Key, want[idx])
		}
		if len(r.Steps) == 0 || r.Label == "" {
			t.Errorf("reason %q has no label or guide", r.Key)
		}
	}

	r, ok := LookupReason("nonsense")
	if ok || r.Key != ReasonOther {
		t.Errorf("unknown reason resolved to %q, %v", r.Key, ok)
	}

	sh, _ := LookupReason("self-harm")
	if !strings.Contains(sh.Guide(), "emergency help") {
		t.Error("self-harm guide should mention emergency help")
	}
	if !strings.HasPrefix(sh.Guide(), "• ") {
		t.Errorf("guide not bulleted: %q", sh.Guide())
	}
}

func TestRegistryTickets(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, ok := r.Ticket("rep"); ok {
		t.Fatal("empty registry returned a ticket")
	}

	r.LinkTicket("rep", "ch1")
	r.LinkTicket("rep", "ch2")
	if ch, ok := r.Ticket("rep"); !ok || ch != "ch2" {
		t.Errorf("Ticket = %q, %v; want last link ch2", ch, ok)
	}

	if _, ok := r.UnlinkTicketChannel("ch1"); ok {
		t.Error("unlinking a stale channel should not touch the newer link")
	}
	if rep, ok := r.UnlinkTicketChannel("ch2"); !ok || rep != "rep" {
		t.Errorf("UnlinkTicketChannel = %q, %v", rep, ok)
	}
	if _, ok := r.Ticket("rep"); ok {
		t.Error("link survived unlink")
	}
}

func TestRegistryClaims(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.LinkClaim("staff1", "repA")
	r.LinkClaim("staff1", "repB")
	r.LinkClaim("staff2", "repB")

	if rep, ok := r.Claim("staff1"); !ok || rep != "repB" {
		t.Errorf("Claim(staff1) = %q, %v", rep, ok)
	}

	dropped := r.DropClaimsFor("repB")
	if len(dropped) != 2 {
		t.Errorf("dropped %v, want both staff", dropped)
	}

	r.LinkClaim("staff3", "repC")
	if !r.UnlinkClaim("staff3") {
		t.Error("UnlinkClaim reported no claim")
	}
	if r.UnlinkClaim("staff3") {
		t.Error("second UnlinkClaim reported a claim")
	}
	if _, ok := r.Claim("staff3"); ok {
		t.Error("claim survived unlink")
	}
}

func TestRegistryClaimWithoutTicket(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.LinkClaim("staff", "nobody")
	if rep, ok := r.Claim("staff"); !ok || rep != "nobody" {
		t.Errorf("claims are not validated against tickets; got %q, %v", rep, ok)
	}
}

func TestDecisionsFirstWins(t *testing.T) {
	t.Parallel()

	d := NewDecisions()
	first, ok := d.Commit(Decision{ChannelID: "c", Outcome: OutcomeApproved, StaffID: "s1"})
	if !ok {
		t.Fatal("first commit refused")
	}
	prev, ok := d.Commit(Decision{ChannelID: "c", Outcome: OutcomeRejected, StaffID: "s2"})
	if ok {
		t.Fatal("second commit accepted")
	}
	if prev.Outcome != OutcomeApproved || prev.StaffID != "s1" || !prev.At.Equal(first.At) {
		t.Errorf("returned %+v, want the first decision", prev)
	}

	d.Forget("c")
	if _, ok := d.Get("c"); ok {
		t.Error("decision survived Forget")
	}
	if _, ok := d.Commit(Decision{ChannelID: "c", Outcome: OutcomeClosed}); !ok {
		t.Error("commit after Forget refused")
	}
}
