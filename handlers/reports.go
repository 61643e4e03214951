package handlers

import (
	"strings"

	"report-bot/lang"
	"report-bot/reports"
	"report-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) handleReport(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := userOption(s, i)
	if target == nil {
		respond(s, i, lang.T("generic_error"), true)
		return
	}

	err := h.svc.StartReport(interactionUser(i), target)
	if errors.Is(err, reports.ErrDirectMessagesClosed) {
		respond(s, i, lang.T("report_dm_closed"), true)
		return
	}
	if err != nil {
		log.WithError(err).Error("[Reports] /report failed")
		respond(s, i, lang.T("generic_error"), true)
		return
	}
	respond(s, i, lang.T("report_check_dms"), true)
}

func (h *Handler) handleReasonSelect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	if len(data.Values) == 0 {
		return
	}
	user := interactionUser(i)

	// Acknowledge first; opening the ticket takes several API calls.
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})

	targetID := strings.TrimPrefix(data.CustomID, reports.ReasonSelectPrefix)
	report, err := h.svc.SelectReason(user.ID, targetID, data.Values[0])
	if err != nil {
		followup(s, i, lang.T("report_expired"))
		return
	}

	// Drop the menu so the same report cannot be submitted twice.
	_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Components: &[]discordgo.MessageComponent{},
	})

	if report.State == tickets.AwaitingCustomReason {
		return
	}
	followup(s, i, lang.T("report_reason_selected"))
	if _, err := h.svc.OpenTicket(report, report.ReasonKey); err != nil {
		log.WithError(err).WithField("reporter", user.ID).Warn("[Reports] Ticket not opened")
	}
}
