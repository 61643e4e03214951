package handlers

import (
	"strings"

	"report-bot/lang"
	"report-bot/reports"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// denial maps a workflow error to the ephemeral message shown to staff.
func denial(err error) string {
	var decided *reports.DecidedError
	switch {
	case errors.As(err, &decided):
		return lang.T("ticket_already_decided", "outcome", string(decided.Decision.Outcome), "staff", decided.Decision.StaffID)
	case errors.Is(err, reports.ErrNotTicketChannel):
		return lang.T("ticket_not_report_channel")
	case errors.Is(err, reports.ErrReporterNotFound):
		return lang.T("claim_reporter_missing")
	}
	return lang.T("generic_error")
}

func (h *Handler) handleApprove(s *discordgo.Session, i *discordgo.InteractionCreate, targetID string) {
	if !h.isStaff(s, i) {
		denyNotStaff(s, i)
		return
	}

	deferResponse(s, i)
	res, err := h.svc.Approve(i.ChannelID, targetID, i.Member.User)
	if err != nil {
		if !errors.Is(err, reports.ErrAlreadyDecided) && !errors.Is(err, reports.ErrNotTicketChannel) {
			log.WithError(err).WithField("channel", i.ChannelID).Error("[Reports] Approve failed")
		}
		_ = s.InteractionResponseDelete(i.Interaction)
		followup(s, i, denial(err))
		return
	}

	switch {
	case len(res.Banned) == 0:
		editResponse(s, i, lang.T("approve_not_banned", "target", targetID))
	case len(res.Failed) > 0:
		editResponse(s, i, lang.T("approve_partial", "target", targetID, "failed", strings.Join(res.Failed, ", ")))
	default:
		editResponse(s, i, lang.T("approve_banned", "target", targetID))
	}
}

func (h *Handler) handleRejectButton(s *discordgo.Session, i *discordgo.InteractionCreate, targetID string) {
	if !h.isStaff(s, i) {
		denyNotStaff(s, i)
		return
	}

	reporterID, err := h.svc.RejectPrompt(i.ChannelID)
	if err != nil {
		respond(s, i, denial(err), true)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: reports.RejectModalPrefix + targetID + ":" + reporterID,
			Title:    lang.T("reject_modal_title"),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  reports.RejectReasonInput,
							Label:     lang.T("reject_modal_label"),
							Style:     discordgo.TextInputParagraph,
							Required:  true,
							MaxLength: 1000,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Failed to open reject modal: %v", err)
	}
}

func (h *Handler) handleRejectModal(s *discordgo.Session, i *discordgo.InteractionCreate, ids string) {
	if !h.isStaff(s, i) {
		denyNotStaff(s, i)
		return
	}

	parts := strings.SplitN(ids, ":", 2)
	targetID := parts[0]
	reporterID := ""
	if len(parts) > 1 {
		reporterID = parts[1]
	}
	reason := modalValue(i.ModalSubmitData(), reports.RejectReasonInput)

	if err := h.svc.Reject(i.ChannelID, targetID, reporterID, i.Member.User, reason); err != nil {
		respond(s, i, denial(err), true)
		return
	}
	respond(s, i, lang.T("reject_public", "target", targetID, "reason", reason), false)
}

func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if input, ok := rc.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
