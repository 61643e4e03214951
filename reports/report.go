package reports

import (
	"strconv"
	"strings"

	"report-bot/events"
	"report-bot/lang"
	"report-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	ReasonSelectPrefix = "report_reason:"
	ApprovePrefix      = "approve:"
	RejectPrefix       = "reject:"
	RejectModalPrefix  = "reject_reason:"
	RejectReasonInput  = "reason"
)

const (
	staffPerms  = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory | discordgo.PermissionManageMessages
	botPerms    = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory | discordgo.PermissionEmbedLinks
	noticeColor = 0xED4245
)

// StartReport opens a DM with the reporter and asks for a reason. Nothing is
// recorded when the DM cannot be delivered.
func (s *Service) StartReport(reporter, target *discordgo.User) error {
	dm, err := s.session.UserChannelCreate(reporter.ID)
	if err != nil {
		s.metrics.DMFailed()
		return errors.Wrap(ErrDirectMessagesClosed, err.Error())
	}

	opts := make([]discordgo.SelectMenuOption, 0, len(tickets.Reasons()))
	for _, r := range tickets.Reasons() {
		opts = append(opts, discordgo.SelectMenuOption{Label: r.Label, Value: r.Key})
	}
	_, err = s.session.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
		Content: lang.T("report_select_prompt", "target", target.String()),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    ReasonSelectPrefix + target.ID,
						Placeholder: lang.T("report_select_placeholder"),
						Options:     opts,
					},
				},
			},
		},
	})
	if err != nil {
		s.metrics.DMFailed()
		return errors.Wrap(ErrDirectMessagesClosed, err.Error())
	}

	s.Sessions.Begin(tickets.Report{
		ReporterID:   reporter.ID,
		ReporterName: reporter.Username,
		ReporterTag:  reporter.String(),
		TargetID:     target.ID,
		TargetTag:    target.String(),
		DMChannelID:  dm.ID,
	})
	s.metrics.ReportStarted()
	log.WithFields(log.Fields{"reporter": reporter.ID, "target": target.ID}).Info("[Reports] Report started")
	return nil
}

// SelectReason applies the reporter's choice from the reason menu for
// targetID and sends the matching Discord reporting guide. A menu from a
// report the reporter has since replaced gets ErrReportExpired. When the returned report is still
// AwaitingCustomReason the reporter has been asked for free text; otherwise
// the caller should go on to OpenTicket.
func (s *Service) SelectReason(reporterID, targetID, key string) (tickets.Report, error) {
	reason, _ := tickets.LookupReason(key)
	report, ok := s.Sessions.SelectReason(reporterID, targetID, reason.Key)
	if !ok {
		return tickets.Report{}, ErrReportExpired
	}

	s.sendToReporter(report, lang.T("report_guide", "steps", reason.Guide()))
	if report.State == tickets.AwaitingCustomReason {
		secs := strconv.Itoa(int(s.cfg.ReasonTimeout().Seconds()))
		s.sendToReporter(report, lang.T("report_custom_prompt", "seconds", secs))
	}
	return report, nil
}

// SubmitCustomReason completes a report that was waiting for free text and
// opens its ticket.
func (s *Service) SubmitCustomReason(reporterID, text string) (*discordgo.Channel, error) {
	report, ok := s.Sessions.SubmitCustomReason(reporterID)
	if !ok {
		return nil, ErrReportExpired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r, _ := tickets.LookupReason(tickets.ReasonOther)
		text = r.Label
	}
	return s.OpenTicket(report, text)
}

func (s *Service) sendToReporter(r tickets.Report, content string) bool {
	_, err := s.session.ChannelMessageSendComplex(r.DMChannelID, &discordgo.MessageSend{Content: content})
	if err != nil {
		s.metrics.DMFailed()
		log.WithError(err).WithField("reporter", r.ReporterID).Warn("[Reports] Could not DM reporter")
		return false
	}
	return true
}

// OpenTicket creates the private staff channel for a completed report.
func (s *Service) OpenTicket(r tickets.Report, reasonText string) (*discordgo.Channel, error) {
	thanked := s.sendToReporter(r, lang.T("report_thanks", "target", r.TargetTag))

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: s.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}
	if botID := s.botUserID(); botID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    botID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: botPerms,
		})
	}
	for _, roleID := range s.cfg.StaffRoles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: staffPerms,
		})
	}

	ch, err := s.session.GuildChannelCreateComplex(s.guildID, discordgo.GuildChannelCreateData{
		Name:                 tickets.ChannelName(r.ReporterName),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                tickets.FormatTopic(r.ReporterID),
		ParentID:             s.cfg.CategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		log.WithError(err).WithField("reporter", r.ReporterID).Error("[Reports] Failed to create ticket channel")
		s.sendToReporter(r, lang.T("report_ticket_failed"))
		return nil, errors.Wrap(ErrTicketChannel, err.Error())
	}

	s.Registry.LinkTicket(r.ReporterID, ch.ID)

	_, err = s.session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: lang.T("ticket_notice_content"),
		Embeds: []*discordgo.MessageEmbed{{
			Title:       lang.T("ticket_notice_title"),
			Description: lang.T("ticket_notice_description", "target", r.TargetID, "reason", reasonText),
			Color:       noticeColor,
			Footer:      &discordgo.MessageEmbedFooter{Text: "Reported by " + r.ReporterTag},
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: lang.T("ticket_approve_label"), Style: discordgo.SuccessButton, CustomID: ApprovePrefix + r.TargetID},
					discordgo.Button{Label: lang.T("ticket_reject_label"), Style: discordgo.DangerButton, CustomID: RejectPrefix + r.TargetID},
				},
			},
		},
	})
	if err != nil {
		log.WithError(err).WithField("channel", ch.ID).Error("[Reports] Failed to post staff notice")
	}

	if thanked {
		s.sendToReporter(r, lang.T("report_submitted"))
	}

	s.metrics.TicketOpened()
	s.publish(events.Event{
		Type:       events.TicketOpened,
		ChannelID:  ch.ID,
		ReporterID: r.ReporterID,
		TargetID:   r.TargetID,
		Reason:     reasonText,
	})
	log.WithFields(log.Fields{"reporter": r.ReporterID, "target": r.TargetID, "channel": ch.ID}).Info("[Reports] Ticket opened")
	return ch, nil
}
