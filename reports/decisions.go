package reports

import (
	"sort"
	"sync"

	"report-bot/events"
	"report-bot/lang"
	"report-bot/tickets"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentBans bounds parallel ban requests across guilds.
const maxConcurrentBans = 4

type ApproveResult struct {
	ReporterID string
	Banned     []string
	Failed     []string
}

// eachBanGuild runs fn for every ban guild concurrently and splits the
// guild IDs by outcome, each list sorted.
func (s *Service) eachBanGuild(fn func(guildID string) error) (ok, failed []string) {
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentBans)
	for _, guildID := range s.banGuilds() {
		g.Go(func() error {
			err := fn(guildID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("guild", guildID).Debug("[Reports] Guild request failed")
				failed = append(failed, guildID)
				return nil
			}
			ok = append(ok, guildID)
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(ok)
	sort.Strings(failed)
	return ok, failed
}

// Approve bans the reported user everywhere the bot moderates, records the
// ban and schedules the ticket for deletion.
func (s *Service) Approve(channelID, targetID string, staff *discordgo.User) (ApproveResult, error) {
	reporterID, err := s.reporterFor(channelID)
	if err != nil {
		return ApproveResult{}, err
	}
	if prev, ok := s.Decisions.Commit(tickets.Decision{
		ChannelID: channelID,
		Outcome:   tickets.OutcomeApproved,
		StaffID:   staff.ID,
	}); !ok {
		return ApproveResult{}, &DecidedError{Decision: prev}
	}

	// The target may share no guild with the bot once banned, so warn first.
	s.dmBestEffort(targetID, lang.T("approve_appeal_dm", "invite", s.cfg.AppealInvite))

	res := ApproveResult{ReporterID: reporterID}
	banReason := "Approved by " + staff.String()

	res.Banned, res.Failed = s.eachBanGuild(func(guildID string) error {
		return s.session.GuildBanCreateWithReason(guildID, targetID, banReason, 0)
	})
	for _, guildID := range res.Failed {
		log.WithFields(log.Fields{"guild": guildID, "target": targetID}).Warn("[Reports] Ban failed")
	}

	if _, err := s.bans.AddBan(targetID, banReason); err != nil {
		log.WithError(err).WithField("target", targetID).Error("[Reports] Failed to record ban")
	}

	s.dmBestEffort(reporterID, lang.T("approve_reporter_dm", "target", targetID))
	s.Scheduler.Schedule(channelID, tickets.OutcomeApproved, s.cfg.DecisionDeleteAfter())

	s.metrics.Decision(string(tickets.OutcomeApproved))
	s.publish(events.Event{
		Type:       events.ReportApproved,
		ChannelID:  channelID,
		ReporterID: reporterID,
		TargetID:   targetID,
		StaffID:    staff.ID,
		Reason:     banReason,
	})
	log.WithFields(log.Fields{
		"channel": channelID, "target": targetID, "staff": staff.ID,
		"banned": len(res.Banned), "failed": len(res.Failed),
	}).Info("[Reports] Report approved")
	return res, nil
}

// RejectPrompt checks that the ticket can still be rejected and returns the
// reporter the rejection modal should carry.
func (s *Service) RejectPrompt(channelID string) (string, error) {
	reporterID, err := s.reporterFor(channelID)
	if err != nil {
		return "", err
	}
	if prev, ok := s.Decisions.Get(channelID); ok {
		return "", &DecidedError{Decision: prev}
	}
	return reporterID, nil
}

// Reject closes a report without action. The ban store is left untouched.
func (s *Service) Reject(channelID, targetID, reporterID string, staff *discordgo.User, reason string) error {
	if prev, ok := s.Decisions.Commit(tickets.Decision{
		ChannelID: channelID,
		Outcome:   tickets.OutcomeRejected,
		StaffID:   staff.ID,
	}); !ok {
		return &DecidedError{Decision: prev}
	}

	if reporterID != "" {
		s.dmBestEffort(reporterID, lang.T("reject_reporter_dm", "target", targetID, "reason", reason))
	}
	s.Scheduler.Schedule(channelID, tickets.OutcomeRejected, s.cfg.DecisionDeleteAfter())

	s.metrics.Decision(string(tickets.OutcomeRejected))
	s.publish(events.Event{
		Type:       events.ReportRejected,
		ChannelID:  channelID,
		ReporterID: reporterID,
		TargetID:   targetID,
		StaffID:    staff.ID,
		Reason:     reason,
	})
	log.WithFields(log.Fields{"channel": channelID, "target": targetID, "staff": staff.ID}).Info("[Reports] Report rejected")
	return nil
}

// Close schedules a ticket channel for deletion after the close delay.
// An earlier approve or reject keeps its record but the channel still goes;
// only an undecided ticket counts as closed.
func (s *Service) Close(channelID string, staff *discordgo.User) error {
	reporterID, err := s.reporterFor(channelID)
	if err != nil {
		return err
	}
	_, committed := s.Decisions.Commit(tickets.Decision{
		ChannelID: channelID,
		Outcome:   tickets.OutcomeClosed,
		StaffID:   staff.ID,
	})
	s.Scheduler.Schedule(channelID, tickets.OutcomeClosed, s.cfg.CloseDelay())
	if !committed {
		return nil
	}

	s.metrics.Decision(string(tickets.OutcomeClosed))
	s.publish(events.Event{
		Type:       events.TicketClosed,
		ChannelID:  channelID,
		ReporterID: reporterID,
		StaffID:    staff.ID,
	})
	return nil
}

func (s *Service) deleteTicket(p tickets.PendingDeletion) {
	if _, err := s.session.ChannelDelete(p.ChannelID); err != nil {
		log.WithError(err).WithField("channel", p.ChannelID).Warn("[Reports] Failed to delete ticket channel")
	} else {
		log.WithFields(log.Fields{"channel": p.ChannelID, "outcome": p.Outcome}).Info("[Reports] Ticket channel deleted")
	}
	s.ChannelRemoved(p.ChannelID)
}

// ChannelRemoved forgets everything tied to a ticket channel that no longer
// exists, whether the bot deleted it or someone else did.
func (s *Service) ChannelRemoved(channelID string) {
	s.Scheduler.Cancel(channelID)
	if reporterID, ok := s.Registry.UnlinkTicketChannel(channelID); ok {
		for _, staffID := range s.Registry.DropClaimsFor(reporterID) {
			log.WithFields(log.Fields{"staff": staffID, "reporter": reporterID}).Debug("[Reports] Dropped claim on closed ticket")
		}
	}
	s.Decisions.Forget(channelID)
}
