package reports

import (
	"sort"

	"report-bot/events"
	"report-bot/lang"
	"report-bot/storage"
	"report-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Claim routes staffID's guild messages to the reporter of channelID.
func (s *Service) Claim(channelID, staffID string) (*discordgo.User, error) {
	reporterID, err := s.reporterFor(channelID)
	if err != nil {
		return nil, err
	}
	reporter, err := s.session.User(reporterID)
	if err != nil {
		return nil, errors.Wrap(ErrReporterNotFound, err.Error())
	}
	s.Registry.LinkClaim(staffID, reporterID)
	log.WithFields(log.Fields{"staff": staffID, "reporter": reporterID}).Info("[Reports] Ticket claimed")
	return reporter, nil
}

func (s *Service) Unclaim(staffID string) bool {
	return s.Registry.UnlinkClaim(staffID)
}

// Unban removes userID from the ban store and lifts the ban in every ban
// guild. Guild failures are logged only.
func (s *Service) Unban(userID string, staff *discordgo.User) error {
	removed, err := s.bans.RemoveBan(userID)
	if err != nil {
		return errors.Wrap(err, "remove ban")
	}
	if !removed {
		return ErrNotBanned
	}
	_, failed := s.eachBanGuild(func(guildID string) error {
		return s.session.GuildBanDelete(guildID, userID)
	})
	for _, guildID := range failed {
		log.WithFields(log.Fields{"guild": guildID, "user": userID}).Warn("[Reports] Guild unban failed")
	}

	ev := events.Event{Type: events.BanRemoved, TargetID: userID}
	if staff != nil {
		ev.StaffID = staff.ID
	}
	s.publish(ev)
	log.WithField("user", userID).Info("[Reports] Ban removed")
	return nil
}

func (s *Service) ListBans() ([]storage.BanRecord, error) {
	return s.bans.List()
}

// MemberJoined reminds a banned user how to appeal when they show up again.
func (s *Service) MemberJoined(userID string) {
	banned, err := s.bans.IsBanned(userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Warn("[Reports] Ban lookup failed")
		return
	}
	if banned {
		s.dmBestEffort(userID, lang.T("rejoin_appeal_dm", "invite", s.cfg.AppealInvite))
	}
}

// RebuildTicketLinks relinks reporters to the ticket channels found under the
// report category. The newest channel wins for a reporter with several.
func (s *Service) RebuildTicketLinks(channels []*discordgo.Channel) int {
	found := make([]*discordgo.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil || ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if s.cfg.CategoryID != "" && ch.ParentID != s.cfg.CategoryID {
			continue
		}
		if _, ok := tickets.ParseTopic(ch.Topic); ok {
			found = append(found, ch)
		}
	}
	sort.Slice(found, func(a, b int) bool {
		return snowflakeLess(found[a].ID, found[b].ID)
	})
	for _, ch := range found {
		reporterID, _ := tickets.ParseTopic(ch.Topic)
		s.Registry.LinkTicket(reporterID, ch.ID)
	}
	return len(found)
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
