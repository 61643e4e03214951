package reports

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"report-bot/lang"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Discord's upload ceiling for bots without boosts.
const maxAttachmentBytes = 25 << 20

const (
	DirectionStaffToReporter  = "staff_to_reporter"
	DirectionReporterToTicket = "reporter_to_ticket"
)

// Relay routes a newly created message. A DM from a reporter who owes a
// custom reason completes their report instead of being forwarded.
func (s *Service) Relay(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	authorID := m.Author.ID

	if m.GuildID == "" {
		if s.Sessions.AwaitingCustomReason(authorID) {
			ch, err := s.SubmitCustomReason(authorID, m.Content)
			if err != nil {
				if !errors.Is(err, ErrReportExpired) {
					log.WithError(err).WithField("reporter", authorID).Warn("[Reports] Custom reason did not open a ticket")
				}
				return
			}
			// The text became the reason; files sent with it are evidence.
			if len(m.Attachments) > 0 {
				s.metrics.Relayed(DirectionReporterToTicket, s.relayFiles(m.Attachments, ch.ID))
			}
			return
		}
		if channelID, ok := s.Registry.Ticket(authorID); ok {
			s.relayToTicket(m, channelID)
		}
		return
	}

	if reporterID, ok := s.Registry.Claim(authorID); ok {
		s.relayToReporter(m, reporterID)
	}
}

func (s *Service) relayToReporter(m *discordgo.Message, reporterID string) {
	dm, err := s.session.UserChannelCreate(reporterID)
	if err != nil {
		s.metrics.Relayed(DirectionStaffToReporter, false)
		log.WithError(err).WithField("reporter", reporterID).Warn("[Relay] Could not open DM with reporter")
		return
	}

	ok := true
	if strings.TrimSpace(m.Content) != "" {
		if _, err := s.session.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
			Content: lang.T("relay_staff_prefix", "content", m.Content),
		}); err != nil {
			ok = false
			log.WithError(err).WithField("reporter", reporterID).Warn("[Relay] Failed to forward staff message")
		}
	}
	for _, att := range m.Attachments {
		msg := &discordgo.MessageSend{}
		s.attach(msg, att)
		if _, err := s.session.ChannelMessageSendComplex(dm.ID, msg); err != nil {
			ok = false
			log.WithError(err).WithField("reporter", reporterID).Warn("[Relay] Failed to forward staff attachment")
		}
	}
	s.metrics.Relayed(DirectionStaffToReporter, ok)
}

func (s *Service) relayToTicket(m *discordgo.Message, channelID string) {
	ok := true
	if strings.TrimSpace(m.Content) != "" {
		if _, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: lang.T("relay_reporter_prefix", "tag", m.Author.String(), "content", m.Content),
		}); err != nil {
			ok = false
			log.WithError(err).WithField("channel", channelID).Warn("[Relay] Failed to forward evidence")
		}
	}
	if len(m.Attachments) > 0 && !s.relayFiles(m.Attachments, channelID) {
		ok = false
	}
	s.metrics.Relayed(DirectionReporterToTicket, ok)
}

// relayFiles posts every attachment to channelID in a single message.
func (s *Service) relayFiles(atts []*discordgo.MessageAttachment, channelID string) bool {
	msg := &discordgo.MessageSend{}
	for _, att := range atts {
		s.attach(msg, att)
	}
	if _, err := s.session.ChannelMessageSendComplex(channelID, msg); err != nil {
		log.WithError(err).WithField("channel", channelID).Warn("[Relay] Failed to forward evidence files")
		return false
	}
	return true
}

// attach re-uploads att onto msg, falling back to its URL when the download
// fails.
func (s *Service) attach(msg *discordgo.MessageSend, att *discordgo.MessageAttachment) {
	data, err := s.download(att.URL)
	if err != nil {
		log.WithError(err).WithField("url", att.URL).Warn("[Relay] Attachment download failed, sending link")
		if msg.Content != "" {
			msg.Content += "\n"
		}
		msg.Content += att.URL
		return
	}
	msg.Files = append(msg.Files, &discordgo.File{
		Name:        att.Filename,
		ContentType: att.ContentType,
		Reader:      bytes.NewReader(data),
	})
}

func (s *Service) download(url string) ([]byte, error) {
	resp, err := s.http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAttachmentBytes {
		return nil, errors.New("attachment too large")
	}
	return data, nil
}
