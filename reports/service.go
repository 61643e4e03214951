// Package reports runs the user-report workflow: collecting a report over
// DMs, opening a private ticket for staff, carrying their decision out and
// relaying messages between staff and the reporter while the ticket is open.
package reports

import (
	"context"
	"net/http"
	"time"

	"report-bot/config"
	"report-bot/events"
	"report-bot/metrics"
	"report-bot/storage"
	"report-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrDirectMessagesClosed = errors.New("reporter does not accept direct messages")
	ErrReportExpired        = errors.New("report expired")
	ErrNotTicketChannel     = errors.New("not a report ticket channel")
	ErrReporterNotFound     = errors.New("reporter not found")
	ErrAlreadyDecided       = errors.New("report already decided")
	ErrNotBanned            = errors.New("user is not in the ban database")
	ErrTicketChannel        = errors.New("could not create ticket channel")
)

// DecidedError is returned when a ticket already carries a decision.
// It matches ErrAlreadyDecided with errors.Is.
type DecidedError struct {
	Decision tickets.Decision
}

func (e *DecidedError) Error() string {
	return "report already " + string(e.Decision.Outcome) + " by " + e.Decision.StaffID
}

func (e *DecidedError) Is(target error) bool { return target == ErrAlreadyDecided }

// Session is the slice of *discordgo.Session the workflow talks to.
type Session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
}

type Deps struct {
	Session Session
	Bans    storage.BanStore
	Events  events.Publisher
	Metrics *metrics.Metrics
	HTTP    *http.Client

	// BotUserID returns the bot's own user ID once the gateway is ready.
	BotUserID func() string
	// BanGuilds returns the guilds an approved report bans from.
	BanGuilds func() []string
}

type Service struct {
	guildID string
	cfg     config.ReportsConfig

	session   Session
	bans      storage.BanStore
	events    events.Publisher
	metrics   *metrics.Metrics
	http      *http.Client
	botUserID func() string
	banGuilds func() []string

	Registry  *tickets.Registry
	Sessions  *tickets.Sessions
	Decisions *tickets.Decisions
	Scheduler *tickets.Scheduler
}

func New(guildID string, cfg config.ReportsConfig, d Deps) *Service {
	s := &Service{
		guildID:   guildID,
		cfg:       cfg,
		session:   d.Session,
		bans:      d.Bans,
		events:    d.Events,
		metrics:   d.Metrics,
		http:      d.HTTP,
		botUserID: d.BotUserID,
		banGuilds: d.BanGuilds,
		Registry:  tickets.NewRegistry(),
		Sessions:  tickets.NewSessions(cfg.ReasonTimeout()),
		Decisions: tickets.NewDecisions(),
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.http == nil {
		s.http = &http.Client{Timeout: 30 * time.Second}
	}
	if s.botUserID == nil {
		s.botUserID = func() string { return "" }
	}
	if s.banGuilds == nil {
		s.banGuilds = func() []string { return cfg.BanGuilds }
	}
	s.Sessions.OnExpire = s.reportExpired
	s.Scheduler = tickets.NewScheduler(cfg.StatePath, s.deleteTicket)
	return s
}

// Restore re-arms channel deletions left over from a previous run.
func (s *Service) Restore() error {
	restored, err := s.Scheduler.Restore()
	if err != nil {
		return err
	}
	if len(restored) > 0 {
		log.Printf("[Reports] Restored %d scheduled ticket deletion(s)", len(restored))
	}
	return nil
}

func (s *Service) Stop() {
	s.Scheduler.Stop()
}

func (s *Service) reportExpired(r tickets.Report) {
	s.metrics.ReportExpired()
	log.WithFields(log.Fields{"reporter": r.ReporterID, "target": r.TargetID, "state": r.State}).
		Debug("[Reports] Report expired")
}

func (s *Service) publish(ev events.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		log.WithError(err).WithField("type", ev.Type).Warn("[Reports] Failed to publish event")
	}
}

// dm sends a direct message to userID.
func (s *Service) dm(userID string, msg *discordgo.MessageSend) error {
	ch, err := s.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.session.ChannelMessageSendComplex(ch.ID, msg)
	return err
}

// dmBestEffort logs instead of failing when the recipient is unreachable.
func (s *Service) dmBestEffort(userID, content string) bool {
	if err := s.dm(userID, &discordgo.MessageSend{Content: content}); err != nil {
		s.metrics.DMFailed()
		log.WithError(err).WithField("user", userID).Warn("[Reports] Could not DM user")
		return false
	}
	return true
}

// reporterFor reads the reporter ID from the ticket channel's topic.
func (s *Service) reporterFor(channelID string) (string, error) {
	ch, err := s.session.Channel(channelID)
	if err != nil {
		return "", errors.Wrap(ErrNotTicketChannel, err.Error())
	}
	reporterID, ok := tickets.ParseTopic(ch.Topic)
	if !ok {
		return "", ErrNotTicketChannel
	}
	return reporterID, nil
}
