package bot

import (
	"report-bot/config"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type Bot struct {
	Session *discordgo.Session
	Config  *config.Config
	ready   chan struct{}
}

func New(cfg *config.Config) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = intents
	return &Bot{
		Session: s,
		Config:  cfg,
		ready:   make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Bot is online as %s (%d guilds)", r.User.String(), len(r.Guilds))
		select {
		case <-b.ready:
		default:
			close(b.ready)
		}
	})
	return b.Session.Open()
}

func (b *Bot) Stop() {
	_ = b.Session.Close()
}

// UserID is empty until the gateway has sent READY.
func (b *Bot) UserID() string {
	if b.Session.State == nil || b.Session.State.User == nil {
		return ""
	}
	return b.Session.State.User.ID
}

// BanGuilds lists the guilds an approved report bans from. With
// ban_all_guilds set that is every guild the bot is currently in.
func (b *Bot) BanGuilds() []string {
	if !b.Config.Reports.BanAllGuilds || b.Session.State == nil {
		return b.Config.Reports.BanGuilds
	}
	b.Session.State.RLock()
	defer b.Session.State.RUnlock()
	ids := make([]string, 0, len(b.Session.State.Guilds))
	for _, g := range b.Session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// RegisterCommands overwrites the command set in the primary guild, and
// globally as well when register_global is set.
func (b *Bot) RegisterCommands(cmds []*discordgo.ApplicationCommand) {
	<-b.ready

	appID := b.Session.State.User.ID
	scopes := []string{b.Config.Discord.GuildID}
	if b.Config.Discord.RegisterGlobal {
		scopes = append(scopes, "")
	}

	for _, guildID := range scopes {
		registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
		if err != nil {
			log.Printf("Failed to bulk-overwrite commands in %q: %v", guildID, err)
			continue
		}
		log.Printf("Registered %d slash commands (guild %q)", len(registered), guildID)
	}
}

func (b *Bot) CleanupCommands() {
	<-b.ready
	appID := b.Session.State.User.ID
	scopes := []string{b.Config.Discord.GuildID}
	if b.Config.Discord.RegisterGlobal {
		scopes = append(scopes, "")
	}
	for _, guildID := range scopes {
		if _, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, []*discordgo.ApplicationCommand{}); err != nil {
			log.Printf("Failed to clean up commands in %q: %v", guildID, err)
			continue
		}
	}
	log.Println("Cleaned up all slash commands")
}
