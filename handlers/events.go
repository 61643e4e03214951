package handlers

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.svc.Relay(m.Message)
}

// onMemberAdd reminds permanently banned users of the appeal route when they
// join any guild the bot shares with them.
func (h *Handler) onMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	h.svc.MemberJoined(m.User.ID)
}

func (h *Handler) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	h.svc.ChannelRemoved(c.ID)
}

// onGuildCreate relinks reporters to their open tickets after a restart.
func (h *Handler) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.ID != h.cfg.Discord.GuildID {
		return
	}
	n := h.svc.RebuildTicketLinks(g.Channels)
	log.Printf("[Reports] Relinked %d open ticket(s) in %s", n, g.Name)
}
