package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"report-bot/lang"
	"report-bot/reports"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Discord rejects message content above this length.
const maxMessageLen = 2000

func (h *Handler) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	reporter, err := h.svc.Claim(i.ChannelID, i.Member.User.ID)
	if err != nil {
		respond(s, i, denial(err), true)
		return
	}
	respond(s, i, lang.T("claim_success", "reporter", reporter.String()), true)
}

func (h *Handler) handleUnclaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if h.svc.Unclaim(i.Member.User.ID) {
		respond(s, i, lang.T("unclaim_success"), true)
		return
	}
	respond(s, i, lang.T("unclaim_none"), true)
}

func (h *Handler) handleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.svc.Close(i.ChannelID, i.Member.User); err != nil {
		respond(s, i, denial(err), true)
		return
	}
	secs := strconv.Itoa(h.cfg.Reports.CloseDelaySeconds)
	respond(s, i, lang.T("close_notice", "staff", i.Member.User.ID, "seconds", secs), false)
}

func (h *Handler) handleUnban(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := userOption(s, i)
	if user == nil {
		respond(s, i, lang.T("generic_error"), true)
		return
	}

	err := h.svc.Unban(user.ID, i.Member.User)
	switch {
	case errors.Is(err, reports.ErrNotBanned):
		respond(s, i, lang.T("unban_not_found", "user", user.ID), true)
	case err != nil:
		log.WithError(err).WithField("user", user.ID).Error("[Reports] Unban failed")
		respond(s, i, lang.T("generic_error"), true)
	default:
		respond(s, i, lang.T("unban_success", "user", user.ID), false)
	}
}

func (h *Handler) handleBans(s *discordgo.Session, i *discordgo.InteractionCreate) {
	bans, err := h.svc.ListBans()
	if err != nil {
		log.WithError(err).Error("[Reports] Listing bans failed")
		respond(s, i, lang.T("generic_error"), true)
		return
	}
	if len(bans) == 0 {
		respond(s, i, lang.T("bans_empty"), true)
		return
	}

	var sb strings.Builder
	sb.WriteString(lang.T("bans_header", "count", strconv.Itoa(len(bans))))
	sb.WriteString("\n")
	for idx, b := range bans {
		line := fmt.Sprintf("• <@%s> (`%s`) %s, <t:%d:d>\n", b.UserID, b.UserID, b.Reason, b.Timestamp.Unix())
		if sb.Len()+len(line) > maxMessageLen-32 {
			sb.WriteString(fmt.Sprintf("... and %d more", len(bans)-idx))
			break
		}
		sb.WriteString(line)
	}
	respond(s, i, sb.String(), true)
}
