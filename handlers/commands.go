package handlers

import (
	"strings"

	"report-bot/config"
	"report-bot/lang"
	"report-bot/reports"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var (
	manageMessagesPerm int64 = discordgo.PermissionManageMessages
	manageChannelsPerm int64 = discordgo.PermissionManageChannels
	banPerm            int64 = discordgo.PermissionBanMembers
	dmAllowed                = false
)

type Handler struct {
	cfg *config.Config
	svc *reports.Service
}

func New(cfg *config.Config, svc *reports.Service) *Handler {
	return &Handler{cfg: cfg, svc: svc}
}

func Commands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0)
	cmds = append(cmds, reportCommands()...)
	cmds = append(cmds, staffCommands()...)
	return cmds
}

func reportCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         "report",
			Description:  "Report a user to the moderation team",
			DMPermission: &dmAllowed,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user you want to report", Required: true},
			},
		},
	}
}

func staffCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "claim", Description: "Claim this report ticket and talk to the reporter", DefaultMemberPermissions: &manageMessagesPerm, DMPermission: &dmAllowed},
		{Name: "unclaim", Description: "Stop relaying your messages to a reporter", DefaultMemberPermissions: &manageMessagesPerm, DMPermission: &dmAllowed},
		{Name: "close", Description: "Close and delete this report ticket", DefaultMemberPermissions: &manageChannelsPerm, DMPermission: &dmAllowed},
		{
			Name: "unban", Description: "Remove a user from the permanent ban list",
			DefaultMemberPermissions: &banPerm, DMPermission: &dmAllowed,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to unban", Required: true},
			},
		},
		{Name: "bans", Description: "List the permanent ban database", DefaultMemberPermissions: &banPerm, DMPermission: &dmAllowed},
	}
}

// Register wires every gateway handler the bot needs.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" && !isDMComponent(i) {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			h.handleSlashCommand(s, i)
		case discordgo.InteractionMessageComponent:
			h.handleComponent(s, i)
		case discordgo.InteractionModalSubmit:
			h.handleModal(s, i)
		}
	})
	s.AddHandler(h.onMessageCreate)
	s.AddHandler(h.onMemberAdd)
	s.AddHandler(h.onChannelDelete)
	s.AddHandler(h.onGuildCreate)
}

// Only the reason menu sent in a reporter's DMs is handled outside guilds.
func isDMComponent(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionMessageComponent &&
		strings.HasPrefix(i.MessageComponentData().CustomID, reports.ReasonSelectPrefix)
}

// staffOnly commands are checked against isStaff as well, since guild admins
// can override default member permissions.
var staffOnly = map[string]bool{
	"claim": true,
	"close": true,
	"unban": true,
	"bans":  true,
}

func (h *Handler) handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	if staffOnly[name] && !h.isStaff(s, i) {
		denyNotStaff(s, i)
		return
	}

	switch name {
	case "report":
		h.handleReport(s, i)
	case "claim":
		h.handleClaim(s, i)
	case "unclaim":
		h.handleUnclaim(s, i)
	case "close":
		h.handleClose(s, i)
	case "unban":
		h.handleUnban(s, i)
	case "bans":
		h.handleBans(s, i)
	default:
		log.Printf("Unknown command: %s", name)
	}
}

func (h *Handler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case strings.HasPrefix(customID, reports.ReasonSelectPrefix):
		h.handleReasonSelect(s, i)
	case strings.HasPrefix(customID, reports.ApprovePrefix):
		h.handleApprove(s, i, strings.TrimPrefix(customID, reports.ApprovePrefix))
	case strings.HasPrefix(customID, reports.RejectPrefix):
		h.handleRejectButton(s, i, strings.TrimPrefix(customID, reports.RejectPrefix))
	default:
		log.Printf("Unknown component: %s", customID)
	}
}

func (h *Handler) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID

	switch {
	case strings.HasPrefix(customID, reports.RejectModalPrefix):
		h.handleRejectModal(s, i, strings.TrimPrefix(customID, reports.RejectModalPrefix))
	default:
		log.Printf("Unknown modal: %s", customID)
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		log.Printf("Failed to respond: %v", err)
	}
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("Failed to defer response: %v", err)
	}
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		log.Printf("Failed to edit response: %v", err)
	}
}

func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func subOptMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// userOption reads the command's "user" option.
func userOption(s *discordgo.Session, i *discordgo.InteractionCreate) *discordgo.User {
	o, ok := subOptMap(i.ApplicationCommandData().Options)["user"]
	if !ok {
		return nil
	}
	return o.UserValue(s)
}

// interactionUser is the invoking user in guilds and DMs alike.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func hasConfigRole(s *discordgo.Session, guildID string, member *discordgo.Member, allowedNames []string) bool {
	if member == nil || len(allowedNames) == 0 {
		return false
	}

	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return false
	}

	nameSet := make(map[string]bool, len(allowedNames))
	for _, n := range allowedNames {
		nameSet[strings.ToLower(n)] = true
	}

	for _, role := range roles {
		if nameSet[strings.ToLower(role.Name)] {
			for _, memberRoleID := range member.Roles {
				if memberRoleID == role.ID {
					return true
				}
			}
		}
	}
	return false
}

func (h *Handler) isAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return hasConfigRole(s, i.GuildID, i.Member, h.cfg.Permissions.AdminRoles)
}

// isStaff accepts moderators by permission, configured ticket staff roles by
// ID, and moderator role names from the permissions section.
func (h *Handler) isStaff(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if h.isAdmin(s, i) {
		return true
	}
	if i.Member.Permissions&(discordgo.PermissionBanMembers|discordgo.PermissionManageMessages) != 0 {
		return true
	}
	for _, roleID := range i.Member.Roles {
		for _, staffRole := range h.cfg.Reports.StaffRoles {
			if roleID == staffRole {
				return true
			}
		}
	}
	return hasConfigRole(s, i.GuildID, i.Member, h.cfg.Permissions.ModeratorRoles)
}

func denyNotStaff(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, lang.T("no_permission"), true)
}
