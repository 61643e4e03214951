package reports

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"report-bot/config"
	"report-bot/events"
	"report-bot/storage"

	"github.com/bwmarrin/discordgo"
)

type sentMessage struct {
	ChannelID string
	Msg       *discordgo.MessageSend
	Files     map[string]string
}

// fakeSession records every outbound Discord call. DM channels are named
// "dm-<userID>"; sends into a blocked user's DM fail like closed DMs do.
type fakeSession struct {
	mu sync.Mutex

	blocked   map[string]bool
	createErr error
	banErr    map[string]error

	channels map[string]*discordgo.Channel
	users    map[string]*discordgo.User
	nextID   int

	sent    []sentMessage
	deleted []string
	bans    []string
	unbans  []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		blocked:  make(map[string]bool),
		banErr:   make(map[string]error),
		channels: make(map[string]*discordgo.Channel),
		users:    make(map[string]*discordgo.User),
	}
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.HasPrefix(channelID, "dm-") && f.blocked[strings.TrimPrefix(channelID, "dm-")] {
		return nil, fmt.Errorf("HTTP 403 Forbidden, Cannot send messages to this user")
	}
	files := make(map[string]string)
	for _, file := range data.Files {
		b, _ := io.ReadAll(file.Reader)
		files[file.Name] = string(b)
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Msg: data, Files: files})
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	ch := &discordgo.Channel{
		ID:                   fmt.Sprintf("ticket-%d", f.nextID),
		GuildID:              guildID,
		Name:                 data.Name,
		Topic:                data.Topic,
		ParentID:             data.ParentID,
		Type:                 data.Type,
		PermissionOverwrites: data.PermissionOverwrites,
	}
	f.channels[ch.ID] = ch
	return ch, nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("HTTP 404 Not Found, Unknown Channel")
	}
	delete(f.channels, channelID)
	f.deleted = append(f.deleted, channelID)
	return ch, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("HTTP 404 Not Found, Unknown Channel")
	}
	return ch, nil
}

func (f *fakeSession) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("HTTP 404 Not Found, Unknown User")
	}
	return u, nil
}

func (f *fakeSession) GuildBanCreateWithReason(guildID, userID, _ string, _ int, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.banErr[guildID]; err != nil {
		return err
	}
	f.bans = append(f.bans, guildID+"/"+userID)
	return nil
}

func (f *fakeSession) GuildBanDelete(guildID, userID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbans = append(f.unbans, guildID+"/"+userID)
	return nil
}

func (f *fakeSession) messagesTo(channelID string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSession) contentsTo(channelID string) []string {
	var out []string
	for _, m := range f.messagesTo(channelID) {
		out = append(out, m.Msg.Content)
	}
	return out
}

func (f *fakeSession) deletedChannels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

const (
	testGuild    = "guild-1"
	testCategory = "cat-1"
	testInvite   = "https://discord.gg/appeal"
)

var (
	reporter = &discordgo.User{ID: "100", Username: "Alice_99", Discriminator: "0"}
	target   = &discordgo.User{ID: "200", Username: "mallory", Discriminator: "0"}
	staff    = &discordgo.User{ID: "300", Username: "mod", Discriminator: "0"}
)

func testConfig() config.ReportsConfig {
	return config.ReportsConfig{
		CategoryID:           testCategory,
		StaffRoles:           []string{"role-staff"},
		BanGuilds:            []string{testGuild, "guild-2"},
		AppealInvite:         testInvite,
		ReasonTimeoutSeconds: 60,
		DecisionDeleteHours:  24,
		CloseDelaySeconds:    5,
	}
}

func newTestService(t *testing.T, fs *fakeSession, cfg config.ReportsConfig) (*Service, storage.BanStore, *recordingPublisher) {
	t.Helper()
	bans, err := storage.NewJSONStore(filepath.Join(t.TempDir(), "bans.json"))
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	pub := &recordingPublisher{}
	svc := New(testGuild, cfg, Deps{
		Session:   fs,
		Bans:      bans,
		Events:    pub,
		BotUserID: func() string { return "bot-1" },
	})
	t.Cleanup(svc.Stop)
	return svc, bans, pub
}

// openTicket runs a report for reason "spam" through to a ticket channel.
func openTicket(t *testing.T, svc *Service) *discordgo.Channel {
	t.Helper()
	if err := svc.StartReport(reporter, target); err != nil {
		t.Fatalf("StartReport: %v", err)
	}
	report, err := svc.SelectReason(reporter.ID, target.ID, "spam")
	if err != nil {
		t.Fatalf("SelectReason: %v", err)
	}
	ch, err := svc.OpenTicket(report, report.ReasonKey)
	if err != nil {
		t.Fatalf("OpenTicket: %v", err)
	}
	return ch
}
