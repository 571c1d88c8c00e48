package gradediscord

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	gradecommands "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/commands"
	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
	"github.com/bwmarrin/discordgo"
)

// FakeSession is a programmable Session that records every call.
type FakeSession struct {
	mu    sync.Mutex
	trace []string

	Roles   []*discordgo.Role
	Members []*discordgo.Member

	RolesErr   error
	MemberErr  error
	AddErr     error
	ChannelErr error
	SendErr    error

	Sent     []sentMessage
	Complex  []complexMessage
	Response *discordgo.InteractionResponse
	Commands []*discordgo.ApplicationCommand
}

type sentMessage struct {
	ChannelID string
	Content   string
}

type complexMessage struct {
	ChannelID string
	Content   string
	Files     map[string]string
}

func (f *FakeSession) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSession) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeSession) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.record("roles:" + guildID)
	return f.Roles, f.RolesErr
}

func (f *FakeSession) GuildMembers(guildID, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.record(fmt.Sprintf("members:%s:%d", after, limit))
	start := 0
	if after != "" {
		for i, m := range f.Members {
			if m.User.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(f.Members) {
		end = len(f.Members)
	}
	return f.Members[start:end], nil
}

func (f *FakeSession) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.record("member:" + userID)
	if f.MemberErr != nil {
		return nil, f.MemberErr
	}
	for _, m := range f.Members {
		if m.User.ID == userID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown member %s", userID)
}

func (f *FakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.record("add:" + userID + ":" + roleID)
	return f.AddErr
}

func (f *FakeSession) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.record("remove:" + userID + ":" + roleID)
	return nil
}

func (f *FakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.record("dm:" + recipientID)
	if f.ChannelErr != nil {
		return nil, f.ChannelErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *FakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("send:" + channelID)
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.mu.Lock()
	f.Sent = append(f.Sent, sentMessage{ChannelID: channelID, Content: content})
	f.mu.Unlock()
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *FakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("send_complex:" + channelID)
	files := make(map[string]string, len(data.Files))
	for _, file := range data.Files {
		b, _ := io.ReadAll(file.Reader)
		files[file.Name] = string(b)
	}
	f.mu.Lock()
	f.Complex = append(f.Complex, complexMessage{ChannelID: channelID, Content: data.Content, Files: files})
	f.mu.Unlock()
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *FakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.record("respond")
	f.Response = resp
	return nil
}

func (f *FakeSession) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.record("command:" + appID + ":" + cmd.Name)
	f.Commands = append(f.Commands, cmd)
	return cmd, nil
}

var _ Session = (*FakeSession)(nil)

// FakeDispatcher returns a fixed reply for every request it handles.
type FakeDispatcher struct {
	Reply    gradecommands.Reply
	Handled  bool
	Requests []gradecommands.Request
}

func (f *FakeDispatcher) Dispatch(_ context.Context, req gradecommands.Request) (gradecommands.Reply, bool) {
	f.Requests = append(f.Requests, req)
	return f.Reply, f.Handled
}

func (f *FakeDispatcher) Interaction(name string) (string, bool) {
	if name == gradecommands.HelloCommand {
		return "Hello!", true
	}
	return "", false
}

// FakeSchedules records Restore calls. RestoreErr is returned on every
// call, or only on the first FailRestores calls when that is set.
type FakeSchedules struct {
	Restored     []string
	RestoreErr   error
	FailRestores int
}

func (f *FakeSchedules) Schedule(context.Context, string, int, int) (time.Time, error) {
	return time.Time{}, nil
}

func (f *FakeSchedules) Reschedule(context.Context, string, int, int) (time.Time, error) {
	return time.Time{}, nil
}

func (f *FakeSchedules) Cancel(context.Context) error { return nil }

func (f *FakeSchedules) Status(context.Context) (gradedb.ScheduleRecord, bool, error) {
	return gradedb.ScheduleRecord{}, false, nil
}

func (f *FakeSchedules) Restore(_ context.Context, guildID string) error {
	f.Restored = append(f.Restored, guildID)
	if f.FailRestores > 0 && len(f.Restored) > f.FailRestores {
		return nil
	}
	return f.RestoreErr
}

func (f *FakeSchedules) ArmAnnual(context.Context, string, time.Time) (time.Time, error) {
	return time.Time{}, nil
}

// FakeNotifier counts notifications.
type FakeNotifier struct {
	mu    sync.Mutex
	Calls []string
}

func (f *FakeNotifier) Notify(_ context.Context, userID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, userID)
	return nil
}

func member(id, nick, global, username string, roles ...string) *discordgo.Member {
	return &discordgo.Member{
		Nick:  nick,
		Roles: roles,
		User:  &discordgo.User{ID: id, GlobalName: global, Username: username},
	}
}
