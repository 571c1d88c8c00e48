package gradediscord

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	gradecommands "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/commands"
	"github.com/bwmarrin/discordgo"
)

// commandTimeout bounds one command, bulk updates included.
const commandTimeout = 10 * time.Minute

const (
	restoreAttempts = 6
	restoreBackoff  = 2 * time.Second
)

// Dispatcher runs chat commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, req gradecommands.Request) (gradecommands.Reply, bool)
	Interaction(name string) (string, bool)
}

// Gateway connects gateway events to the command dispatcher and restores
// the schedule once the bot is ready.
type Gateway struct {
	session    Session
	dispatcher Dispatcher
	schedules  gradeservice.ScheduleOperations
	guildID    string
	logger     *slog.Logger

	ready       sync.Once
	restoreDone chan struct{}
	ctx         context.Context

	restoreAttempts int
	restoreBackoff  time.Duration
}

// NewGateway creates a Gateway. guildID pins the guild used by scheduled
// updates; when empty the first guild reported on ready is used.
func NewGateway(
	ctx context.Context,
	session Session,
	dispatcher Dispatcher,
	schedules gradeservice.ScheduleOperations,
	guildID string,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		session:     session,
		dispatcher:  dispatcher,
		schedules:   schedules,
		guildID:     guildID,
		logger:      logger,
		restoreDone: make(chan struct{}),
		ctx:         ctx,

		restoreAttempts: restoreAttempts,
		restoreBackoff:  restoreBackoff,
	}
}

// Register installs the event handlers on s.
func (g *Gateway) Register(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { g.onReady(r) })
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { g.onMessageCreate(m) })
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) { g.onInteractionCreate(i) })
}

// Restored is closed once the startup restore has run.
func (g *Gateway) Restored() <-chan struct{} { return g.restoreDone }

// GuildID returns the guild scheduled updates run against.
func (g *Gateway) GuildID() string { return g.guildID }

func (g *Gateway) onReady(r *discordgo.Ready) {
	g.ready.Do(func() {
		defer close(g.restoreDone)

		if r.User != nil {
			g.logger.Info("Logged in", slog.String("user", r.User.Username))
			g.registerCommands(r.User.ID)
		}
		if g.guildID == "" && len(r.Guilds) > 0 {
			g.guildID = r.Guilds[0].ID
		}
		if g.guildID == "" {
			g.logger.Warn("No guild available; scheduled updates not restored")
			return
		}
		g.restore()
	})
}

// restore retries the startup restore with doubling delays. The annual
// update is only armed here, so a final failure leaves it unarmed.
func (g *Gateway) restore() {
	delay := g.restoreBackoff
	for attempt := 1; ; attempt++ {
		err := g.schedules.Restore(g.ctx, g.guildID)
		if err == nil {
			return
		}
		if attempt >= g.restoreAttempts {
			g.logger.Error("Failed to restore grade schedule; scheduled and annual grade updates stay unarmed until restart",
				slog.String("guild_id", g.guildID),
				slog.Int("attempts", attempt),
				slog.Any("error", err),
			)
			return
		}
		g.logger.Warn("Failed to restore grade schedule, retrying",
			slog.String("guild_id", g.guildID),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.Any("error", err),
		)
		select {
		case <-time.After(delay):
		case <-g.ctx.Done():
			g.logger.Error("Grade schedule restore abandoned; scheduled and annual grade updates stay unarmed until restart",
				slog.String("guild_id", g.guildID),
				slog.Any("error", err),
			)
			return
		}
		delay *= 2
	}
}

func (g *Gateway) registerCommands(appID string) {
	_, err := g.session.ApplicationCommandCreate(appID, "", &discordgo.ApplicationCommand{
		Name:        gradecommands.HelloCommand,
		Description: "Say hello to the bot",
	}, discordgo.WithContext(g.ctx))
	if err != nil {
		g.logger.Error("Failed to register slash commands", slog.Any("error", err))
	}
}

func (g *Gateway) onMessageCreate(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(g.ctx, commandTimeout)
	defer cancel()

	reply, handled := g.dispatcher.Dispatch(ctx, gradecommands.Request{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	})
	if !handled {
		return
	}
	g.send(ctx, m.ChannelID, reply)
}

func (g *Gateway) send(ctx context.Context, channelID string, reply gradecommands.Reply) {
	logger := g.logger.With(slog.String("channel_id", channelID))

	if len(reply.Attachments) > 0 {
		files := make([]*discordgo.File, 0, len(reply.Attachments))
		for _, a := range reply.Attachments {
			files = append(files, &discordgo.File{
				Name:        a.Name,
				ContentType: a.ContentType,
				Reader:      bytes.NewReader(a.Data),
			})
		}
		content := ""
		if len(reply.Messages) > 0 {
			content = reply.Messages[0]
		}
		if _, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: content,
			Files:   files,
		}, discordgo.WithContext(ctx)); err != nil {
			logger.Error("Failed to send reply", slog.Any("error", err))
		}
		return
	}

	for _, msg := range reply.Messages {
		if _, err := g.session.ChannelMessageSend(channelID, msg, discordgo.WithContext(ctx)); err != nil {
			logger.Error("Failed to send reply", slog.Any("error", err))
		}
	}
}

func (g *Gateway) onInteractionCreate(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	content, ok := g.dispatcher.Interaction(i.ApplicationCommandData().Name)
	if !ok {
		return
	}
	err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}, discordgo.WithContext(g.ctx))
	if err != nil {
		g.logger.Error("Failed to respond to interaction", slog.Any("error", err))
	}
}
