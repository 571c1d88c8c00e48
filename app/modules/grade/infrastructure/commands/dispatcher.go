package gradecommands

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
	graderoster "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/roster"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPrefix starts every text command.
const DefaultPrefix = "!"

// HelloCommand is the slash command answered with a greeting.
const HelloCommand = "hello"

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// Request is one chat message addressed to the bot.
type Request struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	Content   string
}

// Reply is what the bot sends back to the channel.
type Reply struct {
	Messages    []string
	Attachments []graderoster.File
}

func text(msgs ...string) Reply { return Reply{Messages: msgs} }

// RosterExporter renders a roster into attachments.
type RosterExporter interface {
	Export(roster gradeservice.Roster) ([]graderoster.File, error)
}

type handlerFunc func(ctx context.Context, req Request, args []string) Reply

// Dispatcher maps prefix commands onto the grade and schedule services.
type Dispatcher struct {
	grades    gradeservice.Service
	schedules gradeservice.ScheduleOperations
	exporter  RosterExporter
	settings  gradeservice.Settings
	prefix    string
	dates     *dateParser
	location  *time.Location
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	commands  map[string]handlerFunc
}

// NewDispatcher creates a Dispatcher. Natural-language dates are resolved
// in loc.
func NewDispatcher(
	grades gradeservice.Service,
	schedules gradeservice.ScheduleOperations,
	exporter RosterExporter,
	settings gradeservice.Settings,
	prefix string,
	loc *time.Location,
	logger *slog.Logger,
	tracer trace.Tracer,
) *Dispatcher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if loc == nil {
		loc = time.Local
	}
	d := &Dispatcher{
		grades:    grades,
		schedules: schedules,
		exporter:  exporter,
		settings:  settings,
		prefix:    prefix,
		dates:     newDateParser(),
		location:  loc,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
	d.commands = map[string]handlerFunc{
		"increment":         d.increment,
		"decrement":         d.decrement,
		"increment_all":     d.incrementAll,
		"decrement_all":     d.decrementAll,
		"schedule_update":   d.scheduleUpdate,
		"reschedule_update": d.rescheduleUpdate,
		"cancel_update":     d.cancelUpdate,
		"check_schedule":    d.checkSchedule,
		"roster":            d.roster,
	}
	return d
}

// Dispatch runs the command in req. It reports false when the message is
// not a known command.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Reply, bool) {
	name, args, ok := d.parse(req.Content)
	if !ok {
		return Reply{}, false
	}
	handler, ok := d.commands[name]
	if !ok {
		return Reply{}, false
	}

	ctx, span := d.tracer.Start(ctx, "command."+name, trace.WithAttributes(
		attribute.String("guild_id", req.GuildID),
		attribute.String("author_id", req.AuthorID),
	))
	defer span.End()

	d.logger.InfoContext(ctx, "Handling command",
		slog.String("command", name),
		slog.String("guild_id", req.GuildID),
		slog.String("author_id", req.AuthorID),
	)
	return handler(ctx, req, args), true
}

// Interaction answers a slash command by name.
func (d *Dispatcher) Interaction(name string) (string, bool) {
	if name == HelloCommand {
		return replyHello, true
	}
	return "", false
}

func (d *Dispatcher) parse(content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, d.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, d.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func mentionedUser(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	if m := mentionPattern.FindStringSubmatch(args[0]); m != nil {
		return m[1], true
	}
	return "", false
}

func (d *Dispatcher) increment(ctx context.Context, req Request, args []string) Reply {
	userID, ok := mentionedUser(args)
	if !ok {
		return text(usageIncrement)
	}
	outcome, err := d.grades.PromoteMember(ctx, req.GuildID, userID)
	if reply, failed := d.memberFailure(userID, outcome, err); failed {
		return reply
	}
	if outcome.Kind == gradeservice.OutcomeSkippedBoundary {
		return text(alreadyTerminalReply(userID, gradedomain.TerminalLabel))
	}
	return text(promotedReply(userID))
}

func (d *Dispatcher) decrement(ctx context.Context, req Request, args []string) Reply {
	userID, ok := mentionedUser(args)
	if !ok {
		return text(usageDecrement)
	}
	outcome, err := d.grades.DemoteMember(ctx, req.GuildID, userID)
	if reply, failed := d.memberFailure(userID, outcome, err); failed {
		return reply
	}
	if outcome.Kind == gradeservice.OutcomeSkippedBoundary {
		return text(floorReply(d.settings.Ladder.Floor))
	}
	return text(demotedReply(userID))
}

// memberFailure maps single-member errors and skips to replies.
func (d *Dispatcher) memberFailure(userID string, outcome gradeservice.TransitionOutcome, err error) (Reply, bool) {
	switch {
	case errors.Is(err, gradeservice.ErrMemberNotFound):
		return text(replyMemberNotFound), true
	case err != nil:
		return text(memberFailedReply(userID)), true
	case outcome.Kind == gradeservice.OutcomeSkippedGradeless:
		return text(gradelessReply(userID)), true
	}
	return Reply{}, false
}

func (d *Dispatcher) incrementAll(ctx context.Context, req Request, _ []string) Reply {
	if _, err := d.grades.PromoteAll(ctx, req.GuildID); err != nil {
		return text(replyBulkFailed)
	}
	return text(replyAllPromoted)
}

func (d *Dispatcher) decrementAll(ctx context.Context, req Request, _ []string) Reply {
	if _, err := d.grades.DemoteAll(ctx, req.GuildID); err != nil {
		return text(replyBulkFailed)
	}
	return text(replyAllDemoted)
}

func (d *Dispatcher) scheduleUpdate(ctx context.Context, req Request, args []string) Reply {
	month, day, err := d.dates.parse(args, d.now().In(d.location))
	if err != nil {
		return text(usageSchedule)
	}
	if _, err := d.schedules.Schedule(ctx, req.GuildID, month, day); err != nil {
		return d.scheduleFailure(err, usageSchedule)
	}
	return text(scheduledReply(month, day))
}

func (d *Dispatcher) rescheduleUpdate(ctx context.Context, req Request, args []string) Reply {
	month, day, err := d.dates.parse(args, d.now().In(d.location))
	if err != nil {
		return text(usageReschedule)
	}
	if _, err := d.schedules.Reschedule(ctx, req.GuildID, month, day); err != nil {
		return d.scheduleFailure(err, usageReschedule)
	}
	return text(scheduledReply(month, day), rescheduledReply(month, day))
}

func (d *Dispatcher) scheduleFailure(err error, usage string) Reply {
	switch {
	case errors.Is(err, gradeservice.ErrInvalidDate):
		return text(usage)
	case errors.Is(err, gradeservice.ErrDateElapsed):
		return text(replyDateElapsed)
	default:
		return text(replyScheduleFailed)
	}
}

func (d *Dispatcher) cancelUpdate(ctx context.Context, _ Request, _ []string) Reply {
	if err := d.schedules.Cancel(ctx); err != nil {
		return text(replyScheduleFailed)
	}
	return text(replyCanceled)
}

func (d *Dispatcher) checkSchedule(ctx context.Context, _ Request, _ []string) Reply {
	rec, ok, err := d.schedules.Status(ctx)
	if err != nil || !ok {
		return text(replyNoSchedule)
	}
	return text(statusReply(rec.Month, rec.Day))
}

func (d *Dispatcher) roster(ctx context.Context, req Request, _ []string) Reply {
	roster, err := d.grades.Roster(ctx, req.GuildID)
	if err != nil {
		return text(replyRosterFailed)
	}
	files, err := d.exporter.Export(roster)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to export roster",
			slog.String("guild_id", req.GuildID),
			slog.Any("error", err),
		)
		return text(replyRosterFailed)
	}
	return Reply{
		Messages:    []string{rosterReply(roster.Total(), roster.Gradeless)},
		Attachments: files,
	}
}
