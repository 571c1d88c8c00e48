package gradeservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	grademetrics "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/metrics"
	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
	"go.opentelemetry.io/otel/trace/noop"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ------------------------
// Fake Guild
// ------------------------

// FakeGuild is an in-memory GuildSnapshot that records role mutations.
type FakeGuild struct {
	mu      sync.Mutex
	id      string
	roles   []gradedomain.Role
	members []*Member
	trace   []string

	RolesErr   error
	MembersErr error
	AddErr     map[string]error // keyed by member id
	RemoveErr  map[string]error // keyed by member id
}

func NewFakeGuild(id string, roles []gradedomain.Role, members ...Member) *FakeGuild {
	g := &FakeGuild{id: id, roles: roles}
	for i := range members {
		m := members[i]
		m.RoleIDs = append([]string(nil), m.RoleIDs...)
		g.members = append(g.members, &m)
	}
	return g
}

func (g *FakeGuild) record(step string) {
	g.trace = append(g.trace, step)
}

// Trace returns the role mutations performed, e.g. "remove:u1:r9".
func (g *FakeGuild) Trace() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.trace...)
}

// RolesOf returns the current role ids of a member.
func (g *FakeGuild) RolesOf(userID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if m.ID == userID {
			return append([]string(nil), m.RoleIDs...)
		}
	}
	return nil
}

func (g *FakeGuild) ID() string { return g.id }

func (g *FakeGuild) Roles(ctx context.Context) ([]gradedomain.Role, error) {
	if g.RolesErr != nil {
		return nil, g.RolesErr
	}
	return append([]gradedomain.Role(nil), g.roles...), nil
}

func (g *FakeGuild) Members(ctx context.Context) ([]Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.MembersErr != nil {
		return nil, g.MembersErr
	}
	out := make([]Member, 0, len(g.members))
	for _, m := range g.members {
		c := *m
		c.RoleIDs = append([]string(nil), m.RoleIDs...)
		out = append(out, c)
	}
	return out, nil
}

func (g *FakeGuild) Member(ctx context.Context, userID string) (Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if m.ID == userID {
			c := *m
			c.RoleIDs = append([]string(nil), m.RoleIDs...)
			return c, nil
		}
	}
	return Member{}, errors.New("unknown member")
}

func (g *FakeGuild) AddMemberRole(ctx context.Context, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.AddErr[userID]; err != nil {
		return err
	}
	g.record("add:" + userID + ":" + roleID)
	for _, m := range g.members {
		if m.ID == userID {
			m.RoleIDs = append(m.RoleIDs, roleID)
		}
	}
	return nil
}

func (g *FakeGuild) RemoveMemberRole(ctx context.Context, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.RemoveErr[userID]; err != nil {
		return err
	}
	g.record("remove:" + userID + ":" + roleID)
	for _, m := range g.members {
		if m.ID != userID {
			continue
		}
		kept := m.RoleIDs[:0]
		for _, id := range m.RoleIDs {
			if id != roleID {
				kept = append(kept, id)
			}
		}
		m.RoleIDs = kept
	}
	return nil
}

var _ GuildSnapshot = (*FakeGuild)(nil)

// FakeDirectory serves fixed guilds.
type FakeDirectory struct {
	Guilds map[string]GuildSnapshot
}

func (d *FakeDirectory) Guild(ctx context.Context, guildID string) (GuildSnapshot, error) {
	g, ok := d.Guilds[guildID]
	if !ok {
		return nil, errors.New("unknown guild")
	}
	return g, nil
}

// ------------------------
// Fake Notifier
// ------------------------

type sentMessage struct {
	UserID  string
	Content string
}

// FakeNotifier records DMs and fails for the user ids in FailFor.
type FakeNotifier struct {
	mu      sync.Mutex
	Sent    []sentMessage
	FailFor map[string]bool
}

func (n *FakeNotifier) Notify(ctx context.Context, userID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, sentMessage{UserID: userID, Content: content})
	if n.FailFor[userID] {
		return errors.New("cannot send messages to this user")
	}
	return nil
}

func (n *FakeNotifier) SentTo(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.Sent {
		if m.UserID == userID {
			out = append(out, m.Content)
		}
	}
	return out
}

// ------------------------
// Fake Scheduler
// ------------------------

type scheduledJob struct {
	GuildID string
	Trigger gradeevents.Trigger
	RunAt   time.Time
}

// FakeScheduler keeps jobs in memory.
type FakeScheduler struct {
	Jobs        []scheduledJob
	ScheduleErr error
	CancelErr   error
	trace       []string
}

func (f *FakeScheduler) ScheduleGradeUpdate(ctx context.Context, guildID string, trigger gradeevents.Trigger, runAt time.Time) error {
	f.trace = append(f.trace, "schedule:"+string(trigger))
	if f.ScheduleErr != nil {
		return f.ScheduleErr
	}
	f.Jobs = append(f.Jobs, scheduledJob{GuildID: guildID, Trigger: trigger, RunAt: runAt})
	return nil
}

func (f *FakeScheduler) CancelGradeUpdates(ctx context.Context, trigger gradeevents.Trigger) (int, error) {
	f.trace = append(f.trace, "cancel:"+string(trigger))
	if f.CancelErr != nil {
		return 0, f.CancelErr
	}
	kept := f.Jobs[:0]
	n := 0
	for _, j := range f.Jobs {
		if j.Trigger == trigger {
			n++
			continue
		}
		kept = append(kept, j)
	}
	f.Jobs = kept
	return n, nil
}

func (f *FakeScheduler) Trace() []string {
	return append([]string(nil), f.trace...)
}

func (f *FakeScheduler) JobsOf(trigger gradeevents.Trigger) []scheduledJob {
	var out []scheduledJob
	for _, j := range f.Jobs {
		if j.Trigger == trigger {
			out = append(out, j)
		}
	}
	return out
}

// ------------------------
// Fake Store
// ------------------------

// FakeStore is an in-memory gradedb.Store.
type FakeStore struct {
	rec     *gradedb.ScheduleRecord
	SaveErr error
	LoadErr error
}

func (s *FakeStore) Save(ctx context.Context, rec gradedb.ScheduleRecord) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.rec = &rec
	return nil
}

func (s *FakeStore) Load(ctx context.Context) (gradedb.ScheduleRecord, bool, error) {
	if s.LoadErr != nil {
		return gradedb.ScheduleRecord{}, false, s.LoadErr
	}
	if s.rec == nil {
		return gradedb.ScheduleRecord{}, false, nil
	}
	return *s.rec, true, nil
}

func (s *FakeStore) Clear(ctx context.Context) error {
	s.rec = nil
	return nil
}

var _ gradedb.Store = (*FakeStore)(nil)

// ------------------------
// Helpers
// ------------------------

func standardRoles() []gradedomain.Role {
	return []gradedomain.Role{
		{ID: "r9", Name: "[9]"},
		{ID: "r10", Name: "[10]"},
		{ID: "r11", Name: "[11]"},
		{ID: "r12", Name: "[12]"},
		{ID: "ralumni", Name: "[ALUMNI]"},
		{ID: "rmod", Name: "Moderator"},
	}
}

func newTestGradeService(guilds GuildDirectory, notifier Notifier) *GradeService {
	return NewGradeService(
		guilds,
		notifier,
		DefaultSettings,
		noopLogger,
		grademetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
	)
}

func newTestScheduleService(store gradedb.Store, scheduler Scheduler, now time.Time) *ScheduleService {
	s := NewScheduleService(
		store,
		scheduler,
		DefaultAnnualDate,
		time.UTC,
		noopLogger,
		grademetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
	)
	s.now = func() time.Time { return now }
	return s
}
