package gradeservice

import (
	"context"
	"time"

	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
)

// Member is a guild member as seen by the grade logic.
type Member struct {
	ID          string
	DisplayName string
	RoleIDs     []string
}

// HasRole reports whether the member currently holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// GuildSnapshot is the narrow view of a live guild the grade logic needs.
// Implementations read through to the platform on every call.
type GuildSnapshot interface {
	ID() string
	Roles(ctx context.Context) ([]gradedomain.Role, error)
	Members(ctx context.Context) ([]Member, error)
	Member(ctx context.Context, userID string) (Member, error)
	AddMemberRole(ctx context.Context, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, userID, roleID string) error
}

// GuildDirectory resolves a guild id to a snapshot.
type GuildDirectory interface {
	Guild(ctx context.Context, guildID string) (GuildSnapshot, error)
}

// Notifier delivers a direct message to a member.
type Notifier interface {
	Notify(ctx context.Context, userID, content string) error
}

// Scheduler enqueues and cancels dated grade update jobs.
type Scheduler interface {
	ScheduleGradeUpdate(ctx context.Context, guildID string, trigger gradeevents.Trigger, runAt time.Time) error
	CancelGradeUpdates(ctx context.Context, trigger gradeevents.Trigger) (int, error)
}
