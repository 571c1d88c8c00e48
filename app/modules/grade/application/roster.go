package gradeservice

import (
	"context"
	"fmt"
	"time"

	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
)

// RosterGroup lists the members holding one grade role.
type RosterGroup struct {
	Marker  gradedomain.Marker
	RoleID  string
	Members []Member
}

// Roster is a point-in-time view of a guild's members by grade.
type Roster struct {
	GuildID     string
	GeneratedAt time.Time
	Groups      []RosterGroup
	Gradeless   int
}

// Total returns the number of graded members.
func (r Roster) Total() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Members)
	}
	return n
}

// Roster groups the guild's members by grade. Ladder markers come first in
// ladder order, followed by any other catalog markers in catalog order.
// Members are classified with the same first-match rule as bulk updates.
func (s *GradeService) Roster(ctx context.Context, guildID string) (Roster, error) {
	return withTelemetry(ctx, s.telemetry, "Roster", guildID, func(ctx context.Context) (Roster, error) {
		roster := Roster{GuildID: guildID, GeneratedAt: s.now().UTC()}

		guild, err := s.guild(ctx, guildID)
		if err != nil {
			return roster, err
		}
		catalog, err := s.catalogFor(ctx, guild)
		if err != nil {
			return roster, err
		}
		members, err := guild.Members(ctx)
		if err != nil {
			return roster, fmt.Errorf("%w: failed to list members: %v", ErrGuildUnavailable, err)
		}

		index := make(map[gradedomain.Marker]int)
		addGroup := func(m gradedomain.Marker) {
			if _, seen := index[m]; seen {
				return
			}
			roleID, _ := catalog.RoleFor(m)
			index[m] = len(roster.Groups)
			roster.Groups = append(roster.Groups, RosterGroup{Marker: m, RoleID: roleID})
		}
		for _, m := range s.settings.Ladder.Markers() {
			addGroup(m)
		}
		for _, e := range catalog.Entries() {
			addGroup(e.Marker)
		}

		for _, member := range members {
			entry, ok := catalog.FirstHeld(member.RoleIDs)
			if !ok {
				roster.Gradeless++
				continue
			}
			g := &roster.Groups[index[entry.Marker]]
			g.Members = append(g.Members, member)
		}
		return roster, nil
	})
}
