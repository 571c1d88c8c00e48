package gradediscord

import (
	"context"
	"errors"
	"sort"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
	"github.com/bwmarrin/discordgo"
)

// ErrEmptyGuildID is returned when no guild id is given.
var ErrEmptyGuildID = errors.New("empty guild id")

// memberPageSize is the largest page the member list endpoint returns.
const memberPageSize = 1000

// Directory resolves guild ids to live snapshots.
type Directory struct {
	session Session
}

func NewDirectory(session Session) *Directory {
	return &Directory{session: session}
}

func (d *Directory) Guild(ctx context.Context, guildID string) (gradeservice.GuildSnapshot, error) {
	if guildID == "" {
		return nil, ErrEmptyGuildID
	}
	return &guild{id: guildID, session: d.session}, nil
}

var _ gradeservice.GuildDirectory = (*Directory)(nil)

// guild reads through to the API on every call.
type guild struct {
	id      string
	session Session
}

func (g *guild) ID() string { return g.id }

// Roles lists the guild's roles from the lowest position up, the order the
// client shows them in.
func (g *guild) Roles(ctx context.Context) ([]gradedomain.Role, error) {
	roles, err := g.session.GuildRoles(g.id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].Position < roles[j].Position
	})
	out := make([]gradedomain.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, gradedomain.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// Members pages through the full member list.
func (g *guild) Members(ctx context.Context) ([]gradeservice.Member, error) {
	var (
		out   []gradeservice.Member
		after string
	)
	for {
		page, err := g.session.GuildMembers(g.id, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, toMember(m))
		}
		if len(page) < memberPageSize {
			return out, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return out, nil
		}
		after = last.User.ID
	}
}

func (g *guild) Member(ctx context.Context, userID string) (gradeservice.Member, error) {
	m, err := g.session.GuildMember(g.id, userID, discordgo.WithContext(ctx))
	if err != nil {
		return gradeservice.Member{}, err
	}
	if m.User == nil {
		m.User = &discordgo.User{ID: userID}
	}
	return toMember(m), nil
}

func (g *guild) AddMemberRole(ctx context.Context, userID, roleID string) error {
	return g.session.GuildMemberRoleAdd(g.id, userID, roleID, discordgo.WithContext(ctx))
}

func (g *guild) RemoveMemberRole(ctx context.Context, userID, roleID string) error {
	return g.session.GuildMemberRoleRemove(g.id, userID, roleID, discordgo.WithContext(ctx))
}

func toMember(m *discordgo.Member) gradeservice.Member {
	return gradeservice.Member{
		ID:          m.User.ID,
		DisplayName: displayName(m),
		RoleIDs:     append([]string(nil), m.Roles...),
	}
}

func displayName(m *discordgo.Member) string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.User.GlobalName != "":
		return m.User.GlobalName
	default:
		return m.User.Username
	}
}
