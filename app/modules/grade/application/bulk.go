package gradeservice

import (
	"context"
	"fmt"
	"log/slog"

	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
)

// catalogFor reads the guild's current roles and resolves a fresh catalog.
func (s *GradeService) catalogFor(ctx context.Context, guild GuildSnapshot) (*gradedomain.Catalog, error) {
	roles, err := guild.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list roles: %v", ErrGuildUnavailable, err)
	}
	return gradedomain.ResolveCatalog(roles, s.settings.TerminalRoleName), nil
}

// applyToAll moves every graded member of guild one step in dir. Members
// are processed in order with no rollback; a member whose role change fails
// is recorded and the loop continues.
func (s *GradeService) applyToAll(ctx context.Context, guild GuildSnapshot, dir Direction) (BulkReport, error) {
	report := BulkReport{GuildID: guild.ID(), Direction: dir}

	catalog, err := s.catalogFor(ctx, guild)
	if err != nil {
		return report, err
	}

	members, err := guild.Members(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: failed to list members: %v", ErrGuildUnavailable, err)
	}

	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		entry, ok := catalog.FirstHeld(member.RoleIDs)
		if !ok {
			report.Gradeless++
			continue
		}

		outcome, err := s.transition(ctx, guild, member, catalog, entry.RoleID, dir)
		if err != nil {
			s.logger.ErrorContext(ctx, "Grade transition failed; continuing with remaining members",
				slog.String("guild_id", guild.ID()),
				slog.String("member_id", member.ID),
				slog.Any("error", err),
			)
		}
		report.add(outcome)
	}

	s.logger.InfoContext(ctx, "Bulk grade transition finished",
		slog.String("guild_id", guild.ID()),
		slog.String("direction", string(dir)),
		slog.Int("members", len(members)),
		slog.Int("gradeless", report.Gradeless),
		slog.Any("counts", report.Counts()),
	)
	return report, nil
}
