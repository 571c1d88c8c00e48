package gradeservice

import (
	"context"
	"fmt"
)

// PromoteMember advances one member by one grade.
func (s *GradeService) PromoteMember(ctx context.Context, guildID, userID string) (TransitionOutcome, error) {
	return withTelemetry(ctx, s.telemetry, "PromoteMember", guildID, func(ctx context.Context) (TransitionOutcome, error) {
		return s.transitionMember(ctx, guildID, userID, Advance)
	})
}

// DemoteMember reverts one member by one grade.
func (s *GradeService) DemoteMember(ctx context.Context, guildID, userID string) (TransitionOutcome, error) {
	return withTelemetry(ctx, s.telemetry, "DemoteMember", guildID, func(ctx context.Context) (TransitionOutcome, error) {
		return s.transitionMember(ctx, guildID, userID, Revert)
	})
}

// PromoteAll advances every graded member of the guild.
func (s *GradeService) PromoteAll(ctx context.Context, guildID string) (BulkReport, error) {
	return withTelemetry(ctx, s.telemetry, "PromoteAll", guildID, func(ctx context.Context) (BulkReport, error) {
		guild, err := s.guild(ctx, guildID)
		if err != nil {
			return BulkReport{GuildID: guildID, Direction: Advance}, err
		}
		return s.applyToAll(ctx, guild, Advance)
	})
}

// DemoteAll reverts every graded member of the guild.
func (s *GradeService) DemoteAll(ctx context.Context, guildID string) (BulkReport, error) {
	return withTelemetry(ctx, s.telemetry, "DemoteAll", guildID, func(ctx context.Context) (BulkReport, error) {
		guild, err := s.guild(ctx, guildID)
		if err != nil {
			return BulkReport{GuildID: guildID, Direction: Revert}, err
		}
		return s.applyToAll(ctx, guild, Revert)
	})
}

func (s *GradeService) guild(ctx context.Context, guildID string) (GuildSnapshot, error) {
	guild, err := s.guilds.Guild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGuildUnavailable, err)
	}
	return guild, nil
}

// transitionMember finds the member's first catalog role and moves it. A
// member without one still goes through the transition so they are told
// their grade could not be determined.
func (s *GradeService) transitionMember(ctx context.Context, guildID, userID string, dir Direction) (TransitionOutcome, error) {
	guild, err := s.guild(ctx, guildID)
	if err != nil {
		return TransitionOutcome{MemberID: userID}, err
	}

	catalog, err := s.catalogFor(ctx, guild)
	if err != nil {
		return TransitionOutcome{MemberID: userID}, err
	}

	member, err := guild.Member(ctx, userID)
	if err != nil {
		return TransitionOutcome{MemberID: userID}, fmt.Errorf("%w: %v", ErrMemberNotFound, err)
	}

	entry, _ := catalog.FirstHeld(member.RoleIDs)
	return s.transition(ctx, guild, member, catalog, entry.RoleID, dir)
}
