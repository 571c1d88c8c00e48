package gradeservice

import (
	"context"
	"fmt"
	"log/slog"

	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
)

const (
	indeterminateGradeMessage = "Error: Could not determine your grade level."
	gradeUpdatedMessage       = "Your grade has been updated to %s."
)

// transition moves member one step in dir. currentRoleID is the role the
// caller believes represents the member's grade; an id the catalog does not
// know is reported to the member and skipped.
func (s *GradeService) transition(
	ctx context.Context,
	guild GuildSnapshot,
	member Member,
	catalog *gradedomain.Catalog,
	currentRoleID string,
	dir Direction,
) (TransitionOutcome, error) {
	outcome, err := s.step(ctx, guild, member, catalog, currentRoleID, dir)
	s.metrics.RecordTransition(ctx, string(dir), string(outcome.Kind))
	return outcome, err
}

func (s *GradeService) step(
	ctx context.Context,
	guild GuildSnapshot,
	member Member,
	catalog *gradedomain.Catalog,
	currentRoleID string,
	dir Direction,
) (TransitionOutcome, error) {
	logger := s.logger.With(
		slog.String("guild_id", guild.ID()),
		slog.String("member_id", member.ID),
		slog.String("direction", string(dir)),
	)
	outcome := TransitionOutcome{MemberID: member.ID}

	current, ok := catalog.MarkerFor(currentRoleID)
	if !ok {
		logger.WarnContext(ctx, "Could not determine member grade")
		outcome.Kind = OutcomeSkippedGradeless
		outcome.Notified = s.notify(ctx, logger, member, indeterminateGradeMessage)
		return outcome, nil
	}
	outcome.From = current

	var (
		target gradedomain.Marker
		moved  bool
	)
	switch dir {
	case Advance:
		target, moved = s.settings.Ladder.Next(current)
	case Revert:
		target, moved = s.settings.Ladder.Previous(current)
	default:
		return outcome, fmt.Errorf("unknown direction %q", dir)
	}
	if !moved {
		logger.InfoContext(ctx, "Member already at end of grade ladder", slog.String("grade", current.String()))
		outcome.Kind = OutcomeSkippedBoundary
		outcome.To = current
		return outcome, nil
	}
	outcome.To = target

	if member.HasRole(currentRoleID) {
		if err := guild.RemoveMemberRole(ctx, member.ID, currentRoleID); err != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = err
			return outcome, fmt.Errorf("failed to remove role %s from member %s: %w", currentRoleID, member.ID, err)
		}
	}

	if destRoleID, ok := catalog.RoleFor(target); ok {
		if err := guild.AddMemberRole(ctx, member.ID, destRoleID); err != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = err
			return outcome, fmt.Errorf("failed to add role %s to member %s: %w", destRoleID, member.ID, err)
		}
	} else {
		logger.WarnContext(ctx, "No role found for destination grade; old role removed only",
			slog.String("grade", target.String()),
		)
	}

	logger.InfoContext(ctx, "Member grade updated",
		slog.String("from", current.String()),
		slog.String("to", target.String()),
	)

	if s.notify(ctx, logger, member, fmt.Sprintf(gradeUpdatedMessage, target)) {
		outcome.Kind = OutcomeApplied
		outcome.Notified = true
	} else {
		outcome.Kind = OutcomeAppliedNotNotified
	}
	return outcome, nil
}

// notify sends one DM and reports whether it was delivered. Failures are
// logged and never returned.
func (s *GradeService) notify(ctx context.Context, logger *slog.Logger, member Member, content string) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.Notify(ctx, member.ID, content); err != nil {
		logger.WarnContext(ctx, "Could not DM member",
			slog.String("member_name", member.DisplayName),
			slog.Any("error", err),
		)
		s.metrics.RecordNotificationFailure(ctx)
		return false
	}
	return true
}
