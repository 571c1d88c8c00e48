package gradecommands

import "fmt"

const (
	replyAllPromoted    = "All grades have been updated!"
	replyAllDemoted     = "All grades have been reverted!"
	replyCanceled       = "Scheduled grade update has been canceled."
	replyNoSchedule     = "No scheduled grade update found."
	replyHello          = "Hello!"
	replyBulkFailed     = "Could not update grades. Please try again later."
	replyScheduleFailed = "Could not change the scheduled grade update. Please try again later."
	replyDateElapsed    = "That date has already passed this year."
	replyRosterFailed   = "Could not build the grade roster."
	usageIncrement      = "Usage: !increment @member"
	usageDecrement      = "Usage: !decrement @member"
	usageSchedule       = "Usage: !schedule_update <month> <day>"
	usageReschedule     = "Usage: !reschedule_update <month> <day>"
	replyMemberNotFound = "Could not find that member."
)

func mention(userID string) string {
	return "<@" + userID + ">"
}

func promotedReply(userID string) string {
	return fmt.Sprintf("%s has been promoted!", mention(userID))
}

func demotedReply(userID string) string {
	return fmt.Sprintf("%s has been demoted!", mention(userID))
}

func alreadyTerminalReply(userID, label string) string {
	return fmt.Sprintf("%s is already %s.", mention(userID), label)
}

func floorReply(floor int) string {
	return fmt.Sprintf("Cannot demote below %dth grade.", floor)
}

func scheduledReply(month, day int) string {
	return fmt.Sprintf("Grade update scheduled for %d/%d!", month, day)
}

func rescheduledReply(month, day int) string {
	return fmt.Sprintf("Grade update rescheduled for %d/%d!", month, day)
}

func statusReply(month, day int) string {
	return fmt.Sprintf("Next scheduled grade update is on %d/%d.", month, day)
}

func rosterReply(graded, gradeless int) string {
	return fmt.Sprintf("Grade roster: %d graded, %d without a grade.", graded, gradeless)
}

func memberFailedReply(userID string) string {
	return fmt.Sprintf("Could not update %s's grade.", mention(userID))
}

func gradelessReply(userID string) string {
	return fmt.Sprintf("Could not determine %s's grade level.", mention(userID))
}
