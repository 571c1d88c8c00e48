package gradediscord

import (
	"context"
	"fmt"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// DMNotifier sends direct messages.
type DMNotifier struct {
	session Session
}

func NewDMNotifier(session Session) *DMNotifier {
	return &DMNotifier{session: session}
}

func (n *DMNotifier) Notify(ctx context.Context, userID, content string) error {
	ch, err := n.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}

// ThrottledNotifier spaces out notifications so a guild-wide update stays
// under the platform's DM rate limit.
type ThrottledNotifier struct {
	next    gradeservice.Notifier
	limiter *rate.Limiter
}

// NewThrottledNotifier allows perSecond messages with bursts of burst.
func NewThrottledNotifier(next gradeservice.Notifier, perSecond float64, burst int) *ThrottledNotifier {
	if burst < 1 {
		burst = 1
	}
	return &ThrottledNotifier{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (n *ThrottledNotifier) Notify(ctx context.Context, userID, content string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	return n.next.Notify(ctx, userID, content)
}

var (
	_ gradeservice.Notifier = (*DMNotifier)(nil)
	_ gradeservice.Notifier = (*ThrottledNotifier)(nil)
)
