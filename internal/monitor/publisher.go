package monitor

import (
	"context"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/store"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/notify"
)

// NotifyPublisher publishes stored records through a notify.Dispatcher.
type NotifyPublisher struct {
	disp *notify.Dispatcher
}

// NewNotifyPublisher wraps a dispatcher as a Publisher.
func NewNotifyPublisher(disp *notify.Dispatcher) *NotifyPublisher {
	return &NotifyPublisher{disp: disp}
}

// Publish formats the record and sends it to every registered channel.
func (p *NotifyPublisher) Publish(ctx context.Context, rec store.Record) error {
	msg := notify.FormatTweet(notify.TweetData{
		Author:        rec.Author,
		CreatedAt:     rec.CreatedAt,
		OriginalText:  rec.OriginalText,
		AITitle:       rec.AITitle,
		AITranslation: rec.AITranslation,
		AIFailed:      rec.AIFailed,
	})
	return p.disp.SendAll(ctx, msg)
}
