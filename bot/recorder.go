package bot

import (
	"context"

	"wallpostbot/conversation"
	"wallpostbot/history"
)

// historyRecorder adapts the history store to the machine's Recorder.
type historyRecorder struct {
	store *history.Store
}

func (r *historyRecorder) Record(ctx context.Context, rec conversation.PostRecord) error {
	return r.store.Record(ctx, history.Post{
		ChatID:     rec.ChatID,
		Caption:    rec.Caption,
		Attachment: rec.Attachment,
		PostID:     rec.PostID,
		URL:        rec.URL,
		PublishAt:  rec.PublishAt,
	})
}
