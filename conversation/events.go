package conversation

import (
	"context"
	"time"

	"wallpostbot/core/telegram/calendar"
)

// EventKind discriminates inbound conversation events.
type EventKind int

const (
	// EventAttachment carries an image; it starts a conversation from idle.
	EventAttachment EventKind = iota
	// EventText carries free text typed by the user.
	EventText
	// EventCalendar carries a calendar button callback payload.
	EventCalendar
	// EventCancel aborts the conversation from any state.
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventAttachment:
		return "attachment"
	case EventText:
		return "text"
	case EventCalendar:
		return "calendar"
	case EventCancel:
		return "cancel"
	}
	return "unknown"
}

// Event is one inbound transport event, already stripped of protocol detail.
type Event struct {
	Kind EventKind
	// Text holds the message text for EventText.
	Text string
	// Payload holds the callback payload for EventCalendar.
	Payload string
	// Stage writes the attachment content to the given local path.
	// Set only for EventAttachment.
	Stage func(dst string) error
}

// Actions is the outbound side of the dialog. The transport layer provides
// an implementation bound to the current chat.
type Actions interface {
	SendText(text string) error
	SendChoices(text string, choices []string) error
	SendCalendar(text string, grid calendar.Grid) error
	EditCalendar(grid calendar.Grid) error
	RemoveKeyboard(text string) error
}

// Publisher stores media and creates posts on the destination wall.
// All calls block until the remote service answers.
type Publisher interface {
	Authenticate(ctx context.Context) error
	StageMedia(ctx context.Context, localPath, destination string) (string, error)
	CreatePost(ctx context.Context, caption, mediaRef string, publishAt *time.Time, destination string) (int64, error)
	ResolveShareURL(ctx context.Context, destination string, postID int64) (string, error)
}

// PostRecord describes one successfully published post.
type PostRecord struct {
	ChatID     int64
	Caption    string
	Attachment string
	PostID     int64
	URL        string
	PublishAt  *time.Time
}

// Recorder persists publish results. Optional; recording failures are
// logged and never surfaced to the user.
type Recorder interface {
	Record(ctx context.Context, rec PostRecord) error
}
