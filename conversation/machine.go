package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"wallpostbot/core/logger"
	"wallpostbot/core/telegram/calendar"
)

const (
	msgAuthFailed    = "Sorry, we can't login to VK"
	msgAskCaption    = "Input description"
	msgAskTiming     = "Please select a date:"
	msgAskDate       = "Please select a date:"
	msgAskTime       = "Please enter the time in HH:MM format"
	msgFarewell      = "Bye! I hope we can talk again some day."
	msgPublishFailed = "Sorry, something went wrong while publishing your post."

	choiceNow   = "Now"
	choiceOther = "Other date"
)

// Config holds the machine's static settings.
type Config struct {
	// Destination identifies the target wall (VK group ID).
	Destination string
	// MediaDir is where attachments are staged; defaults to the OS temp dir.
	MediaDir string
}

// Machine drives the publish dialog. One machine serves all chats; each
// chat gets its own session.
type Machine struct {
	cfg      Config
	pub      Publisher
	recorder Recorder
	store    *sessionStore
}

// New constructs a Machine. recorder may be nil when history is disabled.
func New(cfg Config, pub Publisher, recorder Recorder) *Machine {
	if cfg.MediaDir == "" {
		cfg.MediaDir = os.TempDir()
	}
	return &Machine{
		cfg:      cfg,
		pub:      pub,
		recorder: recorder,
		store:    newSessionStore(),
	}
}

// InProgress reports whether the chat has an active conversation.
func (m *Machine) InProgress(chatID int64) bool {
	return m.store.state(chatID) != StateIdle
}

// StateOf returns the chat's current state as a plain string for
// state-guard middleware.
func (m *Machine) StateOf(chatID int64) string {
	return string(m.store.state(chatID))
}

// Dispatch is the total transition function: it routes one inbound event
// to the handler of the chat's current state. Handler errors are logged
// with the triggering event and swallowed so a single bad update can never
// take the process down; the session is left as the handler left it.
func (m *Machine) Dispatch(ctx context.Context, chatID int64, ev Event, out Actions) error {
	sess := m.store.get(chatID)
	state := sess.State

	logger.Debug(ctx, "conversation", "dispatch",
		slog.Int64("chat_id", chatID),
		slog.String("state", string(state)),
		slog.String("kind", ev.Kind.String()),
	)

	var err error
	switch {
	case ev.Kind == EventCancel:
		err = m.cancel(ctx, chatID, out)
	case state == StateIdle:
		err = m.handleIdle(ctx, chatID, sess, ev, out)
	case state == StateAwaitingDescription:
		err = m.handleDescription(ctx, chatID, sess, ev, out)
	case state == StateAwaitingTimingChoice:
		err = m.handleTimingChoice(ctx, chatID, sess, ev, out)
	case state == StateAwaitingDatePick:
		err = m.handleDatePick(ctx, chatID, sess, ev, out)
	case state == StateAwaitingTime:
		err = m.handleTime(ctx, chatID, sess, ev, out)
	}
	if err != nil {
		logger.Error(ctx, "conversation", "handler.error",
			slog.Int64("chat_id", chatID),
			slog.String("state", string(state)),
			slog.String("kind", ev.Kind.String()),
			slog.String("payload", logger.SanitizeLimit(ev.Text+ev.Payload, 128)),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// handleIdle starts a conversation when an attachment arrives: the image
// is staged to a per-session file and the publisher session is opened.
func (m *Machine) handleIdle(ctx context.Context, chatID int64, sess *Session, ev Event, out Actions) error {
	if ev.Kind != EventAttachment || ev.Stage == nil {
		m.store.drop(chatID)
		return nil
	}

	path := filepath.Join(m.cfg.MediaDir, uuid.NewString()+".img")
	if err := ev.Stage(path); err != nil {
		m.store.drop(chatID)
		return fmt.Errorf("stage attachment: %w", err)
	}

	logger.Info(ctx, "conversation", "started",
		slog.Int64("chat_id", chatID),
		slog.String("media_path", path),
	)

	if err := m.pub.Authenticate(ctx); err != nil {
		logger.Warn(ctx, "conversation", "auth.failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		m.discard(chatID, path)
		return out.SendText(msgAuthFailed)
	}

	sess.MediaPath = path
	sess.State = StateAwaitingDescription
	return out.SendText(msgAskCaption)
}

// handleDescription stores the caption and offers the timing choice.
func (m *Machine) handleDescription(ctx context.Context, chatID int64, sess *Session, ev Event, out Actions) error {
	if ev.Kind != EventText {
		return nil
	}
	sess.Caption = ev.Text
	sess.State = StateAwaitingTimingChoice
	return out.SendChoices(msgAskTiming, []string{choiceNow, choiceOther})
}

// handleTimingChoice publishes immediately on "Now"; any other text opens
// the calendar for the current month.
func (m *Machine) handleTimingChoice(ctx context.Context, chatID int64, sess *Session, ev Event, out Actions) error {
	if ev.Kind != EventText {
		return nil
	}
	if strings.HasPrefix(ev.Text, choiceNow) {
		return m.publish(ctx, chatID, sess, nil, out)
	}
	sess.Cursor = calendar.CursorFor(time.Now())
	sess.State = StateAwaitingDatePick
	return out.SendCalendar(msgAskDate, calendar.Render(sess.Cursor))
}

// handleDatePick interprets calendar button presses: navigation redraws
// the grid in place, a day selection moves on to the time prompt.
func (m *Machine) handleDatePick(ctx context.Context, chatID int64, sess *Session, ev Event, out Actions) error {
	if ev.Kind != EventCalendar {
		return nil
	}
	act, err := calendar.Interpret(ev.Payload)
	if err != nil {
		return err
	}
	switch act.Kind {
	case calendar.Navigate:
		sess.Cursor = act.Cursor
		return out.EditCalendar(calendar.Render(act.Cursor))
	case calendar.Selected:
		sess.PublishAt = act.Date
		sess.HasDate = true
		sess.State = StateAwaitingTime
		logger.Debug(ctx, "conversation", "date.selected",
			slog.Int64("chat_id", chatID),
			slog.Time("publish_at", act.Date),
		)
		return out.RemoveKeyboard(msgAskTime)
	}
	return nil
}

// handleTime finishes the scheduled path. Valid HH:MM input is applied to
// the picked date and the post is published; anything else sends the user
// back to the calendar.
func (m *Machine) handleTime(ctx context.Context, chatID int64, sess *Session, ev Event, out Actions) error {
	if ev.Kind != EventText {
		return nil
	}
	publishAt, ok := applyClock(sess.PublishAt, ev.Text)
	if !ok || !sess.HasDate {
		sess.State = StateAwaitingDatePick
		return out.SendCalendar(msgAskDate, calendar.Render(sess.Cursor))
	}
	return m.publish(ctx, chatID, sess, &publishAt, out)
}

// publish runs the terminal transition: stage media remotely, create the
// post, resolve the share URL, optionally record the result. Publisher
// failures end the conversation with a generic failure message.
func (m *Machine) publish(ctx context.Context, chatID int64, sess *Session, publishAt *time.Time, out Actions) error {
	dest := m.cfg.Destination

	ref, err := m.pub.StageMedia(ctx, sess.MediaPath, dest)
	if err != nil {
		m.discard(chatID, sess.MediaPath)
		if sendErr := out.SendText(msgPublishFailed); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("stage media: %w", err)
	}

	postID, err := m.pub.CreatePost(ctx, sess.Caption, ref, publishAt, dest)
	if err != nil {
		m.discard(chatID, sess.MediaPath)
		if sendErr := out.SendText(msgPublishFailed); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("create post: %w", err)
	}

	url, err := m.pub.ResolveShareURL(ctx, dest, postID)
	if err != nil {
		m.discard(chatID, sess.MediaPath)
		if sendErr := out.SendText(msgPublishFailed); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("resolve share url: %w", err)
	}

	attrs := []slog.Attr{
		slog.Int64("chat_id", chatID),
		slog.Int64("post_id", postID),
		slog.String("attachment", ref),
		slog.String("url", url),
	}
	if publishAt != nil {
		attrs = append(attrs, slog.Time("publish_at", *publishAt))
	}
	logger.Info(ctx, "conversation", "published", attrs...)

	if m.recorder != nil {
		rec := PostRecord{
			ChatID:     chatID,
			Caption:    sess.Caption,
			Attachment: ref,
			PostID:     postID,
			URL:        url,
			PublishAt:  publishAt,
		}
		if err := m.recorder.Record(ctx, rec); err != nil {
			logger.Warn(ctx, "history", "record.failed",
				slog.Int64("chat_id", chatID),
				slog.Int64("post_id", postID),
				slog.String("err", err.Error()),
			)
		}
	}

	m.discard(chatID, sess.MediaPath)
	return out.SendText(url)
}

// cancel ends the conversation from any state and discards the session.
func (m *Machine) cancel(ctx context.Context, chatID int64, out Actions) error {
	if sess, ok := m.store.peek(chatID); ok {
		m.discard(chatID, sess.MediaPath)
	}
	logger.Info(ctx, "conversation", "cancelled",
		slog.Int64("chat_id", chatID),
	)
	return out.RemoveKeyboard(msgFarewell)
}

// discard drops the session and best-effort removes the staged file.
func (m *Machine) discard(chatID int64, mediaPath string) {
	m.store.drop(chatID)
	if mediaPath == "" {
		return
	}
	if err := os.Remove(mediaPath); err != nil && !os.IsNotExist(err) {
		logger.Debug(context.Background(), "conversation", "media.cleanup.failed",
			slog.String("media_path", mediaPath),
			slog.String("err", err.Error()),
		)
	}
}
