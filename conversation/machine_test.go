package conversation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wallpostbot/core/telegram/calendar"
)

type call struct {
	op   string
	text string
}

type fakeActions struct {
	calls []call
}

func (a *fakeActions) SendText(text string) error {
	a.calls = append(a.calls, call{"text", text})
	return nil
}

func (a *fakeActions) SendChoices(text string, choices []string) error {
	a.calls = append(a.calls, call{"choices", text})
	return nil
}

func (a *fakeActions) SendCalendar(text string, _ calendar.Grid) error {
	a.calls = append(a.calls, call{"send_calendar", text})
	return nil
}

func (a *fakeActions) EditCalendar(_ calendar.Grid) error {
	a.calls = append(a.calls, call{"edit_calendar", ""})
	return nil
}

func (a *fakeActions) RemoveKeyboard(text string) error {
	a.calls = append(a.calls, call{"remove", text})
	return nil
}

func (a *fakeActions) last(t *testing.T) call {
	t.Helper()
	if len(a.calls) == 0 {
		t.Fatal("no actions recorded")
	}
	return a.calls[len(a.calls)-1]
}

type fakePublisher struct {
	authErr  error
	stageErr error
	postErr  error
	urlErr   error

	stagedPath string
	caption    string
	mediaRef   string
	publishAt  *time.Time
	dest       string
	posted     bool
}

func (p *fakePublisher) Authenticate(ctx context.Context) error { return p.authErr }

func (p *fakePublisher) StageMedia(ctx context.Context, localPath, destination string) (string, error) {
	if p.stageErr != nil {
		return "", p.stageErr
	}
	p.stagedPath = localPath
	return "photo-1_2", nil
}

func (p *fakePublisher) CreatePost(ctx context.Context, caption, mediaRef string, publishAt *time.Time, destination string) (int64, error) {
	if p.postErr != nil {
		return 0, p.postErr
	}
	p.posted = true
	p.caption = caption
	p.mediaRef = mediaRef
	p.publishAt = publishAt
	p.dest = destination
	return 42, nil
}

func (p *fakePublisher) ResolveShareURL(ctx context.Context, destination string, postID int64) (string, error) {
	if p.urlErr != nil {
		return "", p.urlErr
	}
	return "https://vk.com/group?w=wall-1_42", nil
}

type fakeRecorder struct {
	records []PostRecord
	err     error
}

func (r *fakeRecorder) Record(ctx context.Context, rec PostRecord) error {
	r.records = append(r.records, rec)
	return r.err
}

func newTestMachine(t *testing.T, pub Publisher, rec Recorder) *Machine {
	t.Helper()
	return New(Config{Destination: "123", MediaDir: t.TempDir()}, pub, rec)
}

func stageEvent() Event {
	return Event{
		Kind: EventAttachment,
		Stage: func(dst string) error {
			return os.WriteFile(dst, []byte("img"), 0o600)
		},
	}
}

func dispatch(t *testing.T, m *Machine, ev Event, out *fakeActions) {
	t.Helper()
	if err := m.Dispatch(context.Background(), 7, ev, out); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func stagedFiles(t *testing.T, m *Machine) []string {
	t.Helper()
	entries, err := filepath.Glob(filepath.Join(m.cfg.MediaDir, "*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return entries
}

func TestImmediatePublishFlow(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	m := newTestMachine(t, pub, rec)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	if got := out.last(t); got != (call{"text", msgAskCaption}) {
		t.Fatalf("after attachment: %+v", got)
	}
	if !m.InProgress(7) {
		t.Fatal("conversation should be in progress")
	}

	dispatch(t, m, Event{Kind: EventText, Text: "cat pics"}, out)
	if got := out.last(t); got.op != "choices" {
		t.Fatalf("after caption: %+v", got)
	}

	dispatch(t, m, Event{Kind: EventText, Text: "Now"}, out)
	if !pub.posted {
		t.Fatal("post was not created")
	}
	if pub.caption != "cat pics" {
		t.Errorf("caption = %q", pub.caption)
	}
	if pub.publishAt != nil {
		t.Errorf("publishAt = %v, want nil for immediate publish", pub.publishAt)
	}
	if pub.dest != "123" {
		t.Errorf("destination = %q", pub.dest)
	}
	if got := out.last(t); got != (call{"text", "https://vk.com/group?w=wall-1_42"}) {
		t.Errorf("final message: %+v", got)
	}
	if m.InProgress(7) {
		t.Error("conversation should have ended")
	}
	if files := stagedFiles(t, m); len(files) != 0 {
		t.Errorf("staged files left behind: %v", files)
	}
	if len(rec.records) != 1 || rec.records[0].PostID != 42 {
		t.Errorf("records = %+v", rec.records)
	}
}

func TestScheduledPublishFlow(t *testing.T) {
	pub := &fakePublisher{}
	m := newTestMachine(t, pub, nil)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	dispatch(t, m, Event{Kind: EventText, Text: "scheduled pic"}, out)
	dispatch(t, m, Event{Kind: EventText, Text: "Other date"}, out)
	if got := out.last(t); got != (call{"send_calendar", msgAskDate}) {
		t.Fatalf("after timing choice: %+v", got)
	}
	if m.StateOf(7) != string(StateAwaitingDatePick) {
		t.Fatalf("state = %q", m.StateOf(7))
	}

	dispatch(t, m, Event{Kind: EventCalendar, Payload: "next|2026|8"}, out)
	if got := out.last(t); got.op != "edit_calendar" {
		t.Fatalf("after navigation: %+v", got)
	}
	if m.StateOf(7) != string(StateAwaitingDatePick) {
		t.Fatalf("navigation left state %q", m.StateOf(7))
	}

	dispatch(t, m, Event{Kind: EventCalendar, Payload: "day|2026|9|15"}, out)
	if got := out.last(t); got != (call{"remove", msgAskTime}) {
		t.Fatalf("after day pick: %+v", got)
	}

	dispatch(t, m, Event{Kind: EventText, Text: "14:30"}, out)
	if !pub.posted {
		t.Fatal("post was not created")
	}
	want := time.Date(2026, time.September, 15, 14, 30, 0, 0, time.Local)
	if pub.publishAt == nil || !pub.publishAt.Equal(want) {
		t.Errorf("publishAt = %v, want %v", pub.publishAt, want)
	}
	if m.InProgress(7) {
		t.Error("conversation should have ended")
	}
}

func TestInvalidTimeReturnsToCalendar(t *testing.T) {
	pub := &fakePublisher{}
	m := newTestMachine(t, pub, nil)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	dispatch(t, m, Event{Kind: EventText, Text: "pic"}, out)
	dispatch(t, m, Event{Kind: EventText, Text: "Other date"}, out)
	dispatch(t, m, Event{Kind: EventCalendar, Payload: "day|2026|9|15"}, out)

	dispatch(t, m, Event{Kind: EventText, Text: "2pm"}, out)
	if got := out.last(t); got != (call{"send_calendar", msgAskDate}) {
		t.Fatalf("after bad time: %+v", got)
	}
	if m.StateOf(7) != string(StateAwaitingDatePick) {
		t.Errorf("state = %q, want date pick again", m.StateOf(7))
	}
	if pub.posted {
		t.Error("post must not be created on invalid time")
	}

	// Caption survives the detour.
	dispatch(t, m, Event{Kind: EventCalendar, Payload: "day|2026|9|16"}, out)
	dispatch(t, m, Event{Kind: EventText, Text: "09:00"}, out)
	if pub.caption != "pic" {
		t.Errorf("caption = %q after retry", pub.caption)
	}
}

func TestAuthFailureEndsConversation(t *testing.T) {
	pub := &fakePublisher{authErr: errors.New("bad token")}
	m := newTestMachine(t, pub, nil)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	if got := out.last(t); got != (call{"text", msgAuthFailed}) {
		t.Fatalf("after auth failure: %+v", got)
	}
	if m.InProgress(7) {
		t.Error("conversation should not have started")
	}
	if files := stagedFiles(t, m); len(files) != 0 {
		t.Errorf("staged files left behind: %v", files)
	}
}

func TestPublishFailure(t *testing.T) {
	pub := &fakePublisher{postErr: errors.New("wall closed")}
	m := newTestMachine(t, pub, nil)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	dispatch(t, m, Event{Kind: EventText, Text: "pic"}, out)
	dispatch(t, m, Event{Kind: EventText, Text: "Now"}, out)
	if got := out.last(t); got != (call{"text", msgPublishFailed}) {
		t.Fatalf("after publish failure: %+v", got)
	}
	if m.InProgress(7) {
		t.Error("conversation should have ended")
	}
	if files := stagedFiles(t, m); len(files) != 0 {
		t.Errorf("staged files left behind: %v", files)
	}
}

func TestCancelMidFlow(t *testing.T) {
	pub := &fakePublisher{}
	m := newTestMachine(t, pub, nil)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	dispatch(t, m, Event{Kind: EventText, Text: "pic"}, out)
	dispatch(t, m, Event{Kind: EventCancel}, out)
	if got := out.last(t); got != (call{"remove", msgFarewell}) {
		t.Fatalf("after cancel: %+v", got)
	}
	if m.InProgress(7) {
		t.Error("conversation should have ended")
	}
	if files := stagedFiles(t, m); len(files) != 0 {
		t.Errorf("staged files left behind: %v", files)
	}
	if pub.posted {
		t.Error("nothing should have been published")
	}
}

func TestChatsAreIsolated(t *testing.T) {
	pub := &fakePublisher{}
	m := newTestMachine(t, pub, nil)
	out := &fakeActions{}

	dispatch(t, m, stageEvent(), out)
	if m.InProgress(8) {
		t.Error("second chat must stay idle")
	}
	if err := m.Dispatch(context.Background(), 8, Event{Kind: EventText, Text: "stray"}, out); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if m.StateOf(7) != string(StateAwaitingDescription) {
		t.Errorf("first chat state = %q", m.StateOf(7))
	}
}

func TestTextInIdleIsIgnored(t *testing.T) {
	m := newTestMachine(t, &fakePublisher{}, nil)
	out := &fakeActions{}
	dispatch(t, m, Event{Kind: EventText, Text: "hello"}, out)
	if m.InProgress(7) {
		t.Error("text must not start a conversation")
	}
	if len(out.calls) != 0 {
		t.Errorf("unexpected actions: %+v", out.calls)
	}
}

func TestApplyClock(t *testing.T) {
	date := time.Date(2026, time.September, 15, 0, 0, 0, 0, time.Local)

	got, ok := applyClock(date, "14:30")
	if !ok {
		t.Fatal("valid input rejected")
	}
	if got.Year() != 2026 || got.Month() != time.September || got.Day() != 15 {
		t.Errorf("date part changed: %v", got)
	}
	if got.Hour() != 14 || got.Minute() != 30 {
		t.Errorf("time part = %02d:%02d", got.Hour(), got.Minute())
	}

	for _, input := range []string{"2pm", "9:00", "14:30:00", "ab:cd", ""} {
		if _, ok := applyClock(date, input); ok {
			t.Errorf("applyClock accepted %q", input)
		}
	}

	// Out-of-range values are not rejected, they roll into the next day.
	got, ok = applyClock(date, "25:90")
	if !ok {
		t.Fatal("overflow input rejected")
	}
	if got.Day() != 16 || got.Hour() != 2 || got.Minute() != 30 {
		t.Errorf("overflow result = %v", got)
	}
}
