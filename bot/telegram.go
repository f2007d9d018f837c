package bot

import (
	tele "gopkg.in/telebot.v4"

	"wallpostbot/conversation"
	"wallpostbot/core/telegram/calendar"
	"wallpostbot/core/telegram/callbacks"
	tghelpers "wallpostbot/core/telegram/helpers"
	"wallpostbot/core/telegram/keyboard"
	"wallpostbot/core/telegram/router"
)

// fsmAdapter bridges the conversation machine to the message router and the
// state-guard middleware.
type fsmAdapter struct {
	machine *conversation.Machine
}

func (a *fsmAdapter) InProgress(chatID int64) bool { return a.machine.InProgress(chatID) }

func (a *fsmAdapter) StateOf(chatID int64) string { return a.machine.StateOf(chatID) }

// ManagerHandler feeds an in-progress update into the machine.
func (a *fsmAdapter) ManagerHandler(c tele.Context) error {
	return a.dispatch(c, eventFrom(c))
}

func (a *fsmAdapter) dispatch(c tele.Context, ev conversation.Event) error {
	ctx := tghelpers.BuildContext(c)
	return a.machine.Dispatch(ctx, router.ConversationID(c), ev, &teleActions{c: c})
}

// eventFrom strips the telebot update down to a conversation event.
func eventFrom(c tele.Context) conversation.Event {
	if cb := c.Callback(); cb != nil {
		return conversation.Event{
			Kind:    conversation.EventCalendar,
			Payload: callbacks.CallbackPayload(c),
		}
	}
	if stage := stageFunc(c); stage != nil {
		return conversation.Event{Kind: conversation.EventAttachment, Stage: stage}
	}
	return conversation.Event{Kind: conversation.EventText, Text: c.Text()}
}

// stageFunc returns a closure downloading the message attachment, or nil
// when the message carries none.
func stageFunc(c tele.Context) func(dst string) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	var file *tele.File
	switch {
	case msg.Photo != nil:
		file = &msg.Photo.File
	case msg.Document != nil:
		file = &msg.Document.File
	}
	if file == nil {
		return nil
	}
	return func(dst string) error {
		return c.Bot().Download(file, dst)
	}
}

// teleActions implements the machine's outbound side against the current
// telebot context.
type teleActions struct {
	c tele.Context
}

func (a *teleActions) SendText(text string) error {
	return tghelpers.SendText(a.c, text)
}

func (a *teleActions) SendChoices(text string, choices []string) error {
	rows := make([][]string, 0, len(choices))
	for _, choice := range choices {
		rows = append(rows, []string{choice})
	}
	opts := &tele.SendOptions{ReplyMarkup: keyboard.ReplyButtons(rows...)}
	return tghelpers.SendText(a.c, text, opts)
}

func (a *teleActions) SendCalendar(text string, grid calendar.Grid) error {
	opts := &tele.SendOptions{ReplyMarkup: calendar.Markup(grid)}
	return tghelpers.SendText(a.c, text, opts)
}

func (a *teleActions) EditCalendar(grid calendar.Grid) error {
	return tghelpers.EditMarkup(a.c, calendar.Markup(grid))
}

func (a *teleActions) RemoveKeyboard(text string) error {
	opts := &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()}
	return tghelpers.SendText(a.c, text, opts)
}
