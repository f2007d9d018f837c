package bot

import (
	tele "gopkg.in/telebot.v4"

	"wallpostbot/conversation"
	tghelpers "wallpostbot/core/telegram/helpers"
	"wallpostbot/core/telegram/ui"
)

const (
	msgIdleHint = "Send me an image and I will post it to the group wall."
)

// fallbacks answers updates that reach no command and no active
// conversation. An image outside a conversation starts one, so the photo
// and document fallbacks hand the update to the machine.
type fallbacks struct {
	fsm *fsmAdapter
}

var _ ui.FallbackProvider = (*fallbacks)(nil)

func (f *fallbacks) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgIdleHint)
	}
}

func (f *fallbacks) UnknownPhoto() tele.HandlerFunc {
	return f.startConversation()
}

func (f *fallbacks) UnknownDocument() tele.HandlerFunc {
	return f.startConversation()
}

func (f *fallbacks) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
	}
}

func (f *fallbacks) startConversation() tele.HandlerFunc {
	return func(c tele.Context) error {
		ev := eventFrom(c)
		if ev.Kind != conversation.EventAttachment {
			return tghelpers.SendText(c, msgIdleHint)
		}
		return f.fsm.dispatch(c, ev)
	}
}
