package middleware

import (
	"wallpostbot/core/logger"
	tghelpers "wallpostbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// StateGetter is the minimal interface required from an FSM manager.
type StateGetter interface {
	StateOf(chatID int64) string
}

// State returns a middleware that runs next only when the chat's FSM state
// matches expectedState. Sessions are keyed by chat, falling back to the
// sender when the update carries no chat.
func State(mgr StateGetter, expectedState string) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chatID := int64(0)
			if chat := c.Chat(); chat != nil {
				chatID = chat.ID
			} else if s := c.Sender(); s != nil {
				chatID = s.ID
			}
			currentState := mgr.StateOf(chatID)
			ctx := tghelpers.BuildContext(c)
			if currentState == expectedState {
				logger.TG.LogAttrs(ctx, slog.LevelDebug, "fsm.match",
					slog.Int64("chat_id", chatID),
					slog.String("state", currentState),
					slog.String("expected", expectedState),
					slog.String("rid", logger.RIDFrom(ctx)),
				)
				return next(c)
			}
			logger.TG.LogAttrs(ctx, slog.LevelDebug, "fsm.skip",
				slog.Int64("chat_id", chatID),
				slog.String("state", currentState),
				slog.String("expected", expectedState),
				slog.String("rid", logger.RIDFrom(ctx)),
			)
			// Ignore updates arriving in a different state
			return nil
		}
	}
}
