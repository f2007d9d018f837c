package bot

import (
	tele "gopkg.in/telebot.v4"

	"wallpostbot/conversation"
	tg "wallpostbot/core/telegram"
	"wallpostbot/core/telegram/commands"
	tghelpers "wallpostbot/core/telegram/helpers"
	"wallpostbot/history"
)

const (
	msgStart = "Hi! Send me an image and I will guide you through publishing it " +
		"to the group wall, right away or on a schedule."
	msgHelp = "Send an image to start a new post. I will ask for a description " +
		"and when to publish it. Use /cancel to abort at any point."
	msgHistoryDisabled = "Post history is disabled."

	recentLimit = 10
)

func (a *App) registerCommands(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start talking to the bot",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How to publish a post",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Abort the current post",
	})
	reg.RegisterCommand("/recent", commands.Command{
		Handler:     a.handleRecent,
		Description: "Show recently published posts",
		AdminOnly:   true,
	})
}

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, msgStart)
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendText(c, msgHelp)
}

func (a *App) handleCancel(c tele.Context) error {
	return a.fsm.dispatch(c, conversation.Event{Kind: conversation.EventCancel})
}

func (a *App) handleRecent(c tele.Context) error {
	if a.store == nil {
		return tghelpers.SendText(c, msgHistoryDisabled)
	}
	posts, err := a.store.Recent(tghelpers.BuildContext(c), recentLimit)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, history.FormatList(posts))
}
