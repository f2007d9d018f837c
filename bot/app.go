// Package bot wires the conversation machine, the VK publisher, and the
// optional post history store into the shared Telegram runtime.
package bot

import (
	"fmt"

	"wallpostbot/conversation"
	"wallpostbot/core/bootstrap"
	tg "wallpostbot/core/telegram"
	"wallpostbot/core/telegram/calendar"
	"wallpostbot/core/telegram/middleware"
	"wallpostbot/core/telegram/router"
	"wallpostbot/history"
	"wallpostbot/vk"
)

// App is the assembled bot application.
type App struct {
	cfg     *Config
	machine *conversation.Machine
	fsm     *fsmAdapter
	store   *history.Store
	reg     *tg.Registry
}

// New bootstraps infrastructure and assembles the application.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}

	var recorder conversation.Recorder
	if res.DB != nil {
		a.store = history.NewStore(res.DB)
		recorder = &historyRecorder{store: a.store}
	}

	a.machine = conversation.New(conversation.Config{
		Destination: cfg.VK.GroupID,
		MediaDir:    cfg.Media.Dir,
	}, vk.New(cfg.VK), recorder)
	a.fsm = &fsmAdapter{machine: a.machine}

	a.reg = tg.NewRegistry()
	a.registerCommands(a.reg)

	// Calendar presses are only meaningful while the date picker is open.
	guard := middleware.State(a.fsm, string(conversation.StateAwaitingDatePick))
	if err := a.reg.RegisterCallback(calendar.CallbackKey, guard(a.fsm.ManagerHandler)); err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}

	return a, nil
}

// TelegramRunOptions builds the runtime options for the shared runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	fb := &fallbacks{fsm: a.fsm}
	a.reg.SetCallbackNotFound(fb.UnknownCallback())

	routes := router.TextRoutes(a.fsm, a.reg, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
		UnknownPhoto:    fb.UnknownPhoto(),
	})
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{
		NotFound: fb.UnknownCallback(),
	}))
	routes = append(routes, router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
	}, nil
}
