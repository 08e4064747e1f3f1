// Package bot implements the Telegram transport for mandatory-subscription
// gates.
//
// Architecture overview:
//   - tgbot.go    — TgBot struct, lifecycle (Start/Stop), Registry interface
//   - commands.go — /start, /register, /channels
//   - menu.go     — gate menu keyboards, callback actions decoded at the boundary
//   - dialog.go   — per-admin gate-creation dialog (url → id → duration → limit)
//   - register.go — registration flow and per-gate confirmations
//   - helpers.go  — Sanitize, plainResponse, sendWithKeyboard, NotifyAdmin
//
// Authorization is a single static admin identity from the config; every
// admin command and callback checks it before touching any state.
//
// Thread safety: the dialog session map and the session state itself are
// guarded by sync.Mutex — a dialog step runs entirely under the lock, and
// sends happen after it is released. All gate state lives in the registry,
// which does its own locking.
package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"

	"subgate/entity"
	"subgate/lib/sl"
)

// Registry defines the gate operations the bot depends on.
// Implemented by internal/registry.
type Registry interface {
	Add(g *entity.Gate) error
	Remove(id string) error
	List() []*entity.Gate
	RegisterUser(userID int64) []*entity.Gate
}

// TgBot is the central Telegram bot instance.
type TgBot struct {
	log      *slog.Logger
	api      *tgbotapi.Bot
	registry Registry
	adminId  int64
	updater  *ext.Updater
	mu       sync.Mutex // guards dialogs
	dialogs  map[int64]*dialogSession
}

func NewTgBot(apiKey string, adminId int64, registry Registry, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:      log.With(sl.Module("tgbot")),
		registry: registry,
		adminId:  adminId,
		dialogs:  make(map[int64]*dialogSession),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("register", t.register))
	dispatcher.AddHandler(handlers.NewCommand("channels", t.channels))

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbMenu), t.onMenuCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbDelete), t.onDeleteCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Equal(cbRegister), t.onRegisterCallback))

	// Plain text while a creation dialog is open.
	dispatcher.AddHandler(handlers.NewMessage(textNotCommand, t.onDialogMessage))

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("telegram bot started", slog.Int64("admin_id", t.adminId))
	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

func textNotCommand(msg *tgbotapi.Message) bool {
	return msg.Text != "" && !strings.HasPrefix(msg.Text, "/")
}
