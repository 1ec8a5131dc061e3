package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/kino-bot/internal/access"
	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/admins"
	"github.com/Spok95/kino-bot/internal/infra/metrics"
)

const defaultWorkers = 8

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

type Deps struct {
	API      API
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Users    UserStore
	Catalog  CatalogStore
	Channels ChannelStore
	Subs     SubmissionStore
	Settings SettingsStore
	Roles    *admins.Resolver
	Gate     *access.Gate
	States   dialog.Store
	// Workers bounds concurrent sends during fan-out.
	Workers int
}

type Bot struct {
	api      API
	log      *slog.Logger
	metrics  *metrics.Metrics
	users    UserStore
	catalog  CatalogStore
	channels ChannelStore
	subs     SubmissionStore
	settings SettingsStore
	roles    *admins.Resolver
	gate     *access.Gate
	states   dialog.Store
	locks    *dialog.Locker
	workers  int

	rules     []rule
	steps     map[dialog.State]step
	menu      map[string]menuItem
	callbacks []callbackRoute

	tasks sync.WaitGroup
}

func New(d Deps) *Bot {
	b := &Bot{
		api: d.API, log: d.Log, metrics: d.Metrics,
		users: d.Users, catalog: d.Catalog, channels: d.Channels,
		subs: d.Subs, settings: d.Settings,
		roles: d.Roles, gate: d.Gate, states: d.States,
		locks:   dialog.NewLocker(),
		workers: d.Workers,
	}
	if b.workers < 1 {
		b.workers = defaultWorkers
	}
	b.registerRoutes()
	return b
}

// Run polls Telegram until ctx is cancelled. Updates of one actor are handled
// in arrival order; different actors are handled concurrently.
func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	d := newDispatcher(&b.tasks, func(upd tgbotapi.Update) { b.HandleUpdate(ctx, upd) })
	for {
		select {
		case <-ctx.Done():
			d.stop()
			b.Wait()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				b.Wait()
				return nil
			}
			actor, ok := actorOf(upd)
			if !ok {
				continue
			}
			d.push(actor, upd)
		}
	}
}

// Wait blocks until queued updates and background fan-out tasks finish.
func (b *Bot) Wait() { b.tasks.Wait() }

// HandleUpdate processes one update under the actor's lock.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	actor, ok := actorOf(upd)
	if !ok {
		return
	}
	unlock := b.locks.Lock(actor)
	defer unlock()

	switch {
	case upd.Message != nil:
		b.metrics.Update("message")
		b.onMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.metrics.Update("callback")
		b.onCallback(ctx, upd.CallbackQuery)
	}
}

// background runs fn outside the caller's handler. Shutdown waits for it.
func (b *Bot) background(fn func()) {
	b.tasks.Add(1)
	go func() {
		defer b.tasks.Done()
		fn()
	}()
}

func actorOf(upd tgbotapi.Update) (int64, bool) {
	switch {
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Chat != nil:
		return upd.Message.From.ID, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.From.ID, true
	}
	return 0, false
}
