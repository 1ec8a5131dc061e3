package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/admins"
	"github.com/Spok95/kino-bot/internal/domain/users"
)

// event is one inbound message or callback with everything the router
// needs resolved up front. The role is resolved once per event.
type event struct {
	msg     *tgbotapi.Message
	cb      *tgbotapi.CallbackQuery
	from    *tgbotapi.User
	actor   int64
	chat    int64
	text    string
	role    admins.Role
	key     dialog.Key
	session *dialog.Session
}

func (e *event) isVideo() bool { return e.msg != nil && e.msg.Video != nil }

func (e *event) state() dialog.State {
	if e.session == nil {
		return dialog.StateNone
	}
	return e.session.State
}

// access levels for menu items and steps
type level int

const (
	levelUser level = iota
	levelAdmin
	levelPrimary
)

func (l level) allows(r admins.Role) bool {
	switch l {
	case levelAdmin:
		return r.IsAdmin()
	case levelPrimary:
		return r == admins.RolePrimary
	default:
		return true
	}
}

type rule struct {
	name   string
	match  func(ev *event) bool
	handle func(ctx context.Context, ev *event)
}

type step struct {
	level  level
	handle func(ctx context.Context, ev *event)
}

type menuItem struct {
	level level
	// gated items require mandatory-channel subscription from non-admins
	gated bool
	// deny is sent to actors below level; empty means ignore silently
	deny   string
	handle func(ctx context.Context, ev *event)
}

type callbackRoute struct {
	prefix string
	level  level
	handle func(ctx context.Context, ev *event, arg string)
}

// registerRoutes builds the message precedence list, highest first:
//  1. back sentinel (or /cancel) always resets to the home menu;
//  2. an active session routes to its state's step;
//  3. commands and exact menu labels;
//  4. an admin's bare video outside any flow adds a catalog entry.
//
// Anything else is ignored.
func (b *Bot) registerRoutes() {
	b.rules = []rule{
		{"back", isBack, b.handleBack},
		{"state", hasSession, b.handleStep},
		{"start", isCommand("start"), b.handleStart},
		{"help", isCommand("help"), b.handleHelp},
		{"menu", b.isMenuLabel, b.handleMenu},
		{"admin_video", isAdminVideo, b.handleQuickAdd},
	}

	b.steps = map[dialog.State]step{
		dialog.StateSearch:         {levelUser, b.stepSearch},
		dialog.StateAwaitUserVideo: {levelUser, b.stepUserVideo},
		dialog.StateContactAdmin:   {levelUser, b.stepContactAdmin},
		dialog.StateAwaitMovie:     {levelAdmin, b.stepAwaitMovie},
		dialog.StateSeriesCode:     {levelAdmin, b.stepSeriesCode},
		dialog.StateSeriesTitle:    {levelAdmin, b.stepSeriesTitle},
		dialog.StateSeriesParts:    {levelAdmin, b.stepSeriesParts},
		dialog.StateBroadcast:      {levelAdmin, b.stepBroadcast},
		dialog.StateChannelAdd:     {levelAdmin, b.stepChannelAdd},
		dialog.StateEntryRemove:    {levelAdmin, b.stepEntryRemove},
		dialog.StateBaseChannel:    {levelAdmin, b.stepBaseChannel},
		dialog.StateAdminAdd:       {levelPrimary, b.stepAdminAdd},
		dialog.StateAdminRemove:    {levelPrimary, b.stepAdminRemove},
	}

	const notAdmin = "Siz admin emassiz!"
	const notPrimary = "Bu amal faqat asosiy admin uchun."
	b.menu = map[string]menuItem{
		btnSearch:  {levelUser, true, "", b.menuSearch},
		btnTop:     {levelUser, true, "", b.menuTop},
		btnSubmit:  {levelUser, true, "", b.menuSubmit},
		btnContact: {levelUser, true, "", b.menuContact},
		btnStats:   {levelUser, true, "", b.menuStats},

		btnAdminPanel:  {levelAdmin, false, notAdmin, b.menuAdminPanel},
		btnUserMenu:    {levelAdmin, false, "", b.menuUserMenu},
		btnAddMovie:    {levelAdmin, false, "", b.menuAddMovie},
		btnAddSeries:   {levelAdmin, false, "", b.menuAddSeries},
		btnRemoveEntry: {levelAdmin, false, "", b.menuRemoveEntry},
		btnExport:      {levelAdmin, false, "", b.menuExport},
		btnBroadcast:   {levelAdmin, false, "", b.menuBroadcast},
		btnBaseChannel: {levelAdmin, false, "", b.menuBaseChannel},
		btnListAdmins:  {levelAdmin, false, "", b.menuListAdmins},

		btnChannels:      {levelAdmin, false, "", b.menuChannels},
		btnChannelAdd:    {levelAdmin, false, "", b.menuChannelAdd},
		btnChannelRemove: {levelAdmin, false, "", b.menuChannelRemove},
		btnChannelList:   {levelAdmin, false, "", b.menuChannelList},

		btnAddAdmin:    {levelPrimary, false, notPrimary, b.menuAddAdmin},
		btnRemoveAdmin: {levelPrimary, false, notPrimary, b.menuRemoveAdmin},
	}

	b.callbacks = []callbackRoute{
		{cbCheckSub, levelUser, b.cbCheckSubscription},
		{cbApprove, levelAdmin, b.cbApproveSubmission},
		{cbReject, levelAdmin, b.cbRejectSubmission},
		{cbChannelRm, levelAdmin, b.cbRemoveChannel},
	}
}

func isBack(ev *event) bool {
	return ev.text == btnBack || (ev.msg != nil && ev.msg.IsCommand() && ev.msg.Command() == "cancel")
}

func isCommand(name string) func(ev *event) bool {
	return func(ev *event) bool {
		return ev.msg != nil && ev.msg.IsCommand() && ev.msg.Command() == name
	}
}

func hasSession(ev *event) bool { return ev.session != nil }

func (b *Bot) isMenuLabel(ev *event) bool {
	_, ok := b.menu[ev.text]
	return ok
}

func isAdminVideo(ev *event) bool { return ev.role.IsAdmin() && ev.isVideo() }

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	ev := b.newEvent(ctx, msg.From, msg.Chat.ID)
	ev.msg = msg
	ev.text = strings.TrimSpace(msg.Text)

	for _, r := range b.rules {
		if r.match(ev) {
			b.metrics.Route(r.name)
			r.handle(ctx, ev)
			return
		}
	}
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}
	ev := b.newEvent(ctx, cb.From, chatID)
	ev.cb = cb

	for _, r := range b.callbacks {
		if !strings.HasPrefix(cb.Data, r.prefix) {
			continue
		}
		if !r.level.allows(ev.role) {
			_ = b.answerCallback(cb, "Siz admin emassiz!", true)
			return
		}
		b.metrics.Route("cb:" + strings.TrimSuffix(r.prefix, ":"))
		r.handle(ctx, ev, strings.TrimPrefix(cb.Data, r.prefix))
		return
	}
	_ = b.answerCallback(cb, "", false)
}

// newEvent registers the user, resolves the role and loads the session.
// Failures degrade to an unprivileged actor without a session.
func (b *Bot) newEvent(ctx context.Context, from *tgbotapi.User, chatID int64) *event {
	ev := &event{
		from:  from,
		actor: from.ID,
		chat:  chatID,
		key:   dialog.Key{ChatID: chatID, UserID: from.ID},
	}

	if err := b.users.EnsureExists(ctx, users.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}); err != nil {
		b.log.Error("register user failed", "user", from.ID, "err", err)
	}

	role, err := b.roles.Resolve(ctx, from.ID)
	if err != nil {
		b.log.Error("resolve role failed", "user", from.ID, "err", err)
		role = admins.RoleNone
	}
	ev.role = role

	sess, err := b.states.Get(ctx, ev.key)
	if err != nil {
		b.log.Error("load session failed", "user", from.ID, "err", err)
	}
	ev.session = sess
	return ev
}

func (b *Bot) handleBack(ctx context.Context, ev *event) {
	b.finish(ctx, ev)
}

func (b *Bot) handleStart(ctx context.Context, ev *event) {
	b.clearState(ctx, ev)
	if !b.passGate(ctx, ev) {
		return
	}
	b.replyKB(ev.chat,
		"Assalomu alaykum! Kino botga xush kelibsiz.\nQuyidagi tugmalardan foydalaning:",
		userKeyboard(ev.role.IsAdmin()))
}

func (b *Bot) handleHelp(_ context.Context, ev *event) {
	b.reply(ev.chat, "Buyruqlar:\n/start — botni ishga tushirish\n/cancel — amalni bekor qilish\n/help — yordam")
}

func (b *Bot) handleStep(ctx context.Context, ev *event) {
	st, ok := b.steps[ev.state()]
	if !ok || !st.level.allows(ev.role) {
		// role changed mid-flow or unknown state: drop the flow
		b.finish(ctx, ev)
		return
	}
	st.handle(ctx, ev)
}

func (b *Bot) handleMenu(ctx context.Context, ev *event) {
	item := b.menu[ev.text]
	if !item.level.allows(ev.role) {
		if item.deny != "" {
			b.reply(ev.chat, item.deny)
		}
		return
	}
	if item.gated && !b.passGate(ctx, ev) {
		return
	}
	item.handle(ctx, ev)
}

// passGate lets admins through and checks mandatory subscriptions for
// everyone else, sending the join prompt on failure.
func (b *Bot) passGate(ctx context.Context, ev *event) bool {
	if ev.role.IsAdmin() {
		return true
	}
	res, err := b.gate.Check(ctx, ev.actor)
	if err != nil {
		b.log.Error("subscription check failed", "user", ev.actor, "err", err)
		b.metrics.Gate(false)
		b.reply(ev.chat, "Xatolik yuz berdi, keyinroq urinib ko'ring.")
		return false
	}
	b.metrics.Gate(res.Subscribed)
	if res.Subscribed {
		return true
	}

	var sb strings.Builder
	sb.WriteString("Quyidagi kanallarga obuna bo'ling:\n\n")
	for _, ch := range res.Channels {
		sb.WriteString("• " + channelTitle(ch) + "\n")
	}
	m := tgbotapi.NewMessage(ev.chat, sb.String())
	m.ReplyMarkup = joinKeyboard(res)
	b.send(m)
	return false
}

func (b *Bot) cbCheckSubscription(ctx context.Context, ev *event, _ string) {
	ok := ev.role.IsAdmin()
	if !ok {
		res, err := b.gate.Check(ctx, ev.actor)
		if err != nil {
			b.log.Error("subscription check failed", "user", ev.actor, "err", err)
		}
		ok = err == nil && res.Subscribed
		b.metrics.Gate(ok)
	}
	if !ok {
		_ = b.answerCallback(ev.cb, "❌ Hali ham kanallarga obuna bo'lmagansiz!", true)
		return
	}
	_ = b.answerCallback(ev.cb, "", false)
	if ev.cb.Message != nil {
		b.editTextAndClear(ev.chat, ev.cb.Message.MessageID,
			"✅ Obuna tasdiqlandi! Endi botdan foydalanishingiz mumkin.")
	}
	b.replyKB(ev.chat, "Asosiy menyu:", userKeyboard(ev.role.IsAdmin()))
}

func (b *Bot) menuAdminPanel(_ context.Context, ev *event) {
	b.replyKB(ev.chat, "Admin panel:", adminKeyboard())
}

func (b *Bot) menuUserMenu(_ context.Context, ev *event) {
	b.replyKB(ev.chat, "Asosiy menyu:", userKeyboard(true))
}
