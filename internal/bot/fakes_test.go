package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Spok95/kino-bot/internal/access"
	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/admins"
	"github.com/Spok95/kino-bot/internal/domain/catalog"
	"github.com/Spok95/kino-bot/internal/domain/channels"
	"github.com/Spok95/kino-bot/internal/domain/submissions"
	"github.com/Spok95/kino-bot/internal/domain/users"
)

var errUnreachable = errors.New("chat not found")

/*** TELEGRAM ***/

type fakeAPI struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	copies   []tgbotapi.CopyMessageConfig

	failCopy  map[int64]bool
	chats     map[string]tgbotapi.Chat
	members   map[string]string
	memberErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		failCopy: map[int64]bool{},
		chats:    map[string]tgbotapi.Chat{},
		members:  map[string]string{},
	}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) CopyMessage(c tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCopy[c.ChatID] {
		return tgbotapi.MessageID{}, errors.New("Forbidden: bot was blocked by the user")
	}
	f.nextID++
	f.copies = append(f.copies, c)
	return tgbotapi.MessageID{MessageID: f.nextID}, nil
}

func (f *fakeAPI) GetChat(c tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := c.SuperGroupUsername
	if key == "" {
		key = strconv.FormatInt(c.ChatID, 10)
	}
	ch, ok := f.chats[key]
	if !ok {
		return tgbotapi.Chat{}, errUnreachable
	}
	return ch, nil
}

func (f *fakeAPI) GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memberErr != nil {
		return tgbotapi.ChatMember{}, f.memberErr
	}
	chat := c.SuperGroupUsername
	if chat == "" {
		chat = strconv.FormatInt(c.ChatID, 10)
	}
	status, ok := f.members[chat+":"+strconv.FormatInt(c.UserID, 10)]
	if !ok {
		status = access.StatusLeft
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

func (f *fakeAPI) setMember(channelID string, userID int64, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[channelID+":"+strconv.FormatInt(userID, 10)] = status
}

// messagesTo returns the plain messages sent to chatID, oldest first.
func (f *fakeAPI) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) lastMessage(t *testing.T, chatID int64) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messagesTo(chatID)
	if len(msgs) == 0 {
		t.Fatalf("no messages sent to %d", chatID)
	}
	return msgs[len(msgs)-1]
}

// sawText reports whether any message to chatID contains substr.
func (f *fakeAPI) sawText(chatID int64, substr string) bool {
	for _, m := range f.messagesTo(chatID) {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

func (f *fakeAPI) copiesTo(chatID int64) []tgbotapi.CopyMessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CopyMessageConfig
	for _, c := range f.copies {
		if c.ChatID == chatID {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) forwardsTo(chatID int64) []tgbotapi.ForwardConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.ForwardConfig
	for _, c := range f.sent {
		if fw, ok := c.(tgbotapi.ForwardConfig); ok && fw.ChatID == chatID {
			out = append(out, fw)
		}
	}
	return out
}

func (f *fakeAPI) callbackAnswers() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent) + len(f.copies)
}

/*** STORES ***/

type fakeUsers struct {
	mu   sync.Mutex
	byID map[int64]users.User
}

func (s *fakeUsers) EnsureExists(_ context.Context, u users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.TelegramID]; !ok {
		s.byID[u.TelegramID] = u
	}
	return nil
}

func (s *fakeUsers) ListIDs(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeUsers) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	entries []*catalog.Entry
	seq     int64
	// insertErr fails the next Insert call once.
	insertErr error
}

func (s *fakeCatalog) find(code string) *catalog.Entry {
	for _, e := range s.entries {
		if e.Code == code {
			return e
		}
	}
	return nil
}

func (s *fakeCatalog) get(code string) *catalog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.find(code); e != nil {
		cp := *e
		return &cp
	}
	return nil
}

func (s *fakeCatalog) put(e catalog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &e)
}

func (s *fakeCatalog) Insert(_ context.Context, e catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr; err != nil {
		s.insertErr = nil
		return err
	}
	if s.find(e.Code) != nil {
		return catalog.ErrCodeTaken
	}
	e.Views = 0
	e.CreatedAt = time.Now()
	s.entries = append(s.entries, &e)
	return nil
}

func (s *fakeCatalog) Exists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(code) != nil, nil
}

func (s *fakeCatalog) Find(_ context.Context, q string) (*catalog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.find(q); e != nil {
		cp := *e
		return &cp, nil
	}
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Title), strings.ToLower(q)) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *fakeCatalog) IncrementViews(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(code)
	if e == nil {
		return catalog.ErrNotFound
	}
	e.Views++
	return nil
}

func (s *fakeCatalog) Top(_ context.Context, limit int) ([]catalog.Entry, error) {
	all, _ := s.All(context.Background())
	sort.SliceStable(all, func(i, j int) bool { return all[i].Views > all[j].Views })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeCatalog) All(context.Context) ([]catalog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (s *fakeCatalog) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.entries)), nil
}

func (s *fakeCatalog) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.Code == code {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (s *fakeCatalog) NextSeq(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == 0 {
		s.seq = int64(len(s.entries))
	}
	s.seq++
	return s.seq, nil
}

type fakeChannels struct {
	mu   sync.Mutex
	list []channels.Channel
	err  error
}

func (s *fakeChannels) Upsert(_ context.Context, ch channels.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ChannelID == ch.ChannelID {
			s.list[i] = ch
			return nil
		}
	}
	s.list = append(s.list, ch)
	return nil
}

func (s *fakeChannels) List(context.Context) ([]channels.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]channels.Channel(nil), s.list...), nil
}

func (s *fakeChannels) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ChannelID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return nil
		}
	}
	return channels.ErrNotFound
}

type fakeSubs struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*submissions.Submission
}

func (s *fakeSubs) Create(_ context.Context, sub submissions.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sub.ID] = &sub
	return nil
}

func (s *fakeSubs) Decide(_ context.Context, id uuid.UUID, status submissions.Status, reviewer int64) (*submissions.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status != submissions.StatusApproved && status != submissions.StatusRejected {
		return nil, submissions.ErrInvalidDecision
	}
	sub, ok := s.byID[id]
	if !ok {
		return nil, submissions.ErrNotFound
	}
	if sub.Status != submissions.StatusPending {
		cp := *sub
		return &cp, submissions.ErrAlreadyDecided
	}
	sub.Status = status
	sub.ReviewedBy = reviewer
	sub.ReviewedAt = time.Now()
	cp := *sub
	return &cp, nil
}

func (s *fakeSubs) Reopen(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byID[id]
	if !ok || sub.Status != submissions.StatusApproved {
		return submissions.ErrNotFound
	}
	sub.Status = submissions.StatusPending
	sub.ReviewedBy = 0
	sub.ReviewedAt = time.Time{}
	return nil
}

func (s *fakeSubs) CountPending(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sub := range s.byID {
		if sub.Status == submissions.StatusPending {
			n++
		}
	}
	return n, nil
}

func (s *fakeSubs) all() []submissions.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []submissions.Submission
	for _, sub := range s.byID {
		out = append(out, *sub)
	}
	return out
}

type fakeSettings struct {
	mu   sync.Mutex
	base int64
	set  bool
}

func (s *fakeSettings) BaseChannel(context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base, s.set, nil
}

func (s *fakeSettings) SetBaseChannel(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base, s.set = id, true
	return nil
}

func (s *fakeSettings) ClearBaseChannel(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base, s.set = 0, false
	return nil
}

type fakeAdminSet struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func (s *fakeAdminSet) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id], nil
}

func (s *fakeAdminSet) Add(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return admins.ErrExists
	}
	s.ids[id] = true
	return nil
}

func (s *fakeAdminSet) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ids[id] {
		return admins.ErrNotFound
	}
	delete(s.ids, id)
	return nil
}

func (s *fakeAdminSet) List(context.Context) ([]admins.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []admins.Admin
	for id := range s.ids {
		out = append(out, admins.Admin{TelegramID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

/*** FIXTURE ***/

const (
	primaryID   int64 = 1
	secondaryID int64 = 2
	plainID     int64 = 100
)

type fixture struct {
	bot      *Bot
	api      *fakeAPI
	users    *fakeUsers
	catalog  *fakeCatalog
	channels *fakeChannels
	subs     *fakeSubs
	settings *fakeSettings
	admins   *fakeAdminSet
	states   *dialog.MemoryStore
	msgID    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:      newFakeAPI(),
		users:    &fakeUsers{byID: map[int64]users.User{}},
		catalog:  &fakeCatalog{},
		channels: &fakeChannels{},
		subs:     &fakeSubs{byID: map[uuid.UUID]*submissions.Submission{}},
		settings: &fakeSettings{},
		admins:   &fakeAdminSet{ids: map[int64]bool{secondaryID: true}},
		states:   dialog.NewMemoryStore(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.bot = New(Deps{
		API:      f.api,
		Log:      log,
		Users:    f.users,
		Catalog:  f.catalog,
		Channels: f.channels,
		Subs:     f.subs,
		Settings: f.settings,
		Roles:    admins.NewResolver(primaryID, f.admins),
		Gate:     access.NewGate(f.channels, NewMembers(f.api), log),
		States:   f.states,
		Workers:  4,
	})
	return f
}

func (f *fixture) nextMsgID() int {
	f.msgID++
	return f.msgID
}

func (f *fixture) message(from int64, text string) *tgbotapi.Message {
	m := &tgbotapi.Message{
		MessageID: f.nextMsgID(),
		From:      &tgbotapi.User{ID: from, FirstName: "User" + strconv.FormatInt(from, 10)},
		Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		n := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			n = i
		}
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return m
}

// text delivers a text message and waits for any background work it started.
func (f *fixture) text(from int64, text string) *tgbotapi.Message {
	m := f.message(from, text)
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: m})
	f.bot.Wait()
	return m
}

func (f *fixture) video(from int64, caption string) *tgbotapi.Message {
	m := f.message(from, "")
	m.Video = &tgbotapi.Video{FileID: "file-" + strconv.Itoa(m.MessageID)}
	m.Caption = caption
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: m})
	f.bot.Wait()
	return m
}

func (f *fixture) callback(from int64, data string) {
	cb := &tgbotapi.CallbackQuery{
		ID:   "cb-" + strconv.Itoa(f.nextMsgID()),
		From: &tgbotapi.User{ID: from},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: f.nextMsgID(),
			Chat:      &tgbotapi.Chat{ID: from},
			Text:      "card",
		},
	}
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: cb})
	f.bot.Wait()
}

func (f *fixture) session(t *testing.T, user int64) *dialog.Session {
	t.Helper()
	s, err := f.states.Get(context.Background(), dialog.Key{ChatID: user, UserID: user})
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return s
}

func (f *fixture) requireState(t *testing.T, user int64, want dialog.State) {
	t.Helper()
	s := f.session(t, user)
	got := dialog.StateNone
	if s != nil {
		got = s.State
	}
	if got != want {
		t.Fatalf("state of %d = %q, want %q", user, got, want)
	}
}
