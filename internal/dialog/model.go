package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type State string

const (
	StateNone State = ""

	// Foydalanuvchi oqimlari
	StateSearch         State = "search"
	StateAwaitUserVideo State = "await_user_video"
	StateContactAdmin   State = "contact_admin"

	// Kino qo'shish
	StateAwaitMovie State = "await_movie"

	// Serial qo'shish: kod -> nom -> qismlar
	StateSeriesCode  State = "series:await_code"
	StateSeriesTitle State = "series:await_title"
	StateSeriesParts State = "series:await_parts"

	// Admin panel
	StateBroadcast   State = "broadcast"
	StateChannelAdd  State = "channel:add"
	StateAdminAdd    State = "admin:add"
	StateAdminRemove State = "admin:remove"
	StateEntryRemove State = "entry:remove"
	StateBaseChannel State = "base_channel"
)

var known = map[State]struct{}{
	StateSearch:         {},
	StateAwaitUserVideo: {},
	StateContactAdmin:   {},
	StateAwaitMovie:     {},
	StateSeriesCode:     {},
	StateSeriesTitle:    {},
	StateSeriesParts:    {},
	StateBroadcast:      {},
	StateChannelAdd:     {},
	StateAdminAdd:       {},
	StateAdminRemove:    {},
	StateEntryRemove:    {},
	StateBaseChannel:    {},
}

// Valid reports whether s is one of the named states. StateNone is not valid.
func (s State) Valid() bool {
	_, ok := known[s]
	return ok
}

type Payload map[string]any

// Key identifies a conversation: one session per user per chat.
type Key struct {
	ChatID int64
	UserID int64
}

type Session struct {
	Key     Key
	State   State
	Payload Payload
}

var (
	ErrNoSession    = errors.New("dialog: no active session")
	ErrInvalidState = errors.New("dialog: invalid state")
)

// Store keeps at most one session per key.
type Store interface {
	// Get returns nil when the key has no session.
	Get(ctx context.Context, key Key) (*Session, error)
	// Set replaces the state and merges fields into the existing payload.
	Set(ctx context.Context, key Key, state State, fields Payload) error
	// Update merges fields into the payload of an existing session.
	Update(ctx context.Context, key Key, fields Payload) error
	Clear(ctx context.Context, key Key) error
}

// GetString Helper для безопасного чтения строк из payload
func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decode reads p[key] into dst. Payload values come back from storage as
// generic JSON, so they are re-encoded into the destination type.
func Decode(p Payload, key string, dst any) error {
	v, ok := p[key]
	if !ok {
		return fmt.Errorf("dialog: field %q not set", key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("dialog: encode %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("dialog: decode %q: %w", key, err)
	}
	return nil
}

func encodePayload(p Payload) ([]byte, error) {
	if p == nil {
		p = Payload{}
	}
	return json.Marshal(p)
}

func decodePayload(raw []byte) (Payload, error) {
	p := Payload{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

func merge(dst, src Payload) Payload {
	if dst == nil {
		dst = Payload{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
