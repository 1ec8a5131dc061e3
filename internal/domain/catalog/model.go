package catalog

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindSingle Kind = "single"
	KindSeries Kind = "series"
)

// Location points at a stored Telegram message that can be copied.
type Location struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

type Entry struct {
	Code      string
	Title     string
	Kind      Kind
	Location  Location   // single
	Parts     []Location // series, in order
	Views     int64
	CreatedAt time.Time
}

// Media returns the messages to replay, in order.
func (e Entry) Media() []Location {
	if e.Kind == KindSeries {
		return e.Parts
	}
	return []Location{e.Location}
}

// Last is the message mirrored to the base channel.
func (e Entry) Last() (Location, bool) {
	m := e.Media()
	if len(m) == 0 {
		return Location{}, false
	}
	return m[len(m)-1], true
}

var (
	ErrNotFound  = errors.New("catalog: entry not found")
	ErrCodeTaken = errors.New("catalog: code already taken")
)

// FormatCode renders a single-entry sequence number as a 4-digit code.
func FormatCode(n int64) string {
	return fmt.Sprintf("%04d", n)
}
