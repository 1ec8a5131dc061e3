package channels

import (
	"errors"
	"strings"
)

// Channel is a mandatory-subscription channel.
type Channel struct {
	ChannelID string
	Title     string
	Link      string
}

var ErrNotFound = errors.New("channels: not found")

// JoinLink derives the public t.me link from a handle, falling back to the raw input.
func JoinLink(publicHandle, rawInput string) string {
	h := strings.TrimPrefix(strings.TrimSpace(publicHandle), "@")
	if h != "" {
		return "https://t.me/" + h
	}
	return strings.TrimSpace(rawInput)
}
