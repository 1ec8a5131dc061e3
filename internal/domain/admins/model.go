package admins

import (
	"errors"
	"time"
)

type Role int

const (
	RoleNone Role = iota
	RoleSecondary
	RolePrimary
)

func (r Role) IsAdmin() bool { return r == RoleSecondary || r == RolePrimary }

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	default:
		return "none"
	}
}

type Admin struct {
	TelegramID int64
	CreatedAt  time.Time
}

var (
	ErrPrimary  = errors.New("admins: primary admin cannot be changed")
	ErrExists   = errors.New("admins: already an admin")
	ErrNotFound = errors.New("admins: not found")
)
