package admins

import (
	"context"
	"fmt"
)

// Set is the persisted secondary admin set.
type Set interface {
	Exists(ctx context.Context, tgID int64) (bool, error)
	Add(ctx context.Context, tgID int64) error
	Remove(ctx context.Context, tgID int64) error
	List(ctx context.Context) ([]Admin, error)
}

// Resolver is the only place that knows the primary admin id.
type Resolver struct {
	primary int64
	set     Set
}

func NewResolver(primaryID int64, set Set) *Resolver {
	return &Resolver{primary: primaryID, set: set}
}

func (r *Resolver) PrimaryID() int64 { return r.primary }

func (r *Resolver) Resolve(ctx context.Context, tgID int64) (Role, error) {
	if tgID == r.primary {
		return RolePrimary, nil
	}
	ok, err := r.set.Exists(ctx, tgID)
	if err != nil {
		return RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	if ok {
		return RoleSecondary, nil
	}
	return RoleNone, nil
}

// Recipients returns the primary admin followed by the secondary set, without duplicates.
func (r *Resolver) Recipients(ctx context.Context) ([]int64, error) {
	list, err := r.set.List(ctx)
	if err != nil {
		return []int64{r.primary}, fmt.Errorf("list admins: %w", err)
	}
	out := []int64{r.primary}
	for _, a := range list {
		if a.TelegramID != r.primary {
			out = append(out, a.TelegramID)
		}
	}
	return out, nil
}

// Grant adds a secondary admin.
func (r *Resolver) Grant(ctx context.Context, tgID int64) error {
	if tgID == r.primary {
		return ErrPrimary
	}
	return r.set.Add(ctx, tgID)
}

// Revoke removes a secondary admin. The primary admin is never removable.
func (r *Resolver) Revoke(ctx context.Context, tgID int64) error {
	if tgID == r.primary {
		return ErrPrimary
	}
	return r.set.Remove(ctx, tgID)
}

// Secondary lists the secondary admins.
func (r *Resolver) Secondary(ctx context.Context) ([]Admin, error) {
	list, err := r.set.List(ctx)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, a := range list {
		if a.TelegramID != r.primary {
			out = append(out, a)
		}
	}
	return out, nil
}
