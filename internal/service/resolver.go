package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
)

// Resolver turns stored id lists into entity batches in the caller's order.
type Resolver struct {
	users repository.UserRepository
	log   *logrus.Entry
}

func NewResolver(users repository.UserRepository, log *logrus.Entry) *Resolver {
	return &Resolver{users: users, log: log}
}

// ResolveUsers returns the users referenced by ids, ordered by the first
// occurrence of each id in the input. Unknown ids are dropped and every user
// appears once.
func (r *Resolver) ResolveUsers(ctx context.Context, ids []string) ([]model.User, error) {
	switch len(ids) {
	case 0:
		return []model.User{}, nil
	case 1:
		user, err := r.users.GetByID(ctx, ids[0])
		if errors.Is(err, model.ErrNotFound) {
			return []model.User{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		return []model.User{*user}, nil
	}

	users, err := r.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	ordered := orderByInput(ids, users, func(u model.User) string { return u.ID })
	r.log.WithFields(logrus.Fields{"requested": len(ids), "resolved": len(ordered)}).Debug("ResolveUsers OK")
	return ordered, nil
}

// ResolveAthleteUsers is ResolveUsers restricted to Athlete accounts.
func (r *Resolver) ResolveAthleteUsers(ctx context.Context, ids []string) ([]model.User, error) {
	users, err := r.ResolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	athletes := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.IsAthlete() {
			athletes = append(athletes, u)
		}
	}
	return athletes, nil
}

// orderByInput keeps the items whose id occurs in ids, at most one per id,
// sorted by the position of that id's first occurrence.
func orderByInput[T any](ids []string, items []T, idOf func(T) string) []T {
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, seen := position[id]; !seen {
			position[id] = i
		}
	}

	out := make([]T, 0, len(items))
	taken := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := idOf(item)
		if _, ok := position[id]; !ok {
			continue
		}
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return position[idOf(out[i])] < position[idOf(out[j])]
	})
	return out
}
