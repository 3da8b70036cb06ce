package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/repository"
)

// SocialGraph maintains favorites lists and the coach-only favorites order.
//
// A coach's FavoritesOrder lists athlete slots in display order, where slot k
// is the k-th entry of FavoritesIDs that refers to an Athlete. Follow appends
// a new slot, unfollow removes one and renumbers the rest.
type SocialGraph struct {
	users     repository.UserRepository
	coaches   repository.CoachRepository
	resolver  *Resolver
	publisher queue.Publisher
	log       *logrus.Entry
}

func NewSocialGraph(
	users repository.UserRepository,
	coaches repository.CoachRepository,
	resolver *Resolver,
	publisher queue.Publisher,
	log *logrus.Entry,
) *SocialGraph {
	return &SocialGraph{
		users:     users,
		coaches:   coaches,
		resolver:  resolver,
		publisher: publisher,
		log:       log,
	}
}

// Follow appends followingID to the follower's favorites. Duplicates are not
// checked. The passed user is left untouched; the persisted copy is returned.
func (g *SocialGraph) Follow(ctx context.Context, follower *model.User, followingID string) (*model.User, error) {
	if follower.ID == followingID {
		return nil, model.ErrCannotFollowSelf
	}

	target, err := g.users.GetByID(ctx, followingID)
	if err != nil {
		return nil, fmt.Errorf("get followee: %w", err)
	}

	updated := follower.Clone()
	updated.FavoritesIDs = append(updated.FavoritesIDs, followingID)

	if updated.CoachID != nil && target.IsAthlete() {
		coach, err := g.freshCoach(ctx, *updated.CoachID)
		if err != nil {
			return nil, err
		}
		if coach != nil {
			coach.FavoritesOrder = append(coach.FavoritesOrder, len(coach.FavoritesOrder))
			if err := g.coaches.Save(ctx, coach); err != nil {
				return nil, fmt.Errorf("save coach: %w", err)
			}
		}
	}

	if err := g.users.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save follower: %w", err)
	}

	g.log.WithFields(logrus.Fields{"follower": follower.ID, "followee": followingID}).Info("Follow OK")
	publish(ctx, g.publisher, g.log, queue.NewUserFollowedEvent(follower.ID, followingID))
	return &updated, nil
}

// Unfollow removes every occurrence of unfollowingID from the follower's
// favorites. When the follower coaches and the target is an athlete, the
// favorites order is renumbered first; a target missing from favorites is
// then ErrFavoriteIndexMissing and nothing is written.
func (g *SocialGraph) Unfollow(ctx context.Context, follower *model.User, unfollowingID string) (*model.User, error) {
	targetIsAthlete := false
	target, err := g.users.GetByID(ctx, unfollowingID)
	switch {
	case err == nil:
		targetIsAthlete = target.IsAthlete()
	case !errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("get followee: %w", err)
	}

	updated := follower.Clone()
	if err := g.dropFavorite(ctx, &updated, unfollowingID, targetIsAthlete); err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{"follower": follower.ID, "followee": unfollowingID}).Info("Unfollow OK")
	publish(ctx, g.publisher, g.log, queue.NewUserUnfollowedEvent(follower.ID, unfollowingID))
	return &updated, nil
}

// dropFavorite removes targetID from follower's favorites, renumbers the
// coach order when needed and persists both records.
func (g *SocialGraph) dropFavorite(ctx context.Context, follower *model.User, targetID string, targetIsAthlete bool) error {
	if follower.CoachID != nil && targetIsAthlete {
		slots, err := g.athleteSlots(ctx, follower.FavoritesIDs)
		if err != nil {
			return err
		}

		var removing []int
		for k, favIndex := range slots {
			if follower.FavoritesIDs[favIndex] == targetID {
				removing = append(removing, k)
			}
		}
		if len(removing) == 0 {
			return fmt.Errorf("%s in favorites of %s: %w", targetID, follower.ID, model.ErrFavoriteIndexMissing)
		}

		coach, err := g.freshCoach(ctx, *follower.CoachID)
		if err != nil {
			return err
		}
		if coach != nil {
			// highest slot first so the lower slots keep their numbers
			for i := len(removing) - 1; i >= 0; i-- {
				coach.FavoritesOrder = RenumberFavoritesOrder(coach.FavoritesOrder, removing[i])
			}
			if err := g.coaches.Save(ctx, coach); err != nil {
				return fmt.Errorf("save coach: %w", err)
			}
		}
	}

	follower.FavoritesIDs = model.RemoveString(follower.FavoritesIDs, targetID)
	if err := g.users.Save(ctx, follower); err != nil {
		return fmt.Errorf("save follower: %w", err)
	}
	return nil
}

// RenumberFavoritesOrder drops the entry equal to idx and shifts every larger
// entry down by one. The result is never nil.
func RenumberFavoritesOrder(order []int, idx int) []int {
	out := make([]int, 0, len(order))
	for _, v := range order {
		switch {
		case v < idx:
			out = append(out, v)
		case v > idx:
			out = append(out, v-1)
		}
	}
	return out
}

// FavoriteAthletes returns the athletes the user follows. Coaches get them in
// their chosen order; everyone else in follow order.
func (g *SocialGraph) FavoriteAthletes(ctx context.Context, user *model.User) ([]model.User, error) {
	athletes, err := g.resolver.ResolveAthleteUsers(ctx, user.FavoritesIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.User, len(athletes))
	for _, a := range athletes {
		byID[a.ID] = a
	}

	var slots []model.User
	for _, id := range user.FavoritesIDs {
		if a, ok := byID[id]; ok {
			slots = append(slots, a)
		}
	}

	display := slots
	if user.CoachID != nil {
		coach, err := g.freshCoach(ctx, *user.CoachID)
		if err != nil {
			return nil, err
		}
		if coach != nil && isPermutation(coach.FavoritesOrder, len(slots)) {
			display = make([]model.User, 0, len(slots))
			for _, k := range coach.FavoritesOrder {
				display = append(display, slots[k])
			}
		} else if coach != nil {
			g.log.WithFields(logrus.Fields{
				"coach": coach.ID, "order": len(coach.FavoritesOrder), "athletes": len(slots),
			}).Warn("Favorites order out of sync, using follow order")
		}
	}

	return orderByInput(idsOf(display), display, func(u model.User) string { return u.ID }), nil
}

// ReorderFavorites replaces a coach's favorites order. order must be a
// permutation of the coach's athlete slots.
func (g *SocialGraph) ReorderFavorites(ctx context.Context, coachUser *model.User, order []int) (*model.CoachProfile, error) {
	if coachUser.CoachID == nil {
		return nil, model.ErrNotCoach
	}

	slots, err := g.athleteSlots(ctx, coachUser.FavoritesIDs)
	if err != nil {
		return nil, err
	}
	if !isPermutation(order, len(slots)) {
		return nil, model.ErrInvalidFavoritesOrder
	}

	coach, err := g.freshCoach(ctx, *coachUser.CoachID)
	if err != nil {
		return nil, err
	}
	if coach == nil {
		return nil, model.ErrNotCoach
	}

	coach.FavoritesOrder = append([]int{}, order...)
	if err := g.coaches.Save(ctx, coach); err != nil {
		return nil, fmt.Errorf("save coach: %w", err)
	}
	return coach, nil
}

// athleteSlots returns the index in favorites of every entry that refers to
// an Athlete, in favorites order.
func (g *SocialGraph) athleteSlots(ctx context.Context, favorites []string) ([]int, error) {
	athletes, err := g.resolver.ResolveAthleteUsers(ctx, favorites)
	if err != nil {
		return nil, fmt.Errorf("resolve favorite athletes: %w", err)
	}
	isAthlete := make(map[string]struct{}, len(athletes))
	for _, a := range athletes {
		isAthlete[a.ID] = struct{}{}
	}

	slots := make([]int, 0, len(athletes))
	for i, id := range favorites {
		if _, ok := isAthlete[id]; ok {
			slots = append(slots, i)
		}
	}
	return slots, nil
}

// freshCoach re-reads the coach profile. A dangling coach id yields nil.
func (g *SocialGraph) freshCoach(ctx context.Context, coachID string) (*model.CoachProfile, error) {
	coach, err := g.coaches.GetByID(ctx, coachID)
	if errors.Is(err, model.ErrNotFound) {
		g.log.WithField("coach", coachID).Warn("Coach profile missing")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coach: %w", err)
	}
	return coach, nil
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func idsOf(users []model.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
