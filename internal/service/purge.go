package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/storage"
)

// PurgeReport counts what one purge removed.
type PurgeReport struct {
	UserID         string `json:"user_id"`
	CoachProfile   bool   `json:"coach_profile"`
	AthleteProfile bool   `json:"athlete_profile"`
	Dives          int    `json:"dives"`
	JudgeScores    int    `json:"judge_scores"`
	Posts          int    `json:"posts"`
	Media          int    `json:"media"`
	SavedPosts     int    `json:"saved_posts"`
	Messages       int    `json:"messages"`
	MessageLinks   int    `json:"message_links"`
	FavoritesOf    int    `json:"favorites_of"`
}

// Purger removes a user and every entity that references them. Stages run in
// a fixed order and are not rolled back when a later one fails; every stage
// tolerates rows that are already gone, so a failed purge can be rerun.
type Purger struct {
	store     *repository.Store
	blobs     storage.BlobStore
	graph     *SocialGraph
	cascade   *postCascade
	publisher queue.Publisher
	log       *logrus.Entry
}

func NewPurger(
	store *repository.Store,
	blobs storage.BlobStore,
	graph *SocialGraph,
	publisher queue.Publisher,
	log *logrus.Entry,
) *Purger {
	return &Purger{
		store:     store,
		blobs:     blobs,
		graph:     graph,
		cascade:   &postCascade{store: store, blobs: blobs, log: log},
		publisher: publisher,
		log:       log,
	}
}

type purgeStage struct {
	name string
	run  func(ctx context.Context, user *model.User, report *PurgeReport) error
}

// Purge deletes the user with id userID. A missing user returns
// model.ErrNothingToPurge with an empty report.
func (p *Purger) Purge(ctx context.Context, userID string) (*PurgeReport, error) {
	startTime := time.Now()
	report := &PurgeReport{UserID: userID}
	log := p.log.WithField("user", userID)

	user, err := p.resolveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNothingToPurge) {
			log.Info("No user record, nothing to purge")
		} else {
			log.WithError(err).Error("ResolveUser failed")
		}
		return report, err
	}

	stages := []purgeStage{
		{"PurgeProfile", p.purgeProfile},
		{"PurgePosts", p.purgePosts},
		{"PurgeMessages", p.purgeMessages},
		{"PurgeFavoritesOf", p.purgeFavoritesOf},
		{"PurgeProfilePicture", p.purgeProfilePicture},
		{"PurgeUserRecord", p.purgeUserRecord},
	}
	for _, stage := range stages {
		if err := stage.run(ctx, user, report); err != nil {
			log.WithField("stage", stage.name).WithError(err).Error("Purge stage failed")
			return report, fmt.Errorf("%s: %w", stage.name, err)
		}
		log.WithField("stage", stage.name).Debug("Purge stage done")
	}

	log.WithFields(logrus.Fields{
		"posts": report.Posts, "messages": report.Messages, "favorites_of": report.FavoritesOf,
		"duration": time.Since(startTime),
	}).Info("Purge OK")
	publish(ctx, p.publisher, p.log, queue.NewUserPurgedEvent(userID))
	return report, nil
}

func (p *Purger) resolveUser(ctx context.Context, userID string) (*model.User, error) {
	users, err := p.store.Users.GetByIDs(ctx, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	switch len(users) {
	case 0:
		return nil, model.ErrNothingToPurge
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("%d users with id %s: %w", len(users), userID, model.ErrInvariantViolation)
	}
}

func (p *Purger) purgeProfile(ctx context.Context, user *model.User, report *PurgeReport) error {
	if user.CoachID != nil {
		if err := p.purgeCoach(ctx, *user.CoachID); err != nil {
			return err
		}
		report.CoachProfile = true
	}
	if user.AthleteID != nil {
		if err := p.purgeAthlete(ctx, *user.AthleteID, report); err != nil {
			return err
		}
		report.AthleteProfile = true
	}
	return nil
}

func (p *Purger) purgeCoach(ctx context.Context, coachID string) error {
	coach, err := p.store.Coaches.GetByID(ctx, coachID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get coach: %w", err)
	}

	if coach.TeamID != nil {
		team, err := p.store.Teams.GetByID(ctx, *coach.TeamID)
		switch {
		case err == nil:
			if team.CoachID != nil && *team.CoachID == coach.ID {
				team.CoachID = nil
				if err := p.store.Teams.Save(ctx, team); err != nil {
					return fmt.Errorf("detach coach from team: %w", err)
				}
			}
		case !errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("get team: %w", err)
		}
	}

	if coach.CollegeID != nil {
		college, err := p.store.Colleges.GetByID(ctx, *coach.CollegeID)
		switch {
		case err == nil:
			if college.CoachID != nil && *college.CoachID == coach.ID {
				college.CoachID = nil
				if err := p.store.Colleges.Save(ctx, college); err != nil {
					return fmt.Errorf("detach coach from college: %w", err)
				}
			}
		case !errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("get college: %w", err)
		}
	}

	if err := ignoreNotFound(p.store.Coaches.Delete(ctx, coach.ID)); err != nil {
		return fmt.Errorf("delete coach: %w", err)
	}
	return nil
}

func (p *Purger) purgeAthlete(ctx context.Context, athleteID string, report *PurgeReport) error {
	athlete, err := p.store.Athletes.GetByID(ctx, athleteID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get athlete: %w", err)
	}

	if athlete.TeamID != nil {
		team, err := p.store.Teams.GetByID(ctx, *athlete.TeamID)
		switch {
		case err == nil:
			team.AthleteIDs = model.RemoveString(team.AthleteIDs, athlete.ID)
			if err := p.store.Teams.Save(ctx, team); err != nil {
				return fmt.Errorf("rewrite team athletes: %w", err)
			}
		case !errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("get team: %w", err)
		}
	}

	if athlete.CollegeID != nil {
		college, err := p.store.Colleges.GetByID(ctx, *athlete.CollegeID)
		switch {
		case err == nil:
			college.AthleteIDs = model.RemoveString(college.AthleteIDs, athlete.ID)
			if err := p.store.Colleges.Save(ctx, college); err != nil {
				return fmt.Errorf("rewrite college athletes: %w", err)
			}
		case !errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("get college: %w", err)
		}
	}

	dives, err := p.store.Dives.ListByAthlete(ctx, athlete.ID)
	if err != nil {
		return fmt.Errorf("list dives: %w", err)
	}
	for _, dive := range dives {
		scores, err := p.store.JudgeScores.ListByDive(ctx, dive.ID)
		if err != nil {
			return fmt.Errorf("list judge scores: %w", err)
		}
		for _, score := range scores {
			if err := ignoreNotFound(p.store.JudgeScores.Delete(ctx, score.ID)); err != nil {
				return fmt.Errorf("delete judge score: %w", err)
			}
			report.JudgeScores++
		}

		event, err := p.store.Events.GetByID(ctx, dive.EventID)
		switch {
		case err == nil:
			event.DiveIDs = model.RemoveString(event.DiveIDs, dive.ID)
			if err := p.store.Events.Save(ctx, event); err != nil {
				return fmt.Errorf("rewrite event dives: %w", err)
			}
		case !errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("get event: %w", err)
		}

		if err := ignoreNotFound(p.store.Dives.Delete(ctx, dive.ID)); err != nil {
			return fmt.Errorf("delete dive: %w", err)
		}
		report.Dives++
	}

	if err := ignoreNotFound(p.store.Athletes.Delete(ctx, athlete.ID)); err != nil {
		return fmt.Errorf("delete athlete: %w", err)
	}
	return nil
}

func (p *Purger) purgePosts(ctx context.Context, user *model.User, report *PurgeReport) error {
	posts, err := p.store.Posts.ListByAuthor(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	for _, post := range posts {
		counts, err := p.cascade.deletePost(ctx, post, user.Email)
		report.Media += counts.Media
		report.SavedPosts += counts.SavedPosts
		if err != nil {
			return err
		}
		report.Posts++
	}

	// bookmarks the user left on other authors' posts
	saved, err := p.store.SavedPosts.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list saved posts: %w", err)
	}
	for _, sp := range saved {
		if err := ignoreNotFound(p.store.SavedPosts.Delete(ctx, sp.ID)); err != nil {
			return fmt.Errorf("delete saved post: %w", err)
		}
		report.SavedPosts++
	}
	return nil
}

// purgeMessages deletes every conversation the user took part in, for both
// participants.
func (p *Purger) purgeMessages(ctx context.Context, user *model.User, report *PurgeReport) error {
	links, err := p.store.MessageLinks.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list message links: %w", err)
	}

	var messageIDs []string
	for _, l := range links {
		if !slices.Contains(messageIDs, l.MessageID) {
			messageIDs = append(messageIDs, l.MessageID)
		}
	}

	for _, messageID := range messageIDs {
		all, err := p.store.MessageLinks.ListByMessage(ctx, messageID)
		if err != nil {
			return fmt.Errorf("list links of message %s: %w", messageID, err)
		}
		for _, l := range all {
			if err := ignoreNotFound(p.store.MessageLinks.Delete(ctx, l.ID)); err != nil {
				return fmt.Errorf("delete message link: %w", err)
			}
			report.MessageLinks++
		}
	}
	for _, messageID := range messageIDs {
		if err := ignoreNotFound(p.store.Messages.Delete(ctx, messageID)); err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
		report.Messages++
	}
	return nil
}

// purgeFavoritesOf removes the user from every favorites list, renumbering
// the order of coaches that followed them as an athlete.
func (p *Purger) purgeFavoritesOf(ctx context.Context, user *model.User, report *PurgeReport) error {
	followers, err := p.store.Users.FindByFavorite(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("find followers: %w", err)
	}
	for i := range followers {
		if err := p.graph.dropFavorite(ctx, &followers[i], user.ID, user.IsAthlete()); err != nil {
			return fmt.Errorf("drop favorite of %s: %w", followers[i].ID, err)
		}
		report.FavoritesOf++
	}
	return nil
}

func (p *Purger) purgeProfilePicture(ctx context.Context, user *model.User, _ *PurgeReport) error {
	if p.blobs == nil {
		return nil
	}
	err := p.blobs.Remove(ctx, storage.ProfilePictureKey(user.ID))
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("remove profile picture: %w", err)
	}
	return nil
}

func (p *Purger) purgeUserRecord(ctx context.Context, user *model.User, _ *PurgeReport) error {
	if err := ignoreNotFound(p.store.Users.Delete(ctx, user.ID)); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
