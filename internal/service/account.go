package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/identity"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/state"
)

// ErrPurgeIncomplete wraps a purge failure after the account flow has still
// cleared local state and removed the auth identity. Orphaned rows remain.
var ErrPurgeIncomplete = errors.New("account purge incomplete")

// AccountService runs the delete-account flow: purge the store, wait for
// propagation, clear local state, then delete the auth identity.
type AccountService struct {
	purger      *Purger
	state       state.LocalState
	auth        identity.Authenticator
	unconfirmed identity.UnconfirmedUserDeleter
	delay       time.Duration
	log         *logrus.Entry

	sleep func(ctx context.Context, d time.Duration) error
}

func NewAccountService(
	purger *Purger,
	localState state.LocalState,
	auth identity.Authenticator,
	unconfirmed identity.UnconfirmedUserDeleter,
	propagationDelay time.Duration,
	log *logrus.Entry,
) *AccountService {
	return &AccountService{
		purger:      purger,
		state:       localState,
		auth:        auth,
		unconfirmed: unconfirmed,
		delay:       propagationDelay,
		log:         log,
		sleep:       sleepContext,
	}
}

// DeleteAccount always reaches the signed-out state. A purge failure other
// than a missing user is returned wrapped in ErrPurgeIncomplete; an auth
// deletion failure is joined to it.
func (s *AccountService) DeleteAccount(ctx context.Context, session identity.Session) (*PurgeReport, error) {
	log := s.log.WithField("user", session.UserID)

	report, purgeErr := s.purger.Purge(ctx, session.UserID)
	switch {
	case purgeErr == nil:
	case errors.Is(purgeErr, model.ErrNothingToPurge):
		purgeErr = nil
	default:
		log.WithError(purgeErr).Error("Purge failed, orphaned data left for manual cleanup")
		purgeErr = fmt.Errorf("%w: %w", ErrPurgeIncomplete, purgeErr)
	}

	// the wait and the cleanup run to completion even if the caller goes away
	cleanupCtx := context.WithoutCancel(ctx)

	if err := s.sleep(cleanupCtx, s.delay); err != nil {
		log.WithError(err).Warn("Propagation wait cut short")
	}

	if err := s.state.Clear(cleanupCtx, session.UserID, state.PreservedKeys...); err != nil {
		log.WithError(err).Warn("Clearing local state failed")
	}

	authErr := s.auth.DeleteCurrentUser(cleanupCtx, session)
	if errors.Is(authErr, identity.ErrNoUserSignedIn) {
		log.Info("No confirmed auth user, deleting unconfirmed identity")
		if err := s.unconfirmed.DeleteUnconfirmedUser(cleanupCtx, session.UserID); err != nil {
			log.WithError(err).Error("Deleting unconfirmed user failed")
		}
		authErr = nil
	}
	if authErr != nil {
		log.WithError(authErr).Error("Deleting auth identity failed")
		authErr = fmt.Errorf("delete auth identity: %w", authErr)
	}

	if err := errors.Join(purgeErr, authErr); err != nil {
		return report, err
	}
	log.Info("DeleteAccount OK")
	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
