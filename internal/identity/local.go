package identity

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Local is used when no external auth service is configured. Deletions are
// logged and succeed.
type Local struct {
	log *logrus.Entry
}

func NewLocal(log *logrus.Entry) *Local {
	return &Local{log: log}
}

func (l *Local) DeleteCurrentUser(_ context.Context, s Session) error {
	if s.UserID == "" {
		return ErrNoUserSignedIn
	}
	l.log.WithField("user", s.UserID).Info("Local auth identity removed")
	return nil
}

func (l *Local) DeleteUnconfirmedUser(_ context.Context, userID string) error {
	l.log.WithField("user", userID).Info("Local unconfirmed identity removed")
	return nil
}
