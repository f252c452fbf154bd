package auth

import (
	"context"
	"time"

	"github.com/neuro21/neuro21/internal/session"
)

// Demo is the placeholder authenticator of the demo deployment: it waits a
// fixed delay and accepts any credentials. It performs no verification and
// must not be used where accounts matter; identity.Service does that.
type Demo struct {
	LoginDelay    time.Duration
	RegisterDelay time.Duration
}

// Login accepts any email/password pair.
func (d Demo) Login(ctx context.Context, email, _ string) (session.Account, error) {
	if err := wait(ctx, d.LoginDelay); err != nil {
		return session.Account{}, err
	}
	return session.Account{Email: email}, nil
}

// Register accepts any input; the session store builds the record from it.
func (d Demo) Register(ctx context.Context, _ session.RegisterInput) (session.Account, error) {
	if err := wait(ctx, d.RegisterDelay); err != nil {
		return session.Account{}, err
	}
	return session.Account{}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
