package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"blognest/api/internal/repository"
)

// Scheduler runs the nightly sweep that clears refresh tokens past their
// expiry, so revoked-by-time sessions do not linger in the credential store.
type Scheduler struct {
	cron  *cron.Cron
	users repository.UserStore
	log   zerolog.Logger
}

func NewScheduler(users repository.UserStore, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		users: users,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.sweepExpiredRefreshTokens); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs, up to five seconds.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepExpiredRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleared, err := s.users.ClearExpiredRefreshTokens(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("refresh token sweep failed")
		return
	}
	if cleared > 0 {
		s.log.Info().Int64("cleared", cleared).Msg("expired refresh tokens cleared")
	}
}
