package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const purgeTimeout = 30 * time.Second

// TokenPurger removes reset tokens that can no longer be redeemed.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// TokenPurgeScheduler runs the reset token sweep on a cron spec.
type TokenPurgeScheduler struct {
	cron   *cron.Cron
	purger TokenPurger
	spec   string
}

func NewTokenPurgeScheduler(purger TokenPurger, spec string) *TokenPurgeScheduler {
	return &TokenPurgeScheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		purger: purger,
		spec:   spec,
	}
}

// Start registers the job and starts the cron loop. An invalid spec is
// returned as an error and nothing is started.
func (s *TokenPurgeScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		logger.Error("Failed to add cron job for reset token purge", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Reset token purge scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *TokenPurgeScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		logger.Error("Scheduled reset token purge failed", err, nil)
		return
	}
	logger.Debug("Scheduled reset token purge finished", map[string]interface{}{
		"cleared": n,
	})
}

// Stop waits for a running purge to finish.
func (s *TokenPurgeScheduler) Stop() {
	logger.Info("Stopping reset token purge scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Reset token purge scheduler stopped", nil)
}
