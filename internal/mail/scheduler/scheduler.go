package scheduler

import (
	"context"
	"errors"
	"time"

	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/internal/mail/usecase"
	"mailflow-backend/pkg/logger"

	"go.uber.org/zap"
)

// SyncScheduler runs an incremental sync cycle for every linked account on a
// fixed interval. Per-account serialization lives in the sync usecase, so an
// overlapping manual sync just waits instead of doubling up.
type SyncScheduler struct {
	accountRepo repository.AccountRepository
	syncUsecase usecase.SyncUsecase
	interval    time.Duration
	stopChan    chan struct{}
}

func NewSyncScheduler(accountRepo repository.AccountRepository, syncUsecase usecase.SyncUsecase, interval time.Duration) *SyncScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SyncScheduler{
		accountRepo: accountRepo,
		syncUsecase: syncUsecase,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *SyncScheduler) Start() {
	logger.L().Info("starting sync scheduler", zap.Duration("interval", s.interval))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.syncAllAccounts()
			case <-s.stopChan:
				logger.L().Info("sync scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	close(s.stopChan)
}

func (s *SyncScheduler) syncAllAccounts() {
	accounts, err := s.accountRepo.FindAll()
	if err != nil {
		logger.L().Error("scheduler could not list accounts", zap.Error(err))
		return
	}

	for _, account := range accounts {
		err := s.syncUsecase.SyncEmails(context.Background(), account.ID)
		if err != nil {
			if errors.Is(err, usecase.ErrAccountNotReady) {
				// Initial sync has not finished for this account yet.
				continue
			}
			logger.L().Error("scheduled sync failed",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}
}
