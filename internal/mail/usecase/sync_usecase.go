package usecase

import (
	"context"
	"fmt"
	"time"

	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/pkg/aurinko"
	"mailflow-backend/pkg/logger"
	"mailflow-backend/pkg/metrics"

	"go.uber.org/zap"
)

const defaultReadinessPollInterval = 2 * time.Second

type syncUsecase struct {
	provider          ProviderService
	accountRepo       repository.AccountRepository
	normalizer        *Normalizer
	locks             *accountLocks
	daysWithin        int
	bodyType          string
	readinessAttempts int
	pollInterval      time.Duration
}

func NewSyncUsecase(provider ProviderService, accountRepo repository.AccountRepository, normalizer *Normalizer, daysWithin int, bodyType string, readinessAttempts int) SyncUsecase {
	if readinessAttempts <= 0 {
		readinessAttempts = 60
	}
	return &syncUsecase{
		provider:          provider,
		accountRepo:       accountRepo,
		normalizer:        normalizer,
		locks:             newAccountLocks(),
		daysWithin:        daysWithin,
		bodyType:          bodyType,
		readinessAttempts: readinessAttempts,
		pollInterval:      defaultReadinessPollInterval,
	}
}

// PerformInitialSync drains the full provider backlog for a freshly linked
// account. The cursor is persisted before normalization: a crash mid-batch
// loses index writes but never replays the whole backlog, and normalization
// is idempotent anyway.
func (u *syncUsecase) PerformInitialSync(ctx context.Context, accountID string) error {
	lock := u.locks.get(accountID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	err := u.performInitialSync(ctx, accountID)
	if err != nil {
		metrics.SyncCycleErrors.WithLabelValues("initial", errorReason(err)).Inc()
		return err
	}
	metrics.ObserveSyncCycle("initial", time.Since(started))
	return nil
}

func (u *syncUsecase) performInitialSync(ctx context.Context, accountID string) error {
	account, err := u.accountRepo.FindByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	status, err := u.provider.StartSync(ctx, account.AccessToken, u.daysWithin, u.bodyType)
	if err != nil {
		return fmt.Errorf("start sync: %w", err)
	}

	attempts := 1
	for !status.Ready {
		if attempts >= u.readinessAttempts {
			return ErrReadinessTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(u.pollInterval):
		}
		status, err = u.provider.StartSync(ctx, account.AccessToken, u.daysWithin, u.bodyType)
		if err != nil {
			return fmt.Errorf("start sync: %w", err)
		}
		attempts++
	}

	records, deltaToken, err := u.drainPages(ctx, account.AccessToken, status.SyncUpdatedToken)
	if err != nil {
		return err
	}

	if deltaToken != "" {
		if err := u.accountRepo.UpdateDeltaToken(accountID, deltaToken); err != nil {
			return fmt.Errorf("store delta cursor: %w", err)
		}
	}

	logger.L().Info("initial sync drained",
		zap.String("account_id", accountID),
		zap.Int("messages", len(records)))

	return u.normalizer.SyncToDatabase(ctx, accountID, records)
}

// SyncEmails runs one incremental cycle from the stored cursor. Unlike the
// initial sync, the cursor only advances after the batch normalized, so a
// failed cycle is retried from the same position.
func (u *syncUsecase) SyncEmails(ctx context.Context, accountID string) error {
	lock := u.locks.get(accountID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	err := u.syncEmails(ctx, accountID)
	if err != nil {
		metrics.SyncCycleErrors.WithLabelValues("incremental", errorReason(err)).Inc()
		return err
	}
	metrics.ObserveSyncCycle("incremental", time.Since(started))
	return nil
}

func (u *syncUsecase) syncEmails(ctx context.Context, accountID string) error {
	account, err := u.accountRepo.FindByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.NextDeltaToken == nil || *account.NextDeltaToken == "" {
		return ErrAccountNotReady
	}

	records, deltaToken, err := u.drainPages(ctx, account.AccessToken, *account.NextDeltaToken)
	if err != nil {
		return err
	}

	if err := u.normalizer.SyncToDatabase(ctx, accountID, records); err != nil {
		return err
	}

	if deltaToken != "" && deltaToken != *account.NextDeltaToken {
		if err := u.accountRepo.UpdateDeltaToken(accountID, deltaToken); err != nil {
			return fmt.Errorf("advance delta cursor: %w", err)
		}
	}

	logger.L().Info("incremental sync completed",
		zap.String("account_id", accountID),
		zap.Int("messages", len(records)))
	return nil
}

// drainPages follows nextPageToken until the provider reports no more pages,
// accumulating the records and tracking the last non-empty delta token seen.
// An empty nextDeltaToken never clobbers an earlier one.
func (u *syncUsecase) drainPages(ctx context.Context, token, deltaToken string) ([]aurinko.EmailMessage, string, error) {
	var records []aurinko.EmailMessage
	lastDelta := ""

	page, err := u.provider.GetUpdatedEmails(ctx, token, deltaToken, "")
	if err != nil {
		return nil, "", fmt.Errorf("fetch delta page: %w", err)
	}
	records = append(records, page.Records...)
	if page.NextDeltaToken != "" {
		lastDelta = page.NextDeltaToken
	}

	for page.NextPageToken != "" {
		page, err = u.provider.GetUpdatedEmails(ctx, token, "", page.NextPageToken)
		if err != nil {
			return nil, "", fmt.Errorf("fetch delta page: %w", err)
		}
		records = append(records, page.Records...)
		if page.NextDeltaToken != "" {
			lastDelta = page.NextDeltaToken
		}
	}

	return records, lastDelta, nil
}

func errorReason(err error) string {
	switch {
	case err == ErrReadinessTimeout:
		return "readiness_timeout"
	case err == ErrAccountNotReady:
		return "not_ready"
	case err == ErrAccountNotFound:
		return "account_not_found"
	default:
		return "provider"
	}
}
