package usecase

import (
	"context"
	"fmt"
	"strconv"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/pkg/aurinko"
)

type accountUsecase struct {
	client      *aurinko.Client
	accountRepo repository.AccountRepository
	returnURL   string
}

func NewAccountUsecase(client *aurinko.Client, accountRepo repository.AccountRepository, returnURL string) AccountUsecase {
	return &accountUsecase{
		client:      client,
		accountRepo: accountRepo,
		returnURL:   returnURL,
	}
}

func (u *accountUsecase) AuthorizeURL(serviceType string) string {
	if serviceType == "" {
		serviceType = "Google"
	}
	return u.client.AuthorizeURL(serviceType, u.returnURL)
}

// HandleCallback completes the OAuth flow: it trades the authorization code
// for a token, fetches the mailbox identity and upserts the account. The
// second return reports whether this account still needs its initial sync.
func (u *accountUsecase) HandleCallback(ctx context.Context, userID, code string) (*maildomain.Account, bool, error) {
	token, err := u.client.ExchangeCodeForToken(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("exchange authorization code: %w", err)
	}

	details, err := u.client.GetAccountDetails(ctx, token.AccessToken)
	if err != nil {
		return nil, false, fmt.Errorf("fetch account details: %w", err)
	}

	accountID := strconv.FormatInt(token.AccountID, 10)
	existing, err := u.accountRepo.FindByID(accountID)
	if err != nil {
		return nil, false, err
	}

	account := &maildomain.Account{
		ID:           accountID,
		UserID:       userID,
		EmailAddress: details.Email,
		Name:         details.Name,
		AccessToken:  token.AccessToken,
	}
	if err := u.accountRepo.Upsert(account); err != nil {
		return nil, false, err
	}

	needsInitialSync := existing == nil || existing.NextDeltaToken == nil || *existing.NextDeltaToken == ""
	return account, needsInitialSync, nil
}

func (u *accountUsecase) ListAccounts(userID string) ([]*maildomain.Account, error) {
	return u.accountRepo.FindByUser(userID)
}
