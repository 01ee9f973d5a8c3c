package usecase

import (
	"context"
	"errors"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/dto"
	"mailflow-backend/pkg/aurinko"
	"mailflow-backend/pkg/searchindex"
)

var (
	// ErrAccountNotFound means the account id is unknown or not owned by
	// the requesting user.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNotReady means incremental sync was requested before the
	// initial sync stored a delta cursor.
	ErrAccountNotReady = errors.New("account has no sync cursor yet, initial sync has not completed")
	// ErrReadinessTimeout means the provider never reported the mailbox
	// sync as ready within the configured attempt budget.
	ErrReadinessTimeout = errors.New("provider sync readiness timed out")
)

// ProviderService is the slice of the mail provider API the sync pipeline
// and the compose path consume.
type ProviderService interface {
	StartSync(ctx context.Context, token string, daysWithin int, bodyType string) (*aurinko.SyncResponse, error)
	GetUpdatedEmails(ctx context.Context, token, deltaToken, pageToken string) (*aurinko.SyncUpdatedResponse, error)
	SendEmail(ctx context.Context, token string, req *aurinko.SendEmailRequest) (*aurinko.SendEmailResponse, error)
}

// SyncUsecase drives sync cycles against the provider. Cycles for the same
// account are serialized; distinct accounts run independently.
type SyncUsecase interface {
	// PerformInitialSync bootstraps a freshly linked account: it starts a
	// provider-side sync, waits for readiness, drains the full backlog and
	// stores the delta cursor before normalizing.
	PerformInitialSync(ctx context.Context, accountID string) error
	// SyncEmails runs one incremental cycle from the stored cursor. The
	// cursor only advances after normalization succeeds.
	SyncEmails(ctx context.Context, accountID string) error
}

// AccountUsecase handles mailbox linking.
type AccountUsecase interface {
	AuthorizeURL(serviceType string) string
	// HandleCallback exchanges the authorization code, stores the linked
	// account and reports whether it needs an initial sync.
	HandleCallback(ctx context.Context, userID, code string) (*maildomain.Account, bool, error)
	ListAccounts(userID string) ([]*maildomain.Account, error)
}

// MailUsecase serves thread queries, search and composition for one linked
// account. Every method checks account ownership.
type MailUsecase interface {
	GetThreads(accountID, userID, tab string, done bool) ([]*maildomain.Thread, error)
	CountThreads(accountID, userID, tab string) (int64, error)
	GetThread(accountID, userID, threadID string) (*maildomain.Thread, error)
	SetThreadDone(accountID, userID, threadID string, done bool) error
	GetSuggestions(accountID, userID string) ([]*maildomain.EmailAddress, error)
	GetReplyDetails(accountID, userID, threadID, replyType string) (*dto.ReplyDetails, error)
	SendEmail(ctx context.Context, accountID, userID string, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error)
	Search(accountID, userID, term string) ([]searchindex.Hit, error)
	VectorSearch(ctx context.Context, accountID, userID, term string) ([]searchindex.Hit, error)
}
