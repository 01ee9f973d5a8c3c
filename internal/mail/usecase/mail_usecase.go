package usecase

import (
	"context"
	"fmt"
	"strings"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/dto"
	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/pkg/aurinko"
	"mailflow-backend/pkg/searchindex"
)

const threadPageSize = 15

type mailUsecase struct {
	accountRepo repository.AccountRepository
	threadRepo  repository.ThreadRepository
	emailRepo   repository.EmailRepository
	provider    ProviderService
	indexWriter *IndexWriter
}

func NewMailUsecase(accountRepo repository.AccountRepository, threadRepo repository.ThreadRepository, emailRepo repository.EmailRepository, provider ProviderService, indexWriter *IndexWriter) MailUsecase {
	return &mailUsecase{
		accountRepo: accountRepo,
		threadRepo:  threadRepo,
		emailRepo:   emailRepo,
		provider:    provider,
		indexWriter: indexWriter,
	}
}

func (u *mailUsecase) ownedAccount(accountID, userID string) (*maildomain.Account, error) {
	account, err := u.accountRepo.FindByIDAndUser(accountID, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (u *mailUsecase) GetThreads(accountID, userID, tab string, done bool) ([]*maildomain.Thread, error) {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return nil, err
	}
	return u.threadRepo.FindByAccount(accountID, tab, done, threadPageSize)
}

func (u *mailUsecase) CountThreads(accountID, userID, tab string) (int64, error) {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return 0, err
	}
	return u.threadRepo.CountByAccount(accountID, tab)
}

func (u *mailUsecase) GetThread(accountID, userID, threadID string) (*maildomain.Thread, error) {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return nil, err
	}
	thread, err := u.threadRepo.FindWithEmails(accountID, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %s not found", threadID)
	}
	return thread, nil
}

func (u *mailUsecase) SetThreadDone(accountID, userID, threadID string, done bool) error {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return err
	}
	return u.threadRepo.SetDone(accountID, threadID, done)
}

func (u *mailUsecase) GetSuggestions(accountID, userID string) ([]*maildomain.EmailAddress, error) {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return nil, err
	}
	return u.emailRepo.ListAddresses(accountID)
}

// GetReplyDetails pre-fills the reply composer from the latest message in
// the thread that was not sent by the account owner, falling back to the
// latest message overall. Ownership is decided by address row identity, not
// string comparison, since addresses are deduplicated per account.
func (u *mailUsecase) GetReplyDetails(accountID, userID, threadID, replyType string) (*dto.ReplyDetails, error) {
	account, err := u.ownedAccount(accountID, userID)
	if err != nil {
		return nil, err
	}

	thread, err := u.threadRepo.FindWithEmails(accountID, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil || len(thread.Emails) == 0 {
		return nil, fmt.Errorf("thread %s has no messages", threadID)
	}

	ownID := ""
	for _, email := range thread.Emails {
		if strings.EqualFold(email.From.Address, account.EmailAddress) {
			ownID = email.From.ID
			break
		}
	}

	// Emails are ordered newest first.
	source := &thread.Emails[0]
	for i := range thread.Emails {
		if thread.Emails[i].FromID != ownID {
			source = &thread.Emails[i]
			break
		}
	}

	details := &dto.ReplyDetails{
		EmailID:    source.ID,
		Subject:    replySubject(source.Subject),
		From:       dto.Address{ID: ownID, Name: account.Name, Address: account.EmailAddress},
		To:         []dto.Address{toAddressDTO(source.From)},
		InReplyTo:  source.InternetMessageID,
		References: joinReferences(source.References, source.InternetMessageID),
	}

	if replyType == "replyAll" {
		for _, addr := range source.To {
			if addr.ID == ownID || addr.ID == source.FromID {
				continue
			}
			details.To = append(details.To, toAddressDTO(addr))
		}
		for _, addr := range source.Cc {
			if addr.ID == ownID {
				continue
			}
			details.Cc = append(details.Cc, toAddressDTO(addr))
		}
	}

	return details, nil
}

func (u *mailUsecase) SendEmail(ctx context.Context, accountID, userID string, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error) {
	account, err := u.ownedAccount(accountID, userID)
	if err != nil {
		return nil, err
	}

	providerReq := &aurinko.SendEmailRequest{
		From:       aurinko.EmailAddress{Name: req.From.Name, Address: req.From.Address},
		Subject:    req.Subject,
		Body:       req.Body,
		InReplyTo:  req.InReplyTo,
		References: req.References,
		ThreadID:   req.ThreadID,
		To:         toProviderAddresses(req.To),
		Cc:         toProviderAddresses(req.Cc),
		Bcc:        toProviderAddresses(req.Bcc),
		ReplyTo:    toProviderAddresses(req.ReplyTo),
	}

	resp, err := u.provider.SendEmail(ctx, account.AccessToken, providerReq)
	if err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	return &dto.SendEmailResponse{ID: resp.ID, ThreadID: resp.ThreadID}, nil
}

func (u *mailUsecase) Search(accountID, userID, term string) ([]searchindex.Hit, error) {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return nil, err
	}
	return u.indexWriter.Search(accountID, term)
}

func (u *mailUsecase) VectorSearch(ctx context.Context, accountID, userID, term string) ([]searchindex.Hit, error) {
	if _, err := u.ownedAccount(accountID, userID); err != nil {
		return nil, err
	}
	return u.indexWriter.VectorSearch(ctx, accountID, term)
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

func joinReferences(references, internetMessageID string) string {
	if internetMessageID == "" {
		return references
	}
	if references == "" {
		return internetMessageID
	}
	return references + " " + internetMessageID
}

func toAddressDTO(addr maildomain.EmailAddress) dto.Address {
	return dto.Address{ID: addr.ID, Name: addr.Name, Address: addr.Address}
}

func toProviderAddresses(addrs []dto.Address) []aurinko.EmailAddress {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]aurinko.EmailAddress, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, aurinko.EmailAddress{Name: a.Name, Address: a.Address})
	}
	return out
}
