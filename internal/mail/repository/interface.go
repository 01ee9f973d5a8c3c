package repository

import (
	maildomain "mailflow-backend/internal/mail/domain"
)

// AccountRepository persists linked mailbox accounts, their sync cursor and
// their serialized search index blob.
type AccountRepository interface {
	Upsert(account *maildomain.Account) error
	FindByID(id string) (*maildomain.Account, error)
	FindByIDAndUser(id, userID string) (*maildomain.Account, error)
	FindByUser(userID string) ([]*maildomain.Account, error)
	FindAll() ([]*maildomain.Account, error)
	UpdateDeltaToken(accountID, token string) error
	GetSearchIndex(accountID string) ([]byte, error)
	SaveSearchIndex(accountID string, blob []byte) error
}

// ThreadRepository persists conversation threads. Upserts to the same thread
// id must be safe under concurrent writers.
type ThreadRepository interface {
	// Upsert creates the thread with folder flags derived from labelType, or
	// updates subject/lastMessageDate and merges the participant set into the
	// existing row.
	Upsert(thread *maildomain.Thread, labelType string) error
	UpdateFolderStatus(threadID string, inbox, draft, sent bool) error
	SetDone(accountID, threadID string, done bool) error
	FindByAccount(accountID, tab string, done bool, limit int) ([]*maildomain.Thread, error)
	CountByAccount(accountID, tab string) (int64, error)
	FindWithEmails(accountID, threadID string) (*maildomain.Thread, error)
}

// EmailRepository persists emails, their deduplicated addresses and their
// attachments.
type EmailRepository interface {
	// UpsertAddress upserts by (accountID, address) and returns the stored
	// row, whose id is stable across repeated upserts.
	UpsertAddress(addr *maildomain.EmailAddress) (*maildomain.EmailAddress, error)
	UpsertEmail(email *maildomain.Email) error
	UpsertAttachment(att *maildomain.EmailAttachment) error
	FindLabelsByThread(threadID string) ([]string, error)
	FindByID(id string) (*maildomain.Email, error)
	ListAddresses(accountID string) ([]*maildomain.EmailAddress, error)
}
