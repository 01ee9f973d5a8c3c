package usecase

import (
	"context"
	"testing"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/internal/testutil"
	"mailflow-backend/pkg/aurinko"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testAccountID = "acct-1"

type normalizerFixture struct {
	db         *gorm.DB
	accounts   repository.AccountRepository
	threads    repository.ThreadRepository
	emails     repository.EmailRepository
	normalizer *Normalizer
	writer     *IndexWriter
}

func newNormalizerFixture(t *testing.T) *normalizerFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	accounts := repository.NewAccountRepository(db)
	threads := repository.NewThreadRepository(db)
	emails := repository.NewEmailRepository(db)

	require.NoError(t, accounts.Upsert(&maildomain.Account{
		ID:           testAccountID,
		UserID:       "user-1",
		EmailAddress: "owner@example.com",
		Name:         "Owner",
		AccessToken:  "token-1",
	}))

	writer := NewIndexWriter(accounts, nil)
	return &normalizerFixture{
		db:         db,
		accounts:   accounts,
		threads:    threads,
		emails:     emails,
		writer:     writer,
		normalizer: NewNormalizer(emails, threads, writer, 1),
	}
}

func rawMessage(id, threadID string, labels []string, from string, to ...string) aurinko.EmailMessage {
	msg := aurinko.EmailMessage{
		ID:        id,
		ThreadID:  threadID,
		Subject:   "Subject of " + id,
		Body:      "<p>Body of " + id + "</p>",
		SentAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		SysLabels: labels,
		From:      aurinko.EmailAddress{Name: "Sender", Address: from},
	}
	for _, addr := range to {
		msg.To = append(msg.To, aurinko.EmailAddress{Address: addr})
	}
	return msg
}

func TestSyncToDatabaseNormalizesBatch(t *testing.T) {
	f := newNormalizerFixture(t)

	batch := []aurinko.EmailMessage{
		rawMessage("m1", "t1", []string{"inbox"}, "alice@example.com", "owner@example.com"),
		rawMessage("m2", "t1", []string{"sent"}, "owner@example.com", "alice@example.com"),
	}
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, batch))

	thread, err := f.threads.FindWithEmails(testAccountID, "t1")
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Len(t, thread.Emails, 2)
	assert.Len(t, thread.ParticipantIDs, 2, "alice and owner deduplicated across messages")

	email, err := f.emails.FindByID("m1")
	require.NoError(t, err)
	require.NotNil(t, email)
	assert.Equal(t, maildomain.LabelInbox, email.EmailLabel)
	assert.Equal(t, "alice@example.com", email.From.Address)

	// Both documents landed in the search index.
	idx, err := f.writer.Open(testAccountID)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestSyncToDatabaseIsIdempotent(t *testing.T) {
	f := newNormalizerFixture(t)

	batch := []aurinko.EmailMessage{
		rawMessage("m1", "t1", []string{"inbox"}, "alice@example.com", "owner@example.com"),
	}
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, batch))
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, batch))

	var emailCount, addressCount, threadCount int64
	require.NoError(t, f.db.Model(&maildomain.Email{}).Count(&emailCount).Error)
	require.NoError(t, f.db.Model(&maildomain.EmailAddress{}).Count(&addressCount).Error)
	require.NoError(t, f.db.Model(&maildomain.Thread{}).Count(&threadCount).Error)

	assert.Equal(t, int64(1), emailCount)
	assert.Equal(t, int64(2), addressCount)
	assert.Equal(t, int64(1), threadCount)

	idx, err := f.writer.Open(testAccountID)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len(), "replayed message is not indexed twice")
}

func TestAddressRowsAreStableAcrossMessages(t *testing.T) {
	f := newNormalizerFixture(t)

	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m1", "t1", []string{"inbox"}, "alice@example.com"),
	}))
	first, err := f.emails.FindByID("m1")
	require.NoError(t, err)

	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m2", "t2", []string{"inbox"}, "alice@example.com"),
	}))
	second, err := f.emails.FindByID("m2")
	require.NoError(t, err)

	assert.Equal(t, first.FromID, second.FromID, "same address resolves to the same row")
}

func TestThreadFolderRescan(t *testing.T) {
	f := newNormalizerFixture(t)

	// A sent-only thread is a sent thread.
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m1", "t1", []string{"sent"}, "owner@example.com", "alice@example.com"),
	}))
	thread, err := f.threads.FindWithEmails(testAccountID, "t1")
	require.NoError(t, err)
	assert.True(t, thread.SentStatus)
	assert.False(t, thread.InboxStatus)

	// One inbox member flips the whole thread to inbox.
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m2", "t1", []string{"inbox"}, "alice@example.com", "owner@example.com"),
	}))
	thread, err = f.threads.FindWithEmails(testAccountID, "t1")
	require.NoError(t, err)
	assert.True(t, thread.InboxStatus)
	assert.False(t, thread.SentStatus)
	assert.False(t, thread.DraftStatus)

	// Draft outranks sent but not inbox.
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m3", "t2", []string{"sent"}, "owner@example.com"),
		rawMessage("m4", "t2", []string{"draft"}, "owner@example.com"),
	}))
	thread, err = f.threads.FindWithEmails(testAccountID, "t2")
	require.NoError(t, err)
	assert.True(t, thread.DraftStatus)
	assert.False(t, thread.SentStatus)
}

func TestMissingFromAddressSkipsOnlyThatMessage(t *testing.T) {
	f := newNormalizerFixture(t)

	batch := []aurinko.EmailMessage{
		rawMessage("m1", "t1", []string{"inbox"}, "", "owner@example.com"),
		rawMessage("m2", "t2", []string{"inbox"}, "alice@example.com", "owner@example.com"),
	}
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, batch),
		"a bad message never fails the batch")

	missing, err := f.emails.FindByID("m1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	kept, err := f.emails.FindByID("m2")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestThreadParticipantUnion(t *testing.T) {
	f := newNormalizerFixture(t)

	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m1", "t1", []string{"inbox"}, "alice@example.com", "owner@example.com"),
	}))
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{
		rawMessage("m2", "t1", []string{"inbox"}, "bob@example.com", "owner@example.com"),
	}))

	thread, err := f.threads.FindWithEmails(testAccountID, "t1")
	require.NoError(t, err)
	assert.Len(t, thread.ParticipantIDs, 3, "later messages extend the set, never replace it")
}

func TestThreadParticipantsIncludeBccRecipients(t *testing.T) {
	f := newNormalizerFixture(t)

	msg := rawMessage("m1", "t1", []string{"sent"}, "owner@example.com")
	msg.Bcc = []aurinko.EmailAddress{{Address: "hidden@example.com"}}
	msg.ReplyTo = []aurinko.EmailAddress{{Address: "noreply@example.com"}}
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{msg}))

	var bccRow, replyToRow maildomain.EmailAddress
	require.NoError(t, f.db.Where("address = ?", "hidden@example.com").First(&bccRow).Error)
	require.NoError(t, f.db.Where("address = ?", "noreply@example.com").First(&replyToRow).Error)

	thread, err := f.threads.FindWithEmails(testAccountID, "t1")
	require.NoError(t, err)
	assert.True(t, thread.ParticipantIDs.Contains(bccRow.ID), "bcc recipients are participants")
	assert.False(t, thread.ParticipantIDs.Contains(replyToRow.ID), "replyTo addresses are not")
}

func TestClassifyLabel(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{[]string{"inbox", "unread"}, maildomain.LabelInbox},
		{[]string{"important"}, maildomain.LabelInbox},
		{[]string{"sent"}, maildomain.LabelSent},
		{[]string{"draft"}, maildomain.LabelDraft},
		{[]string{"inbox", "sent", "draft"}, maildomain.LabelInbox},
		{[]string{"sent", "draft"}, maildomain.LabelSent},
		{nil, maildomain.LabelInbox},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, classifyLabel(tc.labels), "labels %v", tc.labels)
	}
}

func TestAttachmentsArePersisted(t *testing.T) {
	f := newNormalizerFixture(t)

	msg := rawMessage("m1", "t1", []string{"inbox"}, "alice@example.com", "owner@example.com")
	msg.HasAttachments = true
	msg.Attachments = []aurinko.EmailAttachment{
		{ID: "att-1", Name: "report.pdf", MimeType: "application/pdf", Size: 1024},
	}
	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{msg}))

	var attachments []maildomain.EmailAttachment
	require.NoError(t, f.db.Where("email_id = ?", "m1").Find(&attachments).Error)
	require.Len(t, attachments, 1)
	assert.Equal(t, "report.pdf", attachments[0].Name)
}
