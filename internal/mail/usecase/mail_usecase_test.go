package usecase

import (
	"context"
	"testing"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/dto"
	"mailflow-backend/pkg/aurinko"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailFixture struct {
	*normalizerFixture
	provider *fakeProvider
	mail     MailUsecase
}

func newMailFixture(t *testing.T) *mailFixture {
	t.Helper()
	f := newNormalizerFixture(t)
	provider := &fakeProvider{}
	return &mailFixture{
		normalizerFixture: f,
		provider:          provider,
		mail:              NewMailUsecase(f.accounts, f.threads, f.emails, provider, f.writer),
	}
}

func (f *mailFixture) seedConversation(t *testing.T) {
	t.Helper()
	msg1 := rawMessage("m1", "t1", []string{"inbox"}, "alice@example.com", "owner@example.com", "bob@example.com")
	msg1.InternetMessageID = "<m1@mail>"
	msg1.Cc = []aurinko.EmailAddress{{Address: "carol@example.com"}}

	msg2 := rawMessage("m2", "t1", []string{"sent"}, "owner@example.com", "alice@example.com")
	msg2.InternetMessageID = "<m2@mail>"
	msg2.SentAt = msg1.SentAt.Add(time.Minute)

	require.NoError(t, f.normalizer.SyncToDatabase(context.Background(), testAccountID, []aurinko.EmailMessage{msg1, msg2}))
}

func TestGetThreadsChecksOwnership(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	threads, err := f.mail.GetThreads(testAccountID, "user-1", maildomain.LabelInbox, false)
	require.NoError(t, err)
	assert.Len(t, threads, 1)

	_, err = f.mail.GetThreads(testAccountID, "intruder", maildomain.LabelInbox, false)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCountThreadsPerTab(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	inbox, err := f.mail.CountThreads(testAccountID, "user-1", maildomain.LabelInbox)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inbox)

	sent, err := f.mail.CountThreads(testAccountID, "user-1", maildomain.LabelSent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sent, "inbox wins the folder rescan")
}

func TestSetThreadDoneAndExcludeFromList(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	require.NoError(t, f.mail.SetThreadDone(testAccountID, "user-1", "t1", true))

	threads, err := f.mail.GetThreads(testAccountID, "user-1", maildomain.LabelInbox, false)
	require.NoError(t, err)
	assert.Empty(t, threads)

	done, err := f.mail.GetThreads(testAccountID, "user-1", maildomain.LabelInbox, true)
	require.NoError(t, err)
	assert.Len(t, done, 1)

	assert.Error(t, f.mail.SetThreadDone(testAccountID, "user-1", "no-such-thread", true))
}

func TestGetReplyDetails(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	// The latest message is the owner's own; reply targets the latest
	// external one instead.
	details, err := f.mail.GetReplyDetails(testAccountID, "user-1", "t1", "reply")
	require.NoError(t, err)

	assert.Equal(t, "m1", details.EmailID)
	assert.Equal(t, "Re: Subject of m1", details.Subject)
	require.Len(t, details.To, 1)
	assert.Equal(t, "alice@example.com", details.To[0].Address)
	assert.Equal(t, "owner@example.com", details.From.Address)
	assert.Equal(t, "<m1@mail>", details.InReplyTo)
	assert.Contains(t, details.References, "<m1@mail>")
	assert.Empty(t, details.Cc)
}

func TestGetReplyAllDetails(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	details, err := f.mail.GetReplyDetails(testAccountID, "user-1", "t1", "replyAll")
	require.NoError(t, err)

	// Sender plus the other recipients, minus the owner.
	recipients := make([]string, 0, len(details.To))
	for _, a := range details.To {
		recipients = append(recipients, a.Address)
	}
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, recipients)

	require.Len(t, details.Cc, 1)
	assert.Equal(t, "carol@example.com", details.Cc[0].Address)
}

func TestReplySubjectIsNotDoublePrefixed(t *testing.T) {
	assert.Equal(t, "Re: hello", replySubject("hello"))
	assert.Equal(t, "Re: hello", replySubject("Re: hello"))
	assert.Equal(t, "re: hello", replySubject("re: hello"))
}

func TestSendEmailForwardsToProvider(t *testing.T) {
	f := newMailFixture(t)

	resp, err := f.mail.SendEmail(context.Background(), testAccountID, "user-1", &dto.SendEmailRequest{
		Subject:  "hello",
		Body:     "<p>hi</p>",
		From:     dto.Address{Name: "Owner", Address: "owner@example.com"},
		To:       []dto.Address{{Address: "alice@example.com"}},
		ThreadID: "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", resp.ID)

	require.Len(t, f.provider.sent, 1)
	sent := f.provider.sent[0]
	assert.Equal(t, "hello", sent.Subject)
	assert.Equal(t, "owner@example.com", sent.From.Address)
	assert.Equal(t, "t1", sent.ThreadID)
}

func TestGetSuggestionsListsKnownAddresses(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	addresses, err := f.mail.GetSuggestions(testAccountID, "user-1")
	require.NoError(t, err)

	seen := make([]string, 0, len(addresses))
	for _, a := range addresses {
		seen = append(seen, a.Address)
	}
	assert.ElementsMatch(t, []string{
		"alice@example.com", "bob@example.com", "carol@example.com", "owner@example.com",
	}, seen)
}

func TestSearchFindsSyncedMail(t *testing.T) {
	f := newMailFixture(t)
	f.seedConversation(t)

	hits, err := f.mail.Search(testAccountID, "user-1", "subject m1")
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	// Without an embedder the hybrid path degrades to lexical.
	hits, err = f.mail.VectorSearch(context.Background(), testAccountID, "user-1", "subject m1")
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}
