package usecase

import (
	"context"
	"testing"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexedEmail(id string) *maildomain.Email {
	return &maildomain.Email{
		ID:       id,
		ThreadID: "t1",
		Subject:  "Project kickoff notes",
		Body:     "<h1>Kickoff</h1><p>Agenda attached</p>",
		SentAt:   time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		From:     maildomain.EmailAddress{Address: "alice@example.com"},
		To:       []maildomain.EmailAddress{{Address: "owner@example.com"}},
	}
}

func TestEnsureIndexedPersistsAcrossRehydration(t *testing.T) {
	f := newNormalizerFixture(t)

	idx, err := f.writer.Open(testAccountID)
	require.NoError(t, err)
	require.Equal(t, 0, idx.Len())

	require.NoError(t, f.writer.EnsureIndexed(context.Background(), testAccountID, idx, indexedEmail("m1")))

	// A fresh rehydration sees the document.
	reloaded, err := f.writer.Open(testAccountID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())

	hits := reloaded.Search("kickoff", 0)
	require.NotEmpty(t, hits)
	assert.Equal(t, "m1", hits[0].Document.ThreadID)
	assert.Equal(t, "alice@example.com", hits[0].Document.From)
}

func TestEnsureIndexedSkipsDuplicates(t *testing.T) {
	f := newNormalizerFixture(t)

	idx, err := f.writer.Open(testAccountID)
	require.NoError(t, err)

	require.NoError(t, f.writer.EnsureIndexed(context.Background(), testAccountID, idx, indexedEmail("m1")))
	require.NoError(t, f.writer.EnsureIndexed(context.Background(), testAccountID, idx, indexedEmail("m1")))

	assert.Equal(t, 1, idx.Len())
}

func TestEnsureIndexedConvertsHTMLBody(t *testing.T) {
	f := newNormalizerFixture(t)

	idx, err := f.writer.Open(testAccountID)
	require.NoError(t, err)
	require.NoError(t, f.writer.EnsureIndexed(context.Background(), testAccountID, idx, indexedEmail("m1")))

	hits := idx.Search("agenda", 0)
	require.NotEmpty(t, hits)
	assert.NotContains(t, hits[0].Document.Body, "<h1>", "indexed body is markdown, not HTML")
	assert.Contains(t, hits[0].Document.RawBody, "<h1>", "raw body keeps the original HTML")
}

func TestOpenSurvivesCorruptBlob(t *testing.T) {
	f := newNormalizerFixture(t)
	require.NoError(t, f.accounts.SaveSearchIndex(testAccountID, []byte("garbage")))

	idx, err := f.writer.Open(testAccountID)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len(), "corrupt blob falls back to an empty index")
}

func TestOpenUnknownAccountFails(t *testing.T) {
	f := newNormalizerFixture(t)

	_, err := f.writer.Open("no-such-account")
	assert.Error(t, err)
}
