package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/pkg/ai"
	"mailflow-backend/pkg/logger"
	"mailflow-backend/pkg/metrics"
	"mailflow-backend/pkg/searchindex"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"go.uber.org/zap"
)

// IndexWriter maintains the per-account search index blob. Each account owns
// one serialized index stored next to its sync cursor; the writer rehydrates
// it, applies mutations and persists the whole blob back.
type IndexWriter struct {
	accountRepo repository.AccountRepository
	embedder    ai.EmbedderService // nil runs the index lexical-only
	converter   *md.Converter
}

func NewIndexWriter(accountRepo repository.AccountRepository, embedder ai.EmbedderService) *IndexWriter {
	return &IndexWriter{
		accountRepo: accountRepo,
		embedder:    embedder,
		converter:   md.NewConverter("", true, nil),
	}
}

// Open rehydrates the account's index, starting empty when none was
// persisted yet or the stored blob no longer parses.
func (w *IndexWriter) Open(accountID string) (*searchindex.Index, error) {
	blob, err := w.accountRepo.GetSearchIndex(accountID)
	if err != nil {
		return nil, fmt.Errorf("load search index for account %s: %w", accountID, err)
	}
	if len(blob) == 0 {
		return searchindex.New(), nil
	}
	idx, err := searchindex.Restore(blob)
	if err != nil {
		logger.L().Warn("stored search index is corrupt, rebuilding empty",
			zap.String("account_id", accountID), zap.Error(err))
		return searchindex.New(), nil
	}
	return idx, nil
}

// Persist serializes the index and stores it on the account row.
func (w *IndexWriter) Persist(accountID string, idx *searchindex.Index) error {
	blob, err := idx.Serialize()
	if err != nil {
		return fmt.Errorf("serialize search index: %w", err)
	}
	return w.accountRepo.SaveSearchIndex(accountID, blob)
}

// EnsureIndexed inserts the email into the index unless a document for it is
// already present, then persists the blob. Replays of the same delta page
// therefore leave the index unchanged.
func (w *IndexWriter) EnsureIndexed(ctx context.Context, accountID string, idx *searchindex.Index, email *maildomain.Email) error {
	if w.isIndexed(idx, email.ID) {
		metrics.DocumentsIndexed.WithLabelValues("duplicate").Inc()
		return nil
	}

	body := email.Body
	if converted, err := w.converter.ConvertString(email.Body); err == nil {
		body = converted
	}

	doc := searchindex.Document{
		Subject: email.Subject,
		Body:    body,
		RawBody: email.Body,
		From:    email.From.Address,
		SentAt:  email.SentAt.Format(time.RFC3339),
		// The document carries the email id so duplicate probes can match
		// on it exactly.
		ThreadID: email.ID,
	}
	for _, to := range email.To {
		doc.To = append(doc.To, to.Address)
	}

	if w.embedder != nil {
		embedding, err := w.embedder.EmbedText(ctx, embeddingPayload(doc))
		if err != nil {
			logger.L().Warn("embedding failed, indexing document lexical-only",
				zap.String("email_id", email.ID), zap.Error(err))
		} else {
			doc.Embedding = embedding
		}
	}

	if _, err := idx.Insert(doc); err != nil {
		metrics.DocumentsIndexed.WithLabelValues("failed").Inc()
		return fmt.Errorf("insert document for email %s: %w", email.ID, err)
	}
	if err := w.Persist(accountID, idx); err != nil {
		metrics.DocumentsIndexed.WithLabelValues("failed").Inc()
		return err
	}
	metrics.DocumentsIndexed.WithLabelValues("inserted").Inc()
	return nil
}

// Search runs a lexical query against the account's persisted index.
func (w *IndexWriter) Search(accountID, term string) ([]searchindex.Hit, error) {
	idx, err := w.Open(accountID)
	if err != nil {
		return nil, err
	}
	return idx.Search(term, searchindex.DefaultLimit), nil
}

// VectorSearch runs a hybrid lexical+vector query. Without an embedder it
// degrades to the lexical path.
func (w *IndexWriter) VectorSearch(ctx context.Context, accountID, term string) ([]searchindex.Hit, error) {
	if w.embedder == nil {
		return w.Search(accountID, term)
	}
	idx, err := w.Open(accountID)
	if err != nil {
		return nil, err
	}
	embedding, err := w.embedder.EmbedText(ctx, term)
	if err != nil {
		logger.L().Warn("query embedding failed, falling back to lexical search", zap.Error(err))
		return idx.Search(term, searchindex.DefaultLimit), nil
	}
	return idx.VectorSearch(term, embedding, searchindex.DefaultLimit), nil
}

// isIndexed probes the index for a document carrying this email id.
func (w *IndexWriter) isIndexed(idx *searchindex.Index, emailID string) bool {
	for _, hit := range idx.Search(emailID, searchindex.DefaultLimit) {
		if hit.Document.ThreadID == emailID {
			return true
		}
	}
	return false
}

func embeddingPayload(doc searchindex.Document) string {
	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(doc.From)
	b.WriteString("\nTo: ")
	b.WriteString(strings.Join(doc.To, ", "))
	b.WriteString("\nSubject: ")
	b.WriteString(doc.Subject)
	b.WriteString("\nBody: ")
	b.WriteString(doc.Body)
	b.WriteString("\nSentAt: ")
	b.WriteString(doc.SentAt)
	return b.String()
}
