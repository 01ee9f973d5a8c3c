package usecase

import (
	"context"
	"fmt"
	"sync"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/repository"
	"mailflow-backend/pkg/aurinko"
	"mailflow-backend/pkg/logger"
	"mailflow-backend/pkg/metrics"
	"mailflow-backend/pkg/searchindex"

	"go.uber.org/zap"
)

// Normalizer flattens raw provider message records into the relational
// store and mirrors them into the search index. A batch fans out over a
// bounded number of workers; one bad message is logged and skipped, it never
// fails the batch.
type Normalizer struct {
	emailRepo   repository.EmailRepository
	threadRepo  repository.ThreadRepository
	indexWriter *IndexWriter
	concurrency int
}

func NewNormalizer(emailRepo repository.EmailRepository, threadRepo repository.ThreadRepository, indexWriter *IndexWriter, concurrency int) *Normalizer {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Normalizer{
		emailRepo:   emailRepo,
		threadRepo:  threadRepo,
		indexWriter: indexWriter,
		concurrency: concurrency,
	}
}

// SyncToDatabase normalizes one batch of raw messages for the account.
func (n *Normalizer) SyncToDatabase(ctx context.Context, accountID string, messages []aurinko.EmailMessage) error {
	if len(messages) == 0 {
		return nil
	}

	idx, err := n.indexWriter.Open(accountID)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, n.concurrency)
	var wg sync.WaitGroup
	for i := range messages {
		wg.Add(1)
		sem <- struct{}{}
		go func(msg *aurinko.EmailMessage) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := n.upsertMessage(ctx, accountID, idx, msg); err != nil {
				metrics.MessagesNormalized.WithLabelValues("failed").Inc()
				logger.L().Error("failed to normalize message",
					zap.String("account_id", accountID),
					zap.String("message_id", msg.ID),
					zap.Error(err))
				return
			}
			metrics.MessagesNormalized.WithLabelValues("success").Inc()
		}(&messages[i])
	}
	wg.Wait()
	return nil
}

// upsertMessage runs the full normalization of one raw message: label
// classification, address dedup, thread upsert, email upsert, attachments,
// thread folder rescan and index insertion.
func (n *Normalizer) upsertMessage(ctx context.Context, accountID string, idx *searchindex.Index, msg *aurinko.EmailMessage) error {
	labelType := classifyLabel(msg.SysLabels)

	from, err := n.upsertAddress(accountID, msg.From)
	if err != nil {
		return fmt.Errorf("upsert from address: %w", err)
	}
	if from == nil {
		// Without a sender there is no FromID to attach; skip the message.
		return fmt.Errorf("message %s has no usable from address", msg.ID)
	}

	to, err := n.upsertAddresses(accountID, msg.To)
	if err != nil {
		return fmt.Errorf("upsert to addresses: %w", err)
	}
	cc, err := n.upsertAddresses(accountID, msg.Cc)
	if err != nil {
		return fmt.Errorf("upsert cc addresses: %w", err)
	}
	bcc, err := n.upsertAddresses(accountID, msg.Bcc)
	if err != nil {
		return fmt.Errorf("upsert bcc addresses: %w", err)
	}
	replyTo, err := n.upsertAddresses(accountID, msg.ReplyTo)
	if err != nil {
		return fmt.Errorf("upsert replyTo addresses: %w", err)
	}

	// Participants are sender plus every to/cc/bcc recipient; replyTo
	// addresses are routing hints, not participants.
	participantIDs := maildomain.StringList{from.ID}
	for _, group := range [][]maildomain.EmailAddress{to, cc, bcc} {
		for _, addr := range group {
			if !participantIDs.Contains(addr.ID) {
				participantIDs = append(participantIDs, addr.ID)
			}
		}
	}

	thread := &maildomain.Thread{
		ID:              msg.ThreadID,
		AccountID:       accountID,
		Subject:         msg.Subject,
		LastMessageDate: msg.SentAt,
		ParticipantIDs:  participantIDs,
	}
	if err := n.threadRepo.Upsert(thread, labelType); err != nil {
		return fmt.Errorf("upsert thread %s: %w", msg.ThreadID, err)
	}

	email := &maildomain.Email{
		ID:                   msg.ID,
		ThreadID:             msg.ThreadID,
		CreatedTime:          msg.CreatedTime,
		LastModifiedTime:     msg.LastModifiedTime,
		SentAt:               msg.SentAt,
		ReceivedAt:           msg.ReceivedAt,
		InternetMessageID:    msg.InternetMessageID,
		Subject:              msg.Subject,
		SysLabels:            maildomain.StringList(msg.SysLabels),
		Keywords:             maildomain.StringList(msg.Keywords),
		SysClassifications:   maildomain.StringList(msg.SysClassifications),
		Sensitivity:          msg.Sensitivity,
		MeetingMessageMethod: msg.MeetingMessageMethod,
		FromID:               from.ID,
		To:                   to,
		Cc:                   cc,
		Bcc:                  bcc,
		ReplyTo:              replyTo,
		HasAttachments:       msg.HasAttachments,
		Body:                 msg.Body,
		BodySnippet:          msg.BodySnippet,
		InReplyTo:            msg.InReplyTo,
		References:           msg.References,
		ThreadIndex:          msg.ThreadIndex,
		InternetHeaders:      toHeaderList(msg.InternetHeaders),
		NativeProperties:     maildomain.JSONMap(msg.NativeProperties),
		FolderID:             msg.FolderID,
		Omitted:              maildomain.StringList(msg.Omitted),
		EmailLabel:           labelType,
	}
	if email.Sensitivity == "" {
		email.Sensitivity = "normal"
	}
	if err := n.emailRepo.UpsertEmail(email); err != nil {
		return fmt.Errorf("upsert email %s: %w", msg.ID, err)
	}

	for _, att := range msg.Attachments {
		attachment := &maildomain.EmailAttachment{
			ID:              att.ID,
			EmailID:         msg.ID,
			Name:            att.Name,
			MimeType:        att.MimeType,
			Size:            att.Size,
			Inline:          att.Inline,
			ContentID:       att.ContentID,
			Content:         att.Content,
			ContentLocation: att.ContentLocation,
		}
		if err := n.emailRepo.UpsertAttachment(attachment); err != nil {
			return fmt.Errorf("upsert attachment %s: %w", att.ID, err)
		}
	}

	if err := n.rescanThreadFolder(msg.ThreadID); err != nil {
		return fmt.Errorf("rescan thread folder: %w", err)
	}

	email.From = *from
	return n.indexWriter.EnsureIndexed(ctx, accountID, idx, email)
}

// rescanThreadFolder recomputes the thread's folder flags from the full set
// of member labels. Any inbox member wins; otherwise any draft member;
// otherwise the thread is sent. Exactly one flag is set.
func (n *Normalizer) rescanThreadFolder(threadID string) error {
	labels, err := n.emailRepo.FindLabelsByThread(threadID)
	if err != nil {
		return err
	}

	folder := maildomain.LabelSent
	for _, label := range labels {
		if label == maildomain.LabelInbox {
			folder = maildomain.LabelInbox
			break
		}
		if label == maildomain.LabelDraft {
			folder = maildomain.LabelDraft
		}
	}

	return n.threadRepo.UpdateFolderStatus(threadID,
		folder == maildomain.LabelInbox,
		folder == maildomain.LabelDraft,
		folder == maildomain.LabelSent)
}

func (n *Normalizer) upsertAddress(accountID string, raw aurinko.EmailAddress) (*maildomain.EmailAddress, error) {
	if raw.Address == "" {
		return nil, nil
	}
	return n.emailRepo.UpsertAddress(&maildomain.EmailAddress{
		AccountID: accountID,
		Address:   raw.Address,
		Name:      raw.Name,
		Raw:       raw.Raw,
	})
}

func (n *Normalizer) upsertAddresses(accountID string, raws []aurinko.EmailAddress) ([]maildomain.EmailAddress, error) {
	addresses := make([]maildomain.EmailAddress, 0, len(raws))
	for _, raw := range raws {
		addr, err := n.upsertAddress(accountID, raw)
		if err != nil {
			return nil, err
		}
		if addr != nil {
			addresses = append(addresses, *addr)
		}
	}
	return addresses, nil
}

// classifyLabel maps provider system labels to the folder label, priority
// inbox over sent over draft.
func classifyLabel(sysLabels []string) string {
	hasInbox, hasSent, hasDraft := false, false, false
	for _, label := range sysLabels {
		switch label {
		case "inbox", "important":
			hasInbox = true
		case "sent":
			hasSent = true
		case "draft":
			hasDraft = true
		}
	}
	switch {
	case hasInbox:
		return maildomain.LabelInbox
	case hasSent:
		return maildomain.LabelSent
	case hasDraft:
		return maildomain.LabelDraft
	default:
		return maildomain.LabelInbox
	}
}

func toHeaderList(headers []aurinko.EmailHeader) maildomain.HeaderList {
	out := make(maildomain.HeaderList, 0, len(headers))
	for _, h := range headers {
		out = append(out, maildomain.Header{Name: h.Name, Value: h.Value})
	}
	return out
}
