package repository

import (
	"errors"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// threadRepository implements ThreadRepository interface
type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new instance of threadRepository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{
		db: db,
	}
}

// Upsert creates or updates a thread. On create the folder flags are seeded
// from the triggering message's label; on update only subject, last message
// date and the merged participant set change. The rescan in the normalizer
// rewrites the flags afterwards, so stale flags here are transient.
func (r *threadRepository) Upsert(thread *maildomain.Thread, labelType string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		created := maildomain.Thread{
			ID:              thread.ID,
			AccountID:       thread.AccountID,
			Subject:         thread.Subject,
			LastMessageDate: thread.LastMessageDate,
			ParticipantIDs:  thread.ParticipantIDs,
			Done:            false,
			InboxStatus:     labelType == maildomain.LabelInbox,
			DraftStatus:     labelType == maildomain.LabelDraft,
			SentStatus:      labelType == maildomain.LabelSent,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&created)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			// Fresh row, nothing to merge.
			return nil
		}

		query := tx
		if tx.Dialector.Name() == "postgres" {
			// Serialize concurrent writers on the same thread row so the
			// participant merge below is not a lost update.
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var existing maildomain.Thread
		if err := query.Where("id = ?", thread.ID).First(&existing).Error; err != nil {
			return err
		}

		merged := existing.ParticipantIDs
		for _, id := range thread.ParticipantIDs {
			if !merged.Contains(id) {
				merged = append(merged, id)
			}
		}

		return tx.Model(&maildomain.Thread{}).Where("id = ?", thread.ID).Updates(map[string]any{
			"subject":           thread.Subject,
			"last_message_date": thread.LastMessageDate,
			"participant_ids":   merged,
			"done":              false,
			"updated_at":        now,
		}).Error
	})
}

func (r *threadRepository) UpdateFolderStatus(threadID string, inbox, draft, sent bool) error {
	return r.db.Model(&maildomain.Thread{}).Where("id = ?", threadID).Updates(map[string]any{
		"inbox_status": inbox,
		"draft_status": draft,
		"sent_status":  sent,
		"updated_at":   time.Now(),
	}).Error
}

func (r *threadRepository) SetDone(accountID, threadID string, done bool) error {
	res := r.db.Model(&maildomain.Thread{}).
		Where("id = ? AND account_id = ?", threadID, accountID).
		Updates(map[string]any{"done": done, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *threadRepository) FindByAccount(accountID, tab string, done bool, limit int) ([]*maildomain.Thread, error) {
	if limit <= 0 {
		limit = 15
	}

	query := r.db.Where("account_id = ? AND done = ?", accountID, done)
	query = applyTabFilter(query, tab)

	var threads []*maildomain.Thread
	err := query.
		Preload("Emails", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at asc")
		}).
		Preload("Emails.From").
		Order("last_message_date desc").
		Limit(limit).
		Find(&threads).Error
	return threads, err
}

func (r *threadRepository) CountByAccount(accountID, tab string) (int64, error) {
	query := r.db.Model(&maildomain.Thread{}).Where("account_id = ?", accountID)
	query = applyTabFilter(query, tab)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *threadRepository) FindWithEmails(accountID, threadID string) (*maildomain.Thread, error) {
	var thread maildomain.Thread
	err := r.db.Where("id = ? AND account_id = ?", threadID, accountID).
		Preload("Emails", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at desc")
		}).
		Preload("Emails.From").
		Preload("Emails.To").
		Preload("Emails.Cc").
		First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func applyTabFilter(query *gorm.DB, tab string) *gorm.DB {
	switch tab {
	case maildomain.LabelInbox:
		return query.Where("inbox_status = ?", true)
	case maildomain.LabelDraft:
		return query.Where("draft_status = ?", true)
	case maildomain.LabelSent:
		return query.Where("sent_status = ?", true)
	default:
		return query
	}
}
