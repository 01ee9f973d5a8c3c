package repository

import (
	"errors"

	maildomain "mailflow-backend/internal/mail/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// emailRepository implements EmailRepository interface
type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new instance of emailRepository
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{
		db: db,
	}
}

// UpsertAddress stores an address keyed by (account_id, address) and returns
// the persisted row, so callers always reference the same row id for a given
// address regardless of how many messages mention it.
func (r *emailRepository) UpsertAddress(addr *maildomain.EmailAddress) (*maildomain.EmailAddress, error) {
	row := maildomain.EmailAddress{
		ID:        uuid.New().String(),
		AccountID: addr.AccountID,
		Address:   addr.Address,
		Name:      addr.Name,
		Raw:       addr.Raw,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "raw"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller gets the stable id when the row already existed.
	var stored maildomain.EmailAddress
	err = r.db.Where("account_id = ? AND address = ?", addr.AccountID, addr.Address).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *emailRepository) UpsertEmail(email *maildomain.Email) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(email).Error
		if err != nil {
			return err
		}

		// Recipient sets are replaced wholesale; the merge semantics live at
		// the thread participant level, not per message.
		if err := tx.Model(email).Association("To").Replace(email.To); err != nil {
			return err
		}
		if err := tx.Model(email).Association("Cc").Replace(email.Cc); err != nil {
			return err
		}
		if err := tx.Model(email).Association("Bcc").Replace(email.Bcc); err != nil {
			return err
		}
		return tx.Model(email).Association("ReplyTo").Replace(email.ReplyTo)
	})
}

func (r *emailRepository) UpsertAttachment(att *maildomain.EmailAttachment) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(att).Error
}

func (r *emailRepository) FindLabelsByThread(threadID string) ([]string, error) {
	var labels []string
	err := r.db.Model(&maildomain.Email{}).
		Where("thread_id = ?", threadID).
		Order("received_at asc").
		Pluck("email_label", &labels).Error
	return labels, err
}

func (r *emailRepository) FindByID(emailID string) (*maildomain.Email, error) {
	var email maildomain.Email
	err := r.db.Where("id = ?", emailID).
		Preload("From").
		Preload("To").
		Preload("Cc").
		First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) ListAddresses(accountID string) ([]*maildomain.EmailAddress, error) {
	var addresses []*maildomain.EmailAddress
	err := r.db.Where("account_id = ?", accountID).
		Order("address asc").
		Find(&addresses).Error
	return addresses, err
}
