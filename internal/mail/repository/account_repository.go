package repository

import (
	"errors"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new instance of accountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

// Upsert links or re-links a mailbox. The provider may hand out a fresh
// account id and token for an address that was linked before, so the
// conflict target is the email address.
func (r *accountRepository) Upsert(account *maildomain.Account) error {
	account.UpdatedAt = time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = account.UpdatedAt
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "access_token", "name", "updated_at"}),
	}).Create(account).Error
}

func (r *accountRepository) FindByID(id string) (*maildomain.Account, error) {
	var account maildomain.Account
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByIDAndUser(id, userID string) (*maildomain.Account, error) {
	var account maildomain.Account
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByUser(userID string) ([]*maildomain.Account, error) {
	var accounts []*maildomain.Account
	err := r.db.Where("user_id = ?", userID).Order("created_at asc").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) FindAll() ([]*maildomain.Account, error) {
	var accounts []*maildomain.Account
	err := r.db.Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) UpdateDeltaToken(accountID, token string) error {
	return r.db.Model(&maildomain.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{"next_delta_token": token, "updated_at": time.Now()}).Error
}

func (r *accountRepository) GetSearchIndex(accountID string) ([]byte, error) {
	var account maildomain.Account
	err := r.db.Select("id", "search_index").Where("id = ?", accountID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return account.SearchIndex, nil
}

func (r *accountRepository) SaveSearchIndex(accountID string, blob []byte) error {
	return r.db.Model(&maildomain.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{"search_index": blob, "updated_at": time.Now()}).Error
}
