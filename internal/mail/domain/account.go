package domain

import "time"

// Account is one linked external mailbox. NextDeltaToken is the opaque sync
// cursor; SearchIndex holds the serialized per-account search index blob.
type Account struct {
	ID           string `json:"id" gorm:"primaryKey"` // provider account id
	UserID       string `json:"user_id" gorm:"index;not null"`
	EmailAddress string `json:"email_address" gorm:"uniqueIndex;not null"`
	Name         string `json:"name"`
	AccessToken  string `json:"-" gorm:"uniqueIndex;not null"`

	NextDeltaToken *string `json:"-"`
	SearchIndex    []byte  `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
