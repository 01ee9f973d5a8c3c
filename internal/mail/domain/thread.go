package domain

import "time"

// Folder label classification, priority inbox > sent > draft.
const (
	LabelInbox = "inbox"
	LabelSent  = "sent"
	LabelDraft = "draft"
)

// Thread groups messages sharing a provider thread id. The folder status
// flags are a projection over the member emails' labels, recomputed from the
// full membership on every upsert; they are never authoritative on their own.
type Thread struct {
	ID              string     `json:"id" gorm:"primaryKey"` // provider thread id
	AccountID       string     `json:"account_id" gorm:"index;not null"`
	Subject         string     `json:"subject"`
	LastMessageDate time.Time  `json:"last_message_date" gorm:"index"`
	ParticipantIDs  StringList `json:"participant_ids" gorm:"type:text"`

	Done        bool `json:"done" gorm:"index"`
	InboxStatus bool `json:"inbox_status" gorm:"index"`
	DraftStatus bool `json:"draft_status" gorm:"index"`
	SentStatus  bool `json:"sent_status" gorm:"index"`

	Emails []Email `json:"emails,omitempty" gorm:"foreignKey:ThreadID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
