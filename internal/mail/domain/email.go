package domain

import "time"

// Email is one synced message. The provider message id is the primary key,
// which makes delta replays idempotent at the storage layer.
type Email struct {
	ID       string `json:"id" gorm:"primaryKey"` // provider message id
	ThreadID string `json:"thread_id" gorm:"index;not null"`

	CreatedTime      time.Time `json:"created_time"`
	LastModifiedTime time.Time `json:"last_modified_time"`
	SentAt           time.Time `json:"sent_at" gorm:"index"`
	ReceivedAt       time.Time `json:"received_at" gorm:"index"`

	InternetMessageID string `json:"internet_message_id"`
	Subject           string `json:"subject"`

	SysLabels          StringList `json:"sys_labels" gorm:"type:text"`
	Keywords           StringList `json:"keywords" gorm:"type:text"`
	SysClassifications StringList `json:"sys_classifications" gorm:"type:text"`
	Sensitivity        string     `json:"sensitivity" gorm:"default:normal"`

	MeetingMessageMethod string `json:"meeting_message_method,omitempty"`

	FromID  string         `json:"from_id" gorm:"index;not null"`
	From    EmailAddress   `json:"from" gorm:"foreignKey:FromID"`
	To      []EmailAddress `json:"to" gorm:"many2many:email_to_addresses"`
	Cc      []EmailAddress `json:"cc" gorm:"many2many:email_cc_addresses"`
	Bcc     []EmailAddress `json:"bcc" gorm:"many2many:email_bcc_addresses"`
	ReplyTo []EmailAddress `json:"reply_to" gorm:"many2many:email_reply_to_addresses"`

	HasAttachments bool              `json:"has_attachments"`
	Attachments    []EmailAttachment `json:"attachments,omitempty" gorm:"foreignKey:EmailID"`

	Body            string     `json:"body"`
	BodySnippet     string     `json:"body_snippet"`
	InReplyTo       string     `json:"in_reply_to,omitempty"`
	References      string     `json:"references,omitempty"`
	ThreadIndex     string     `json:"thread_index,omitempty"`
	InternetHeaders HeaderList `json:"internet_headers" gorm:"type:text"`
	NativeProperties JSONMap   `json:"native_properties,omitempty" gorm:"type:text"`
	FolderID        string     `json:"folder_id,omitempty"`
	Omitted         StringList `json:"omitted" gorm:"type:text"`

	// Derived folder classification: inbox, sent or draft.
	EmailLabel string `json:"email_label" gorm:"index;default:inbox"`
}

// EmailAddress is deduplicated per account by (account_id, address) and
// shared by reference across every email and thread that mentions it.
type EmailAddress struct {
	ID        string `json:"id" gorm:"primaryKey"` // uuid
	AccountID string `json:"account_id" gorm:"uniqueIndex:idx_account_address;not null"`
	Address   string `json:"address" gorm:"uniqueIndex:idx_account_address;not null"`
	Name      string `json:"name"`
	Raw       string `json:"raw,omitempty"`
}

// EmailAttachment is owned by exactly one email, keyed by the provider
// attachment id.
type EmailAttachment struct {
	ID              string `json:"id" gorm:"primaryKey"` // provider attachment id
	EmailID         string `json:"email_id" gorm:"index;not null"`
	Name            string `json:"name"`
	MimeType        string `json:"mime_type"`
	Size            int64  `json:"size"`
	Inline          bool   `json:"inline"`
	ContentID       string `json:"content_id,omitempty"`
	Content         string `json:"content,omitempty"`
	ContentLocation string `json:"content_location,omitempty"`
}
