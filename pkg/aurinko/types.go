package aurinko

import "time"

// SyncResponse is returned by POST /email/sync. The provider indexes the
// mailbox asynchronously, so Ready may be false for a while after the first
// call.
type SyncResponse struct {
	Ready            bool   `json:"ready"`
	SyncUpdatedToken string `json:"syncUpdatedToken"`
}

// SyncUpdatedResponse is one page of GET /email/sync/updated.
type SyncUpdatedResponse struct {
	NextPageToken  string         `json:"nextPageToken,omitempty"`
	NextDeltaToken string         `json:"nextDeltaToken,omitempty"`
	Records        []EmailMessage `json:"records"`
}

// EmailAddress is a raw provider address record.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Raw     string `json:"raw,omitempty"`
}

// EmailAttachment is a raw provider attachment record.
type EmailAttachment struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MimeType        string `json:"mimeType"`
	Size            int64  `json:"size"`
	Inline          bool   `json:"inline"`
	ContentID       string `json:"contentId,omitempty"`
	Content         string `json:"content,omitempty"`
	ContentLocation string `json:"contentLocation,omitempty"`
}

// EmailHeader is a single raw internet header.
type EmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EmailMessage is one raw message record from a delta page.
type EmailMessage struct {
	ID                   string            `json:"id"`
	ThreadID             string            `json:"threadId"`
	CreatedTime          time.Time         `json:"createdTime"`
	LastModifiedTime     time.Time         `json:"lastModifiedTime"`
	SentAt               time.Time         `json:"sentAt"`
	ReceivedAt           time.Time         `json:"receivedAt"`
	InternetMessageID    string            `json:"internetMessageId"`
	Subject              string            `json:"subject"`
	SysLabels            []string          `json:"sysLabels"`
	Keywords             []string          `json:"keywords"`
	SysClassifications   []string          `json:"sysClassifications"`
	Sensitivity          string            `json:"sensitivity"`
	MeetingMessageMethod string            `json:"meetingMessageMethod,omitempty"`
	From                 EmailAddress      `json:"from"`
	To                   []EmailAddress    `json:"to"`
	Cc                   []EmailAddress    `json:"cc"`
	Bcc                  []EmailAddress    `json:"bcc"`
	ReplyTo              []EmailAddress    `json:"replyTo"`
	HasAttachments       bool              `json:"hasAttachments"`
	InternetHeaders      []EmailHeader     `json:"internetHeaders"`
	Body                 string            `json:"body,omitempty"`
	BodySnippet          string            `json:"bodySnippet,omitempty"`
	Attachments          []EmailAttachment `json:"attachments"`
	InReplyTo            string            `json:"inReplyTo,omitempty"`
	References           string            `json:"references,omitempty"`
	ThreadIndex          string            `json:"threadIndex,omitempty"`
	NativeProperties     map[string]any    `json:"nativeProperties,omitempty"`
	FolderID             string            `json:"folderId,omitempty"`
	Omitted              []string          `json:"omitted"`
}

// SendEmailRequest is the body of POST /email/messages.
type SendEmailRequest struct {
	From       EmailAddress    `json:"from"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	InReplyTo  string          `json:"inReplyTo,omitempty"`
	References string          `json:"references,omitempty"`
	ThreadID   string          `json:"threadId,omitempty"`
	To         []EmailAddress  `json:"to"`
	Cc         []EmailAddress  `json:"cc,omitempty"`
	Bcc        []EmailAddress  `json:"bcc,omitempty"`
	ReplyTo    []EmailAddress  `json:"replyTo,omitempty"`
}

// SendEmailResponse carries the provider-assigned ids of a sent message.
type SendEmailResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId,omitempty"`
}

// TokenResponse is the result of exchanging an authorization code.
type TokenResponse struct {
	AccountID   int64  `json:"accountId"`
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	UserSession string `json:"userSession"`
}

// AccountDetails describes the linked mailbox.
type AccountDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
