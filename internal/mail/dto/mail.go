package dto

// Address is a name/address pair on the compose and reply surfaces.
type Address struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address" binding:"required"`
}

// SendEmailRequest is the compose payload forwarded to the provider.
type SendEmailRequest struct {
	Subject    string    `json:"subject" binding:"required"`
	Body       string    `json:"body" binding:"required"`
	From       Address   `json:"from" binding:"required"`
	To         []Address `json:"to" binding:"required,min=1"`
	Cc         []Address `json:"cc,omitempty"`
	Bcc        []Address `json:"bcc,omitempty"`
	ReplyTo    []Address `json:"reply_to,omitempty"`
	InReplyTo  string    `json:"in_reply_to,omitempty"`
	References string    `json:"references,omitempty"`
	ThreadID   string    `json:"thread_id,omitempty"`
}

// SendEmailResponse carries the provider-assigned ids of a sent message.
type SendEmailResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ReplyDetails pre-fills the reply composer from the last external message
// of a thread.
type ReplyDetails struct {
	EmailID    string    `json:"email_id"`
	Subject    string    `json:"subject"`
	From       Address   `json:"from"`
	To         []Address `json:"to"`
	Cc         []Address `json:"cc"`
	InReplyTo  string    `json:"in_reply_to,omitempty"`
	References string    `json:"references,omitempty"`
}

// SetDoneRequest marks a thread done or restores it.
type SetDoneRequest struct {
	Done bool `json:"done"`
}

// ComposeRequest asks the AI composer for a full draft.
type ComposeRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	Context string `json:"context"`
}

// CompleteRequest asks the AI composer to finish the sentence being typed.
type CompleteRequest struct {
	Input   string `json:"input" binding:"required"`
	Context string `json:"context"`
}

// AuthorizeURLResponse returns the provider consent URL.
type AuthorizeURLResponse struct {
	URL string `json:"url"`
}
