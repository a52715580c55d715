package mailbox

import "time"

// EmailData is the decoded form of a fetched message.
type EmailData struct {
	Subject      string           `json:"Subject"`
	From         string           `json:"From"`
	To           string           `json:"To"`
	Body         string           `json:"Body"`
	ReceivedDate time.Time        `json:"ReceivedDate"`
	UniqueId     string           `json:"UniqueId"`
	Attachments  []AttachmentData `json:"Attachments"`
}

// AttachmentData is one non-inline attachment with its decoded content
// re-encoded as standard base64.
type AttachmentData struct {
	FileName      string `json:"FileName"`
	ContentType   string `json:"ContentType"`
	Base64Content string `json:"Base64Content"`
}

// Summary is the envelope-level view of a message, fetched before its body.
type Summary struct {
	SeqNum       uint32
	UID          uint32
	Subject      string
	Date         time.Time
	InternalDate time.Time
}
