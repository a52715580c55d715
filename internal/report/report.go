// Package report renders the run result printed on stdout.
package report

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/Warky-Devs/WkMailMover/internal/mailbox"
)

// Result messages shared by every run.
const (
	MsgFetched     = "Email fetched successfully."
	MsgFetchFailed = "Failed to retrieve email."
)

// Response is the result envelope. Email is either a *mailbox.EmailData or
// an empty object.
type Response struct {
	Success bool   `json:"Success"`
	Message string `json:"Message"`
	Email   any    `json:"Email"`
}

type empty struct{}

// Failure returns an unsuccessful response carrying no email.
func Failure(message string) Response {
	return Response{Message: message, Email: empty{}}
}

// WithEmail returns a response carrying email. A nil email renders as {}.
func WithEmail(success bool, message string, email *mailbox.EmailData) Response {
	if email == nil {
		return Response{Success: success, Message: message, Email: empty{}}
	}
	return Response{Success: success, Message: message, Email: email}
}

// Write prints r as indented JSON followed by a newline. Characters such as
// <, > and & are written as-is.
func Write(w io.Writer, r Response) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
