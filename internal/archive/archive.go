// Package archive stores copies of fetched messages outside the mailbox.
package archive

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Message is a fetched message handed to a sink.
type Message struct {
	UID     uint32
	Subject string
	Raw     []byte
}

// Sink stores a raw message somewhere durable.
type Sink interface {
	Name() string
	Store(ctx context.Context, msg Message) error
}

// maxSubjectBytes bounds the subject part of an archived file name.
const maxSubjectBytes = 100

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// sanitizeFilename makes input safe to use as a file name on common
// filesystems.
func sanitizeFilename(input string) string {
	sanitized := invalidChars.ReplaceAllString(input, "_")
	sanitized = strings.ReplaceAll(sanitized, " ", "_")

	if len(sanitized) > maxSubjectBytes {
		cut := maxSubjectBytes
		for cut > 0 && !utf8.RuneStart(sanitized[cut]) {
			cut--
		}
		sanitized = sanitized[:cut]
	}
	return sanitized
}

// FileName returns the .eml name a message is archived under.
func FileName(msg Message) string {
	subject := sanitizeFilename(msg.Subject)
	if subject == "" {
		return fmt.Sprintf("%d.eml", msg.UID)
	}
	return fmt.Sprintf("%d_%s.eml", msg.UID, subject)
}
