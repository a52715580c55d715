package mailbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// Decode parses a raw RFC 822 message. Header dates that fail to parse fall
// back to the summary's envelope date, then to its internal date.
func Decode(raw []byte, summary Summary) (*EmailData, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if mr == nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	h := mr.Header
	email := &EmailData{
		From:        addressField(h, "From"),
		To:          addressField(h, "To"),
		UniqueId:    strconv.FormatUint(uint64(summary.UID), 10),
		Attachments: []AttachmentData{},
	}

	if email.Subject, err = h.Subject(); err != nil {
		email.Subject = h.Get("Subject")
	}

	date, err := h.Date()
	switch {
	case err == nil && !date.IsZero():
	case !summary.Date.IsZero():
		date = summary.Date
	default:
		date = summary.InternalDate
	}
	email.ReceivedDate = date.UTC()

	haveText := false
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}
		if part == nil {
			continue
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			if haveText {
				continue
			}
			contentType, _, _ := ph.ContentType()
			if contentType != "text/plain" && contentType != "" {
				continue
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read text body: %w", err)
			}
			email.Body = string(body)
			haveText = true

		case *mail.AttachmentHeader:
			if !isAttachment(ph) {
				continue
			}
			attachment, err := decodeAttachment(ph, part.Body)
			if err != nil {
				return nil, err
			}
			email.Attachments = append(email.Attachments, attachment)
		}
	}

	return email, nil
}

// isAttachment reports whether a part is an explicit, non-message
// attachment. go-message also labels undispositioned non-text parts, such as
// cid: images in multipart/related, as attachments; those are inline content.
func isAttachment(h *mail.AttachmentHeader) bool {
	disp, _, err := h.ContentDisposition()
	if err != nil || !strings.EqualFold(disp, "attachment") {
		return false
	}
	contentType, _, _ := h.ContentType()
	return !strings.EqualFold(contentType, "message/rfc822")
}

func decodeAttachment(h *mail.AttachmentHeader, body io.Reader) (AttachmentData, error) {
	filename, err := h.Filename()
	if err != nil {
		filename = ""
	}
	contentType, _, err := h.ContentType()
	if err != nil || contentType == "" {
		contentType = "application/octet-stream"
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return AttachmentData{}, fmt.Errorf("failed to read attachment %q: %w", filename, err)
	}

	return AttachmentData{
		FileName:      filename,
		ContentType:   contentType,
		Base64Content: base64.StdEncoding.EncodeToString(content),
	}, nil
}

// addressField formats an address header as a comma separated list. Headers
// that do not parse as addresses are returned as written.
func addressField(h mail.Header, key string) string {
	list, err := h.AddressList(key)
	if err != nil {
		return strings.TrimSpace(h.Get(key))
	}
	return FormatAddresses(list)
}

// FormatAddresses renders addresses as `Name <addr>`, quoting names that
// contain specials, or as the bare address when there is no name.
func FormatAddresses(list []*mail.Address) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		switch {
		case a.Name == "":
			parts = append(parts, a.Address)
		case strings.ContainsAny(a.Name, `()<>[]:;@\,."`):
			parts = append(parts, strconv.Quote(a.Name)+" <"+a.Address+">")
		default:
			parts = append(parts, a.Name+" <"+a.Address+">")
		}
	}
	return strings.Join(parts, ", ")
}
