// Package mailbox talks IMAP to a mail server and decodes fetched messages.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// DialFunc opens the transport connection an IMAP client runs over.
type DialFunc func(ctx context.Context, host, addr string) (net.Conn, error)

// Dialer connects to IMAP servers over implicit TLS.
type Dialer struct {
	// InsecureTLS skips certificate verification.
	InsecureTLS bool

	dial DialFunc
}

// NewDialer returns a Dialer using implicit TLS.
func NewDialer() *Dialer {
	return &Dialer{}
}

// NewDialerWith returns a Dialer that opens its transport with dial, for
// servers reached over something other than implicit TLS.
func NewDialerWith(dial DialFunc) *Dialer {
	return &Dialer{dial: dial}
}

func (d *Dialer) dialTLS(ctx context.Context, host, addr string) (net.Conn, error) {
	tlsConfig := &tls.Config{ServerName: host}
	if d.InsecureTLS {
		tlsConfig.InsecureSkipVerify = true
	}
	td := &tls.Dialer{Config: tlsConfig}
	return td.DialContext(ctx, "tcp", addr)
}

// Connect dials host:port and greets the server. The returned session is not
// yet authenticated.
func (d *Dialer) Connect(ctx context.Context, host string, port int) (Session, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dial := d.dial
	if dial == nil {
		dial = d.dialTLS
	}
	conn, err := dial(ctx, host, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	c, err := client.New(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("greeting from IMAP %s: %w", addr, err)
	}
	return &imapSession{c: c}, nil
}

type imapSession struct {
	c        *client.Client
	selected *imap.MailboxStatus
}

func (s *imapSession) Authenticate(username, password string) error {
	if err := s.c.Login(username, password); err != nil {
		return fmt.Errorf("authentication failed for %s: %w", username, err)
	}
	return nil
}

func (s *imapSession) ListFolders() ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.c.List("", "*", mailboxes)
	}()

	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	return names, nil
}

func (s *imapSession) OpenFolder(name string) (uint32, error) {
	mbox, err := s.c.Select(name, false)
	if err != nil {
		return 0, fmt.Errorf("failed to select mailbox %s: %w", name, err)
	}
	s.selected = mbox
	return mbox.Messages, nil
}

func (s *imapSession) FirstMessage() (*Summary, error) {
	if s.selected == nil {
		return nil, errors.New("no mailbox selected")
	}
	if s.selected.Messages == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(1)

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.c.Fetch(seqset, []imap.FetchItem{
			imap.FetchUid,
			imap.FetchEnvelope,
			imap.FetchInternalDate,
		}, messages)
	}()

	var first *Summary
	for msg := range messages {
		if first != nil {
			continue
		}
		first = &Summary{
			SeqNum:       msg.SeqNum,
			UID:          msg.Uid,
			InternalDate: msg.InternalDate,
		}
		if msg.Envelope != nil {
			first.Subject = msg.Envelope.Subject
			first.Date = msg.Envelope.Date
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message summary: %w", err)
	}
	if first != nil && first.UID == 0 {
		return nil, errors.New("server returned no UID for first message")
	}
	return first, nil
}

func (s *imapSession) FetchMessage(uid uint32) ([]byte, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.c.UidFetch(seqset, []imap.FetchItem{section.FetchItem(), imap.FetchUid}, messages)
	}()

	var raw []byte
	var readErr error
	for msg := range messages {
		if raw != nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			readErr = errors.New("message body is nil")
			continue
		}
		raw, readErr = io.ReadAll(body)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", uid, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read message %d: %w", uid, readErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}
	return raw, nil
}

// Move moves the message to dest. The client falls back to UID COPY, \Deleted
// and EXPUNGE when the server does not advertise MOVE.
func (s *imapSession) Move(uid uint32, dest string) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	return s.c.UidMove(seqset, dest)
}

func (s *imapSession) Disconnect() error {
	return s.c.Logout()
}
