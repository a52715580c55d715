// Package mover fetches the first message of a folder and optionally moves
// it to another folder.
package mover

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Warky-Devs/WkMailMover/internal/archive"
	"github.com/Warky-Devs/WkMailMover/internal/failure"
	"github.com/Warky-Devs/WkMailMover/internal/mailbox"
	"github.com/Warky-Devs/WkMailMover/internal/params"
	"github.com/Warky-Devs/WkMailMover/internal/report"
)

// Status classifies a fetch.
type Status uint8

const (
	Found Status = iota
	NotFound
	TransportError
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	default:
		return "transport error"
	}
}

// FetchResult is the outcome of Fetch. Email, Raw and UID are set only when
// Status is Found; Err is set otherwise.
type FetchResult struct {
	Status Status
	Email  *mailbox.EmailData
	Raw    []byte
	UID    uint32
	Err    error
}

// MoveResult is the outcome of Move. Message is user facing.
type MoveResult struct {
	Success bool
	Message string
	Err     error
}

var errEmptyFolder = errors.New("folder is empty")

// Mover runs one fetch/move cycle against a mail server.
type Mover struct {
	connector mailbox.Connector
	sinks     []archive.Sink
	log       *zap.Logger
}

// New returns a Mover. Sinks receive a copy of every fetched message.
func New(connector mailbox.Connector, log *zap.Logger, sinks ...archive.Sink) *Mover {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mover{connector: connector, sinks: sinks, log: log}
}

func (m *Mover) open(ctx context.Context, opts *params.Options) (mailbox.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure.E(failure.Connection, "connect", err)
	}
	sess, err := m.connector.Connect(ctx, opts.Server, opts.Port)
	if err != nil {
		return nil, failure.E(failure.Connection, "connect", err)
	}
	if err := sess.Authenticate(opts.Username, opts.Password); err != nil {
		_ = sess.Disconnect()
		return nil, failure.E(failure.Connection, "authenticate", err)
	}
	return sess, nil
}

func (m *Mover) disconnect(sess mailbox.Session) {
	if err := sess.Disconnect(); err != nil {
		m.log.Debug("disconnect failed", zap.Error(err))
	}
}

// Fetch connects, opens the read folder and retrieves its first message.
func (m *Mover) Fetch(ctx context.Context, opts *params.Options) FetchResult {
	m.log.Info("connecting", zap.String("server", opts.Server), zap.Int("port", opts.Port))

	sess, err := m.open(ctx, opts)
	if err != nil {
		return FetchResult{Status: TransportError, Err: err}
	}
	defer m.disconnect(sess)

	count, err := sess.OpenFolder(opts.ReadFolder)
	if err != nil {
		return FetchResult{Status: TransportError, Err: failure.E(failure.Connection, "open folder", err)}
	}
	m.log.Info("opened folder", zap.String("folder", opts.ReadFolder), zap.Uint32("messages", count))

	summary, err := sess.FirstMessage()
	if err != nil {
		return FetchResult{Status: TransportError, Err: failure.E(failure.Fetch, "first message", err)}
	}
	if summary == nil {
		return FetchResult{Status: NotFound, Err: failure.E(failure.NotFound, "first message", errEmptyFolder)}
	}

	if err := ctx.Err(); err != nil {
		return FetchResult{Status: TransportError, Err: failure.E(failure.Fetch, "fetch message", err)}
	}
	raw, err := sess.FetchMessage(summary.UID)
	if err != nil {
		return FetchResult{Status: TransportError, Err: failure.E(failure.Fetch, "fetch message", err)}
	}

	email, err := mailbox.Decode(raw, *summary)
	if err != nil {
		return FetchResult{Status: TransportError, Err: failure.E(failure.Fetch, "decode message", err)}
	}

	m.log.Info("fetched message",
		zap.Uint32("uid", summary.UID),
		zap.String("size", humanize.Bytes(uint64(len(raw)))),
		zap.Int("attachments", len(email.Attachments)),
	)
	for _, a := range email.Attachments {
		m.log.Debug("attachment",
			zap.String("file", a.FileName),
			zap.String("type", a.ContentType),
			zap.String("size", humanize.Bytes(uint64(len(a.Base64Content)*3/4))),
		)
	}

	return FetchResult{Status: Found, Email: email, Raw: raw, UID: summary.UID}
}

// Move reconnects and moves the message with uid from the read folder to
// opts.MoveToFolder. The target must be listed by the server verbatim.
func (m *Mover) Move(ctx context.Context, opts *params.Options, uid uint32) MoveResult {
	target := opts.MoveToFolder

	sess, err := m.open(ctx, opts)
	if err != nil {
		return moveError(err)
	}
	defer m.disconnect(sess)

	folders, err := sess.ListFolders()
	if err != nil {
		return moveError(failure.E(failure.Move, "list folders", err))
	}
	if !slices.Contains(folders, target) {
		msg := fmt.Sprintf("The folder '%s' does not exist. Available folders: %s", target, strings.Join(folders, ", "))
		return MoveResult{
			Message: msg,
			Err:     failure.E(failure.Move, "find folder", fmt.Errorf("folder %q not listed", target)),
		}
	}

	if _, err := sess.OpenFolder(opts.ReadFolder); err != nil {
		return moveError(failure.E(failure.Move, "open folder", err))
	}
	if err := sess.Move(uid, target); err != nil {
		return moveError(failure.E(failure.Move, "move", err))
	}

	m.log.Info("moved message", zap.Uint32("uid", uid), zap.String("from", opts.ReadFolder), zap.String("to", target))
	return MoveResult{Success: true, Message: fmt.Sprintf("Email moved to %s successfully.", target)}
}

func moveError(err error) MoveResult {
	return MoveResult{Message: "Error moving email: " + failure.Reason(err), Err: err}
}

func (m *Mover) archive(ctx context.Context, res FetchResult) {
	msg := archive.Message{UID: res.UID, Subject: res.Email.Subject, Raw: res.Raw}
	for _, sink := range m.sinks {
		if err := sink.Store(ctx, msg); err != nil {
			m.log.Warn("archive failed", zap.String("sink", sink.Name()), zap.Uint32("uid", res.UID), zap.Error(err))
			continue
		}
		m.log.Info("archived message", zap.String("sink", sink.Name()), zap.Uint32("uid", res.UID))
	}
}

// Run performs the whole cycle and returns the response to print.
func (m *Mover) Run(ctx context.Context, opts *params.Options) report.Response {
	res := m.Fetch(ctx, opts)
	if res.Status != Found {
		m.log.Error("fetch failed",
			zap.Stringer("status", res.Status),
			zap.Stringer("kind", failure.KindOf(res.Err)),
			zap.Error(res.Err),
		)
		return report.Failure(report.MsgFetchFailed)
	}

	m.archive(ctx, res)

	if opts.MoveToFolder == "" {
		return report.WithEmail(true, report.MsgFetched, res.Email)
	}

	mv := m.Move(ctx, opts, res.UID)
	if !mv.Success {
		m.log.Error("move failed", zap.Stringer("kind", failure.KindOf(mv.Err)), zap.Error(mv.Err))
	}
	return report.WithEmail(mv.Success, mv.Message, res.Email)
}
