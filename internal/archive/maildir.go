package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/emersion/go-maildir"
)

// Maildir delivers messages into the new/ directory of a local Maildir.
type Maildir struct {
	dir maildir.Dir
}

// NewMaildir returns a sink for the Maildir rooted at path. The directory
// is created on first delivery.
func NewMaildir(path string) *Maildir {
	return &Maildir{dir: maildir.Dir(path)}
}

func (m *Maildir) Name() string { return "maildir" }

func (m *Maildir) Store(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(string(m.dir), 0o700); err != nil {
		return fmt.Errorf("failed to create maildir %s: %w", m.dir, err)
	}
	if err := m.dir.Init(); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to create maildir %s: %w", m.dir, err)
	}

	delivery, err := maildir.NewDelivery(string(m.dir))
	if err != nil {
		return fmt.Errorf("failed to start delivery: %w", err)
	}
	if _, err := delivery.Write(msg.Raw); err != nil {
		_ = delivery.Abort()
		return fmt.Errorf("failed to write message %d: %w", msg.UID, err)
	}
	if err := delivery.Close(); err != nil {
		return fmt.Errorf("failed to finish delivery of message %d: %w", msg.UID, err)
	}
	return nil
}
