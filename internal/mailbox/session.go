package mailbox

import "context"

// Connector opens authenticated-ready sessions against a mail server.
type Connector interface {
	Connect(ctx context.Context, host string, port int) (Session, error)
}

// Session is one server connection. Methods are called sequentially by a
// single goroutine; a Session is not safe for concurrent use.
type Session interface {
	Authenticate(username, password string) error
	// ListFolders returns the full names of every folder in the personal
	// namespace.
	ListFolders() ([]string, error)
	// OpenFolder selects a folder read-write and returns its message count.
	OpenFolder(name string) (uint32, error)
	// FirstMessage returns the summary of the lowest-numbered message in the
	// open folder, or nil when the folder is empty.
	FirstMessage() (*Summary, error)
	// FetchMessage returns the raw RFC 822 bytes of the message with uid,
	// without setting \Seen.
	FetchMessage(uid uint32) ([]byte, error)
	// Move relocates the message with uid from the open folder to dest.
	Move(uid uint32, dest string) error
	Disconnect() error
}
