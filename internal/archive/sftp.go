package archive

import (
	"context"
	"fmt"
	"net"
	"path"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

const defaultSSHPort = "22"

// SFTPConfig describes the remote directory messages are uploaded to.
type SFTPConfig struct {
	Addr     string
	User     string
	Password string
	Dir      string
	// HostKey is an authorized_keys formatted public key. When empty the
	// server's host key is accepted without verification.
	HostKey string
}

// SFTP uploads each message as an .eml file over SFTP.
type SFTP struct {
	cfg SFTPConfig
	log *zap.Logger
}

// NewSFTP returns an SFTP sink. The connection is opened per Store call.
func NewSFTP(cfg SFTPConfig, log *zap.Logger) *SFTP {
	return &SFTP{cfg: cfg, log: log}
}

func (s *SFTP) Name() string { return "sftp" }

func (s *SFTP) address() string {
	if _, _, err := net.SplitHostPort(s.cfg.Addr); err == nil {
		return s.cfg.Addr
	}
	return net.JoinHostPort(s.cfg.Addr, defaultSSHPort)
}

func (s *SFTP) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if s.cfg.HostKey == "" {
		s.log.Warn("sftp host key not pinned, skipping verification", zap.String("addr", s.cfg.Addr))
		return ssh.InsecureIgnoreHostKey(), nil
	}
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(s.cfg.HostKey))
	if err != nil {
		return nil, fmt.Errorf("invalid sftp host key: %w", err)
	}
	return ssh.FixedHostKey(key), nil
}

func (s *SFTP) Store(ctx context.Context, msg Message) error {
	hostKey, err := s.hostKeyCallback()
	if err != nil {
		return err
	}

	config := &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.Password)},
		HostKeyCallback: hostKey,
	}

	addr := s.address()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to sftp %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("starting sftp session: %w", err)
	}
	defer client.Close()

	dir := s.cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := client.MkdirAll(dir); err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", dir, err)
	}

	remotePath := path.Join(dir, FileName(msg))
	f, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}
	if _, err := f.Write(msg.Raw); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish upload of %s: %w", remotePath, err)
	}

	s.log.Debug("uploaded message", zap.String("path", remotePath), zap.Uint32("uid", msg.UID))
	return nil
}
