package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"github.com/xhrome/foodbot/internal/models"
)

// FTPDialer opens one FTP session per logical operation. Sessions are never
// shared between concurrent units of work.
type FTPDialer struct {
	addr     string
	user     string
	password string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewFTPDialer builds a dialer for the remote store. A host without an
// explicit port gets the standard FTP port.
func NewFTPDialer(host, user, password string, timeout time.Duration, logger *zap.Logger) *FTPDialer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "21")
	}
	return &FTPDialer{addr: addr, user: user, password: password, timeout: timeout, logger: logger}
}

// Open dials and logs in. The caller owns the session and must Close it on
// every path.
func (d *FTPDialer) Open(ctx context.Context) (*FTPSession, error) {
	conn, err := ftp.Dial(d.addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(d.timeout))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.addr, err)
	}
	if err := conn.Login(d.user, d.password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login %s: %w", d.addr, err)
	}
	d.logger.Debug("ftp session opened", zap.String("addr", d.addr))
	return &FTPSession{conn: conn, logger: d.logger}, nil
}

// FTPSession is one open connection to the remote store.
type FTPSession struct {
	conn   *ftp.ServerConn
	logger *zap.Logger
	closed bool
}

// List returns the plain files of a remote directory.
func (s *FTPSession) List(dir string) ([]models.RemoteFile, error) {
	entries, err := s.conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	files := make([]models.RemoteFile, 0, len(entries))
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		files = append(files, models.RemoteFile{Name: e.Name, ModTime: e.Time})
	}
	return files, nil
}

// Upload stores the stream under path, overwriting any previous content.
func (s *FTPSession) Upload(path string, r io.Reader) error {
	s.logger.Debug("ftp upload", zap.String("path", path))
	if err := s.conn.Stor(path, r); err != nil {
		return fmt.Errorf("store %s: %w", path, err)
	}
	return nil
}

// Delete removes the remote file at path.
func (s *FTPSession) Delete(path string) error {
	if err := s.conn.Delete(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Close quits the session. Idempotent, so it can be deferred unconditionally.
func (s *FTPSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("ftp session closed")
	return s.conn.Quit()
}
