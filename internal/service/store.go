package service

import (
	"context"
	"io"

	"github.com/xhrome/foodbot/internal/models"
)

// StoreSession is one open connection to the remote file store. Every
// operation that mutates remote state opens its own session and closes it
// on all exit paths.
type StoreSession interface {
	List(dir string) ([]models.RemoteFile, error)
	Upload(path string, r io.Reader) error
	Delete(path string) error
	Close() error
}

// StoreDialer opens sessions against the remote store.
type StoreDialer interface {
	Open(ctx context.Context) (StoreSession, error)
}

// DialerFunc adapts a function to the StoreDialer interface.
type DialerFunc func(ctx context.Context) (StoreSession, error)

// Open implements StoreDialer.
func (f DialerFunc) Open(ctx context.Context) (StoreSession, error) {
	return f(ctx)
}
