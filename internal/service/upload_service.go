package service

import (
	"context"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xhrome/foodbot/internal/models"
	appErrors "github.com/xhrome/foodbot/pkg/errors"
)

// Status is the terminal outcome of an upload attempt.
type Status int

const (
	StatusSuccess Status = iota
	StatusAlreadyUploaded
	StatusWrongType
	StatusError
)

// String returns a stable label used in logs and metrics.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAlreadyUploaded:
		return "already_uploaded"
	case StatusWrongType:
		return "wrong_type"
	default:
		return "error"
	}
}

// Result reports how an upload attempt ended. Message is only set for
// StatusError and is safe to show to the user.
type Result struct {
	Status  Status
	Kind    models.FileKind
	Message string
	Err     error
}

type fileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

type spool interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type duplicateChecker interface {
	AlreadyPublished(ctx context.Context, kind models.FileKind, filename string) (bool, error)
}

type indexPublisher interface {
	RebuildTableIndex(sess StoreSession) error
	PublishMenuRecord(sess StoreSession, remotePath, displayName string) error
}

// UploadServiceConfig pins remote naming for uploaded artifacts.
type UploadServiceConfig struct {
	RemoteDir    string
	MenuBaseName string
}

// UploadService drives the classify, duplicate-check, transfer and reindex
// pipeline for a single submitted document. Steps run strictly in order
// inside one unit of work; concurrent submissions get independent sessions.
type UploadService struct {
	dialer     StoreDialer
	fetcher    fileFetcher
	spool      spool
	duplicates duplicateChecker
	index      indexPublisher
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        UploadServiceConfig
}

// NewUploadService constructs the orchestrator.
func NewUploadService(
	dialer StoreDialer,
	fetcher fileFetcher,
	sp spool,
	duplicates duplicateChecker,
	index indexPublisher,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg UploadServiceConfig,
) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/food/"
	}
	if cfg.MenuBaseName == "" {
		cfg.MenuBaseName = "menu"
	}
	return &UploadService{
		dialer:     dialer,
		fetcher:    fetcher,
		spool:      sp,
		duplicates: duplicates,
		index:      index,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Submit runs one upload attempt. started is invoked exactly once, right
// before any bytes move, as the immediate acknowledgement to the user; it is
// never invoked for rejected or duplicate documents. force skips the
// duplicate check and is only set after an explicit user confirmation.
func (s *UploadService) Submit(ctx context.Context, doc models.Document, force bool, started func()) Result {
	res := s.submit(ctx, doc, force, started)
	if s.metrics != nil {
		s.metrics.ObserveUpload(res.Kind, res.Status.String())
	}
	return res
}

func (s *UploadService) submit(ctx context.Context, doc models.Document, force bool, started func()) Result {
	kind := doc.Kind()
	if kind == models.KindUnsupported {
		return Result{Status: StatusWrongType, Kind: kind}
	}

	if !force {
		dup, err := s.duplicates.AlreadyPublished(ctx, kind, doc.Name)
		if err != nil {
			return s.fail(kind, err)
		}
		if dup {
			return Result{Status: StatusAlreadyUploaded, Kind: kind}
		}
	}

	if started != nil {
		started()
	}

	local, err := s.download(ctx, doc.FileID, doc.Name)
	if err != nil {
		return s.fail(kind, err)
	}
	defer s.discard(local)

	if kind == models.KindTableFile {
		return s.uploadTable(ctx, local)
	}
	return s.uploadMenu(ctx, kind, local, doc.Name, doc.Ext())
}

// SubmitPhoto publishes a Telegram photo attachment as the menu. Photos
// carry no stable filename, so no duplicate check applies; the spool name is
// minted fresh per attempt.
func (s *UploadService) SubmitPhoto(ctx context.Context, fileID string, started func()) Result {
	const kind = models.KindMenuPhoto

	if started != nil {
		started()
	}

	name := uuid.NewString() + ".jpg"
	local, err := s.download(ctx, fileID, name)
	if err != nil {
		res := s.fail(kind, err)
		if s.metrics != nil {
			s.metrics.ObserveUpload(kind, res.Status.String())
		}
		return res
	}
	defer s.discard(local)

	res := s.uploadMenu(ctx, kind, local, name, ".jpg")
	if s.metrics != nil {
		s.metrics.ObserveUpload(kind, res.Status.String())
	}
	return res
}

// download fetches the attachment bytes and spools them locally. An empty
// payload counts as a failed download.
func (s *UploadService) download(ctx context.Context, fileID, name string) (string, error) {
	data, err := s.fetcher.Fetch(ctx, fileID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrDownloadFailed.Code, appErrors.ErrDownloadFailed.Message)
	}
	if len(data) == 0 {
		return "", appErrors.ErrDownloadFailed
	}

	local, err := s.spool.Save(name, data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrDownloadFailed.Code, appErrors.ErrDownloadFailed.Message)
	}
	return local, nil
}

func (s *UploadService) uploadMenu(ctx context.Context, kind models.FileKind, local, displayName, ext string) Result {
	sess, err := s.dialer.Open(ctx)
	if err != nil {
		return s.fail(kind, appErrors.Wrap(err, appErrors.ErrConnectFailed.Code, appErrors.ErrConnectFailed.Message))
	}
	defer sess.Close() //nolint:errcheck

	remotePath := s.cfg.RemoteDir + s.cfg.MenuBaseName + ext
	if err := s.store(sess, remotePath, local); err != nil {
		return s.fail(kind, err)
	}
	if err := s.index.PublishMenuRecord(sess, remotePath, displayName); err != nil {
		// The menu file is already stored; the stale record is surfaced,
		// not rolled back.
		return s.fail(kind, err)
	}

	s.logger.Info("menu uploaded", zap.String("name", displayName), zap.String("remote_path", remotePath))
	return Result{Status: StatusSuccess, Kind: kind}
}

func (s *UploadService) uploadTable(ctx context.Context, local string) Result {
	const kind = models.KindTableFile

	sess, err := s.dialer.Open(ctx)
	if err != nil {
		return s.fail(kind, appErrors.Wrap(err, appErrors.ErrConnectFailed.Code, appErrors.ErrConnectFailed.Message))
	}
	defer sess.Close() //nolint:errcheck

	remotePath := s.cfg.RemoteDir + local
	if err := s.store(sess, remotePath, local); err != nil {
		return s.fail(kind, err)
	}
	if err := s.index.RebuildTableIndex(sess); err != nil {
		// Same accepted window as the menu path: file stored, index stale.
		return s.fail(kind, err)
	}

	s.logger.Info("table uploaded", zap.String("name", local))
	return Result{Status: StatusSuccess, Kind: kind}
}

func (s *UploadService) store(sess StoreSession, remotePath, local string) error {
	f, err := s.spool.Open(local)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Message)
	}
	defer f.Close() //nolint:errcheck

	if err := sess.Upload(remotePath, f); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Message)
	}
	return nil
}

func (s *UploadService) discard(local string) {
	if err := s.spool.Delete(local); err != nil {
		s.logger.Warn("could not remove spool file", zap.String("name", local), zap.Error(err))
	}
}

func (s *UploadService) fail(kind models.FileKind, err error) Result {
	e := appErrors.FromError(err)
	s.logger.Error("upload attempt failed",
		zap.String("kind", kind.String()),
		zap.String("code", e.Code),
		zap.Error(err),
	)
	return Result{Status: StatusError, Kind: kind, Message: e.Message, Err: e}
}
