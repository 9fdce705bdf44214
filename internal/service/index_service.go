package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhrome/foodbot/internal/models"
	appErrors "github.com/xhrome/foodbot/pkg/errors"
)

const (
	// listTimeFormat renders listing mod times into the table index. The
	// format sorts lexicographically, which food.js relies on.
	listTimeFormat = "2006-01-02T15:04:05"
	// menuTimeFormat is the human-facing upload timestamp in menu.json.
	menuTimeFormat = "02-01-2006 15:04:05"
)

// IndexServiceConfig pins the remote layout of the published artifacts.
type IndexServiceConfig struct {
	RemoteDir      string
	MenuJSONName   string
	TableIndexName string
	TableSuffix    string
	TimeZone       string
}

// IndexService regenerates the JSON metadata documents the website consumes.
// The table index is always rebuilt from a fresh remote listing, never from
// cached state.
type IndexService struct {
	dialer  StoreDialer
	metrics *MetricsService
	logger  *zap.Logger
	cfg     IndexServiceConfig
	loc     *time.Location
	now     func() time.Time
}

// NewIndexService constructs the service with defaults matching the
// website's expectations.
func NewIndexService(dialer StoreDialer, metrics *MetricsService, logger *zap.Logger, cfg IndexServiceConfig) *IndexService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/food/"
	}
	if cfg.MenuJSONName == "" {
		cfg.MenuJSONName = "menu.json"
	}
	if cfg.TableIndexName == "" {
		cfg.TableIndexName = "food_files.json"
	}
	if cfg.TableSuffix == "" {
		cfg.TableSuffix = "-sm.xlsx"
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown time zone, falling back to UTC", zap.String("zone", cfg.TimeZone))
		loc = time.UTC
	}
	return &IndexService{
		dialer:  dialer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		loc:     loc,
		now:     time.Now,
	}
}

// RebuildTableIndex lists the remote directory and overwrites the table
// index document inside the caller's session. Failure to write the index is
// a hard error for the calling operation: the website depends on this file
// being current.
func (s *IndexService) RebuildTableIndex(sess StoreSession) error {
	entries, err := sess.List(s.cfg.RemoteDir)
	if err != nil {
		s.observeRebuild("error")
		return appErrors.Wrap(err, appErrors.ErrIndexWrite.Code, "could not list the published tables")
	}

	files := s.tableFiles(entries)
	payload, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		s.observeRebuild("error")
		return appErrors.Wrap(err, appErrors.ErrIndexWrite.Code, appErrors.ErrIndexWrite.Message)
	}

	if err := sess.Upload(s.cfg.RemoteDir+s.cfg.TableIndexName, bytes.NewReader(payload)); err != nil {
		s.observeRebuild("error")
		return appErrors.Wrap(err, appErrors.ErrIndexWrite.Code, "could not update the table index file")
	}

	s.observeRebuild("ok")
	s.logger.Info("table index rebuilt", zap.Int("files", len(files)))
	return nil
}

// PublishMenuRecord overwrites menu.json with a record pointing at
// remotePath. The path gets a wall-clock query suffix so browsers never
// serve a stale menu from cache.
func (s *IndexService) PublishMenuRecord(sess StoreSession, remotePath, displayName string) error {
	now := s.now()
	menu := models.Menu{
		Path:                 fmt.Sprintf("%s?%d", remotePath, now.UnixMilli()),
		Name:                 displayName,
		LastModificationDate: now.In(s.loc).Format(menuTimeFormat),
	}

	payload, err := json.MarshalIndent(menu, "", "  ")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrIndexWrite.Code, appErrors.ErrIndexWrite.Message)
	}

	if err := sess.Upload(s.cfg.RemoteDir+s.cfg.MenuJSONName, bytes.NewReader(payload)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrIndexWrite.Code, "could not update the menu metadata file")
	}

	s.logger.Info("menu record published", zap.String("name", displayName))
	return nil
}

// LastStoredTable reports the newest table file on the store, or nil when
// none exist. Always a fresh listing.
func (s *IndexService) LastStoredTable(ctx context.Context) (*models.FoodFile, error) {
	sess, err := s.dialer.Open(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConnectFailed.Code, appErrors.ErrConnectFailed.Message)
	}
	defer sess.Close() //nolint:errcheck

	entry, err := s.lastTableEntry(sess)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	file := s.toFoodFile(*entry)
	return &file, nil
}

// DeleteLastTable removes the most recently modified table file and rebuilds
// the index. An empty listing reports not-found without deleting anything.
// Returns the deleted file name.
func (s *IndexService) DeleteLastTable(ctx context.Context) (string, error) {
	name, err := s.deleteLastTable(ctx)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			s.observeDelete("not_found")
		} else {
			s.observeDelete("error")
		}
		return "", err
	}
	s.observeDelete("ok")
	return name, nil
}

func (s *IndexService) deleteLastTable(ctx context.Context) (string, error) {
	sess, err := s.dialer.Open(ctx)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrConnectFailed.Code, appErrors.ErrConnectFailed.Message)
	}
	defer sess.Close() //nolint:errcheck

	entry, err := s.lastTableEntry(sess)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", appErrors.ErrNotFound
	}

	if err := sess.Delete(s.cfg.RemoteDir + entry.Name); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrDeleteFailed.Code, appErrors.ErrDeleteFailed.Message)
	}
	s.logger.Info("table file deleted", zap.String("name", entry.Name))

	if err := s.RebuildTableIndex(sess); err != nil {
		return "", err
	}
	return entry.Name, nil
}

// Refresh rebuilds the table index in a session of its own. Backs the
// update_json command and repairs the index after a partial failure.
func (s *IndexService) Refresh(ctx context.Context) error {
	sess, err := s.dialer.Open(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrConnectFailed.Code, appErrors.ErrConnectFailed.Message)
	}
	defer sess.Close() //nolint:errcheck

	return s.RebuildTableIndex(sess)
}

func (s *IndexService) lastTableEntry(sess StoreSession) (*models.RemoteFile, error) {
	entries, err := sess.List(s.cfg.RemoteDir)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, "could not list the published tables")
	}

	tables := make([]models.RemoteFile, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name, s.cfg.TableSuffix) {
			tables = append(tables, e)
		}
	}
	if len(tables) == 0 {
		return nil, nil
	}

	sort.Slice(tables, func(i, j int) bool {
		if tables[i].ModTime.Equal(tables[j].ModTime) {
			return tables[i].Name < tables[j].Name
		}
		return tables[i].ModTime.Before(tables[j].ModTime)
	})
	last := tables[len(tables)-1]
	return &last, nil
}

func (s *IndexService) tableFiles(entries []models.RemoteFile) []models.FoodFile {
	files := make([]models.FoodFile, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Name, s.cfg.TableSuffix) {
			continue
		}
		files = append(files, s.toFoodFile(e))
	}
	return files
}

func (s *IndexService) toFoodFile(e models.RemoteFile) models.FoodFile {
	return models.FoodFile{
		Name:                 e.Name,
		Path:                 s.cfg.RemoteDir + e.Name,
		LastModificationDate: e.ModTime.Format(listTimeFormat),
	}
}

func (s *IndexService) observeRebuild(result string) {
	if s.metrics != nil {
		s.metrics.ObserveIndexRebuild(result)
	}
}

func (s *IndexService) observeDelete(result string) {
	if s.metrics != nil {
		s.metrics.ObserveDelete(result)
	}
}
