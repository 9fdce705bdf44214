package service

import (
	"context"

	"github.com/xhrome/foodbot/internal/models"
)

// StatusService answers "what is currently published" from the live index.
type StatusService struct {
	index publishedIndex
}

// NewStatusService constructs the service.
func NewStatusService(index publishedIndex) *StatusService {
	return &StatusService{index: index}
}

// LastMenu returns the currently published menu record.
func (s *StatusService) LastMenu(ctx context.Context) (*models.Menu, error) {
	return s.index.Menu(ctx)
}

// LastTable returns the published table file with the greatest name, or nil
// when none are published. Table names embed dates, so the greatest name is
// the most recent one.
func (s *StatusService) LastTable(ctx context.Context) (*models.FoodFile, error) {
	files, err := s.index.TableFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	last := files[0]
	for _, f := range files[1:] {
		if f.Name > last.Name {
			last = f
		}
	}
	return &last, nil
}
