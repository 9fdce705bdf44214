package service

import (
	"context"

	"github.com/xhrome/foodbot/internal/models"
	appErrors "github.com/xhrome/foodbot/pkg/errors"
)

type publishedIndex interface {
	Menu(ctx context.Context) (*models.Menu, error)
	TableFiles(ctx context.Context) ([]models.FoodFile, error)
}

// DuplicateChecker decides whether an artifact with the same name is already
// published, always against the live index rather than any local state.
type DuplicateChecker struct {
	index publishedIndex
}

// NewDuplicateChecker constructs the checker.
func NewDuplicateChecker(index publishedIndex) *DuplicateChecker {
	return &DuplicateChecker{index: index}
}

// AlreadyPublished reports whether filename is already live for the given
// kind. Name comparison is exact and case-sensitive.
func (c *DuplicateChecker) AlreadyPublished(ctx context.Context, kind models.FileKind, filename string) (bool, error) {
	switch kind {
	case models.KindMenuFile:
		menu, err := c.index.Menu(ctx)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrDuplicateCheck.Code, "could not check the last uploaded menu")
		}
		return menu.Name == filename, nil

	case models.KindTableFile:
		files, err := c.index.TableFiles(ctx)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrDuplicateCheck.Code, "could not check the last uploaded table")
		}
		for _, f := range files {
			if f.Name == filename {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, nil
	}
}
