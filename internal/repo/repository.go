package repo

import (
	"context"

	"github.com/hamed0406/botscope/internal/domain"
)

// TargetStore is the registry's persistence port. SaveAll replaces the whole
// stored set; LoadAll returns it in saved order. A store that has never been
// written returns an empty slice and no error.
type TargetStore interface {
	LoadAll(ctx context.Context) ([]domain.Target, error)
	SaveAll(ctx context.Context, targets []domain.Target) error
}
