package repository

import (
	"context"
	"errors"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TargetDirectory answers the two questions the like engine needs about a
// piece of content: does it exist, and who wrote it.
type TargetDirectory interface {
	Exists(ctx context.Context, target entity.Target) (bool, error)
	Owner(ctx context.Context, target entity.Target) (uuid.UUID, error)
}

type targetDirectory struct {
	db *gorm.DB
}

func NewTargetDirectory(db *gorm.DB) TargetDirectory {
	return &targetDirectory{db: db}
}

func (d *targetDirectory) Exists(ctx context.Context, target entity.Target) (bool, error) {
	_, err := d.Owner(ctx, target)
	if errors.Is(err, apperror.ErrTargetNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (d *targetDirectory) Owner(ctx context.Context, target entity.Target) (uuid.UUID, error) {
	var model any
	switch target.Kind {
	case entity.TargetPost:
		model = &entity.Post{}
	case entity.TargetComment:
		model = &entity.Comment{}
	default:
		return uuid.Nil, apperror.ErrInvalidTargetKind
	}

	var row struct {
		AuthorID uuid.UUID
	}
	err := d.db.WithContext(ctx).Model(model).
		Select("author_id").
		Where("id = ?", target.ID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, apperror.ErrTargetNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return row.AuthorID, nil
}
