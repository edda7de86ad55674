package repository

import (
	"context"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CounterRepository maintains the denormalized display counters. Every
// change is a single relative UPDATE; values are never read back or
// recomputed here.
type CounterRepository interface {
	WithTx(tx *gorm.DB) CounterRepository
	AdjustLikeCount(ctx context.Context, target entity.Target, delta int) error
	AdjustCommentCount(ctx context.Context, postID uuid.UUID, delta int) error
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) WithTx(tx *gorm.DB) CounterRepository {
	return &counterRepository{db: tx}
}

func (r *counterRepository) AdjustLikeCount(ctx context.Context, target entity.Target, delta int) error {
	var model any
	switch target.Kind {
	case entity.TargetPost:
		model = &entity.Post{}
	case entity.TargetComment:
		model = &entity.Comment{}
	default:
		return apperror.ErrInvalidTargetKind
	}

	return r.adjust(ctx, model, target.ID, "like_count", delta)
}

func (r *counterRepository) AdjustCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	return r.adjust(ctx, &entity.Post{}, postID, "comment_count", delta)
}

func (r *counterRepository) adjust(ctx context.Context, model any, id uuid.UUID, column string, delta int) error {
	res := r.db.WithContext(ctx).Model(model).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrTargetNotFound
	}
	return nil
}
