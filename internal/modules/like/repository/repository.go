package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/apperror"
	"anoa.com/karmafeed/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLikeExists is returned by Insert when the unique (user, target) index
// rejects the row.
var ErrLikeExists = errors.New("like already exists")

type LikeRepository interface {
	WithTx(tx *gorm.DB) LikeRepository
	Insert(ctx context.Context, like *entity.Like) error
	Delete(ctx context.Context, userID uuid.UUID, target entity.Target) (bool, error)
	Exists(ctx context.Context, userID uuid.UUID, target entity.Target) (bool, error)
	LikedTargetIDs(ctx context.Context, userID uuid.UUID, kind entity.TargetKind, targetIDs []uuid.UUID) ([]uuid.UUID, error)
	DeleteByTargets(ctx context.Context, kind entity.TargetKind, targetIDs []uuid.UUID) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) WithTx(tx *gorm.DB) LikeRepository {
	return &likeRepository{db: tx}
}

func (r *likeRepository) Insert(ctx context.Context, like *entity.Like) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(like).Error
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return ErrLikeExists
	case database.IsConstraintViolation(err):
		return fmt.Errorf("%w: insert like: %v", apperror.ErrDataIntegrity, err)
	}
	return err
}

// Delete hard-deletes the like and reports whether a row was removed.
func (r *likeRepository) Delete(ctx context.Context, userID uuid.UUID, target entity.Target) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind, target.ID).
		Delete(&entity.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID uuid.UUID, target entity.Target) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Like{}).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind, target.ID).
		Count(&count).Error
	return count > 0, err
}

// LikedTargetIDs returns the subset of targetIDs of the given kind that the
// user currently likes.
func (r *likeRepository) LikedTargetIDs(ctx context.Context, userID uuid.UUID, kind entity.TargetKind, targetIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(targetIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	liked := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&entity.Like{}).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", userID, kind, targetIDs).
		Pluck("target_id", &liked).Error
	return liked, err
}

// DeleteByTargets removes every like on the given targets, whoever left it.
// The ledger is untouched: removing content does not take karma back.
func (r *likeRepository) DeleteByTargets(ctx context.Context, kind entity.TargetKind, targetIDs []uuid.UUID) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Where("target_kind = ? AND target_id IN ?", kind, targetIDs).
		Delete(&entity.Like{})
	return res.RowsAffected, res.Error
}
