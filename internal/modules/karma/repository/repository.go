package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/apperror"
	"anoa.com/karmafeed/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrZeroDelta = errors.New("karma event delta must not be zero")

// RecipientTotal is one row of the grouped ledger sum.
type RecipientTotal struct {
	RecipientID uuid.UUID
	Username    string
	Total       int
}

// LedgerRepository is the append-only store of karma events. There is
// deliberately no update or delete. A zero since means no lower bound.
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository
	Append(ctx context.Context, event *entity.KarmaEvent) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, since time.Time, limit int) ([]entity.KarmaEvent, error)
	SumByRecipient(ctx context.Context, since time.Time, limit int) ([]RecipientTotal, error)
	SumForRecipient(ctx context.Context, recipientID uuid.UUID, since time.Time) (int, error)
	CountRecipientsAbove(ctx context.Context, since time.Time, total int) (int64, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: tx}
}

func (r *ledgerRepository) Append(ctx context.Context, event *entity.KarmaEvent) error {
	if event.Delta == 0 {
		return ErrZeroDelta
	}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error
	if err != nil && database.IsConstraintViolation(err) {
		return fmt.Errorf("%w: append karma event: %v", apperror.ErrDataIntegrity, err)
	}
	return err
}

func (r *ledgerRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, since time.Time, limit int) ([]entity.KarmaEvent, error) {
	var events []entity.KarmaEvent
	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Order("id DESC")
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since.UTC())
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// SumByRecipient groups the ledger by recipient, highest total first. Equal
// totals are ordered by recipient id so the result is deterministic.
func (r *ledgerRepository) SumByRecipient(ctx context.Context, since time.Time, limit int) ([]RecipientTotal, error) {
	var totals []RecipientTotal
	query := r.db.WithContext(ctx).
		Table("karma_events AS ke").
		Select("ke.recipient_id AS recipient_id, u.username AS username, SUM(ke.delta) AS total").
		Joins("JOIN users u ON u.id = ke.recipient_id").
		Group("ke.recipient_id, u.username").
		Order("total DESC").
		Order("ke.recipient_id ASC")
	if !since.IsZero() {
		query = query.Where("ke.created_at >= ?", since.UTC())
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *ledgerRepository) SumForRecipient(ctx context.Context, recipientID uuid.UUID, since time.Time) (int, error) {
	var total int
	query := r.db.WithContext(ctx).Model(&entity.KarmaEvent{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("recipient_id = ?", recipientID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since.UTC())
	}

	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountRecipientsAbove counts recipients whose summed delta is strictly
// greater than total.
func (r *ledgerRepository) CountRecipientsAbove(ctx context.Context, since time.Time, total int) (int64, error) {
	sub := r.db.WithContext(ctx).Model(&entity.KarmaEvent{}).
		Select("recipient_id").
		Group("recipient_id").
		Having("SUM(delta) > ?", total)
	if !since.IsZero() {
		sub = sub.Where("created_at >= ?", since.UTC())
	}

	var count int64
	if err := r.db.WithContext(ctx).Table("(?) AS ranked", sub).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
