package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like records that a user currently likes a target. The unique index on
// (user_id, target_kind, target_id) is what keeps concurrent likes from
// producing duplicates.
type Like struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_target,priority:1" json:"user_id"`
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TargetKind TargetKind `gorm:"size:20;not null;uniqueIndex:idx_likes_user_target,priority:2;index:idx_likes_target,priority:1" json:"target_type"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_target,priority:3;index:idx_likes_target,priority:2" json:"target_id"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

func (l *Like) Target() Target {
	return Target{Kind: l.TargetKind, ID: l.TargetID}
}
