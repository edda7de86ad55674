package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KarmaEventKind string

const (
	KarmaPostLiked      KarmaEventKind = "POST_LIKED"
	KarmaCommentLiked   KarmaEventKind = "COMMENT_LIKED"
	KarmaPostUnliked    KarmaEventKind = "POST_UNLIKED"
	KarmaCommentUnliked KarmaEventKind = "COMMENT_UNLIKED"
)

var ErrImmutableKarmaEvent = errors.New("karma events are append-only")

// KarmaEvent is one immutable entry of the karma ledger. A user's karma is
// the sum of Delta over their events and nothing else.
type KarmaEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RecipientID uuid.UUID      `gorm:"type:uuid;not null;index:idx_karma_recipient_created,priority:1;index:idx_karma_created_recipient,priority:2" json:"recipient_id"`
	Recipient   User           `gorm:"foreignKey:RecipientID" json:"-"`
	ActorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"actor_id"`
	Actor       User           `gorm:"foreignKey:ActorID" json:"-"`
	Kind        KarmaEventKind `gorm:"size:20;not null" json:"event_type"`
	Delta       int            `gorm:"not null" json:"karma_delta"`
	TargetKind  TargetKind     `gorm:"size:20;not null" json:"target_type"`
	TargetID    uuid.UUID      `gorm:"type:uuid;not null" json:"target_id"`
	CreatedAt   time.Time      `gorm:"not null;index:idx_karma_created_recipient,priority:1;index:idx_karma_recipient_created,priority:2" json:"created_at"`
}

func (e *KarmaEvent) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableKarmaEvent
}

func (e *KarmaEvent) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableKarmaEvent
}

// KarmaWeights holds the delta a like is worth per target kind. The applied
// value is stored on each event, so changing weights never rewrites history.
type KarmaWeights struct {
	PostLike    int
	CommentLike int
}

var DefaultKarmaWeights = KarmaWeights{PostLike: 5, CommentLike: 1}

func (w KarmaWeights) For(kind TargetKind) int {
	switch kind {
	case TargetPost:
		return w.PostLike
	case TargetComment:
		return w.CommentLike
	}
	return 0
}

func LikedEventKind(kind TargetKind) KarmaEventKind {
	if kind == TargetComment {
		return KarmaCommentLiked
	}
	return KarmaPostLiked
}

func UnlikedEventKind(kind TargetKind) KarmaEventKind {
	if kind == TargetComment {
		return KarmaCommentUnliked
	}
	return KarmaPostUnliked
}
