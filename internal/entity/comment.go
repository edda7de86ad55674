package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCommentDepth is the deepest reply level allowed; root comments are 0.
const MaxCommentDepth = 10

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	Post      *Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author    User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Parent    *Comment   `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	LikeCount int64      `gorm:"not null;default:0" json:"like_count"`
	Depth     int        `gorm:"not null;default:0" json:"depth"`
	CreatedAt time.Time  `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
