package dto

import (
	commonDto "anoa.com/karmafeed/pkg/dto"
	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	ParentID string `json:"parent_id" binding:"omitempty,uuid"`
}

type CommentResponse struct {
	ID        uuid.UUID                `json:"id"`
	PostID    uuid.UUID                `json:"post_id"`
	ParentID  *uuid.UUID               `json:"parent_id,omitempty"`
	Content   string                   `json:"content"`
	Author    commonDto.AuthorResponse `json:"author"`
	LikeCount int64                    `json:"like_count"`
	Depth     int                      `json:"depth"`
	Replies   []*CommentResponse       `json:"replies"`
	CreatedAt string                   `json:"created_at"`
}

type DeleteCommentResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}
