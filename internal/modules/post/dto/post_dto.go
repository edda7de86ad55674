package dto

import (
	commentDto "anoa.com/karmafeed/internal/modules/comment/dto"
	commonDto "anoa.com/karmafeed/pkg/dto"
	"github.com/google/uuid"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
)

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=300"`
	Content string `json:"content" binding:"required,min=10,max=20000"`
}

type PostResponse struct {
	ID           uuid.UUID                `json:"id"`
	Title        string                   `json:"title"`
	Content      string                   `json:"content"`
	Author       commonDto.AuthorResponse `json:"author"`
	LikeCount    int64                    `json:"like_count"`
	CommentCount int64                    `json:"comment_count"`
	CreatedAt    string                   `json:"created_at"`
	UpdatedAt    string                   `json:"updated_at"`
}

type FeedQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type FeedResponse struct {
	Data []PostResponse       `json:"data"`
	Meta commonDto.CursorMeta `json:"meta"`
}

type PostDetailResponse struct {
	Post            PostResponse                  `json:"post"`
	Comments        []*commentDto.CommentResponse `json:"comments"`
	UserLiked       bool                          `json:"user_liked"`
	LikedCommentIDs []uuid.UUID                   `json:"liked_comment_ids"`
}
