package service

import (
	"time"

	"anoa.com/karmafeed/internal/entity"
	commentDto "anoa.com/karmafeed/internal/modules/comment/dto"
	"anoa.com/karmafeed/pkg/dto"
	"github.com/google/uuid"
)

func ToCommentResponse(comment *entity.Comment) *commentDto.CommentResponse {
	return &commentDto.CommentResponse{
		ID:       comment.ID,
		PostID:   comment.PostID,
		ParentID: comment.ParentID,
		Content:  comment.Content,
		Author: dto.AuthorResponse{
			ID:       comment.AuthorID,
			Username: comment.Author.Username,
		},
		LikeCount: comment.LikeCount,
		Depth:     comment.Depth,
		Replies:   []*commentDto.CommentResponse{},
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// BuildCommentTree nests a post's comments under their parents in one pass.
// Input order is kept among siblings. A comment whose parent is not in the
// list becomes a root.
func BuildCommentTree(comments []*entity.Comment) []*commentDto.CommentResponse {
	nodes := make(map[uuid.UUID]*commentDto.CommentResponse, len(comments))
	for _, c := range comments {
		nodes[c.ID] = ToCommentResponse(c)
	}

	roots := []*commentDto.CommentResponse{}
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
