package dto

import "github.com/google/uuid"

type LikeAction string

const (
	ActionCreated        LikeAction = "created"
	ActionRemoved        LikeAction = "removed"
	ActionAlreadyExists  LikeAction = "already_exists"
	ActionAlreadyRemoved LikeAction = "already_removed"
)

// LikeOutcome is the result of a like, unlike or toggle. Races and repeats
// end up here as Success=false, never as errors.
type LikeOutcome struct {
	Success    bool       `json:"success"`
	Action     LikeAction `json:"action"`
	KarmaDelta int        `json:"karma_delta"`
}

type ToggleLikeRequest struct {
	TargetType string `json:"target_type" binding:"required,oneof=post comment"`
	TargetID   string `json:"target_id" binding:"required,uuid"`
}

type LikedStateResponse struct {
	PostLiked       bool        `json:"post_liked"`
	LikedCommentIDs []uuid.UUID `json:"liked_comment_ids"`
}
