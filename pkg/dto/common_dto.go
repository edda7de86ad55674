package dto

import "github.com/google/uuid"

type AuthorResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type CursorMeta struct {
	NextCursor *string `json:"next_cursor"`
	Limit      int     `json:"limit"`
}

// KarmaTierStatus describes where an all-time karma total sits on the tier
// ladder.
type KarmaTierStatus struct {
	TierName     string  `json:"tier_name"`
	NextTier     string  `json:"next_tier"`
	CurrentKarma int     `json:"current_karma"`
	TargetKarma  int     `json:"target_karma"`
	Progress     float64 `json:"progress"`
}
