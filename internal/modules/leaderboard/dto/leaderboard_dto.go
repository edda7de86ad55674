package dto

import (
	"time"

	commonDto "anoa.com/karmafeed/pkg/dto"
	"github.com/google/uuid"
)

// LeaderboardEntry is one row of the leaderboard. Rank is the 1-based
// position in the returned list.
type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	TotalKarma int       `json:"total_karma"`
	Rank       int       `json:"rank"`
}

type UserStats struct {
	UserID uuid.UUID `json:"user_id"`
	Karma  int       `json:"karma"`
	Rank   *int      `json:"rank"`
}

type LeaderboardResponse struct {
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	TimeWindowHours int                `json:"time_window_hours"`
	UserStats       *UserStats         `json:"user_stats,omitempty"`
}

// KarmaEventEntry is one ledger row as shown in a user's recent history.
type KarmaEventEntry struct {
	ActorID    uuid.UUID `json:"actor_id"`
	EventType  string    `json:"event_type"`
	KarmaDelta int       `json:"karma_delta"`
	TargetType string    `json:"target_type"`
	TargetID   uuid.UUID `json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserStanding summarizes a user's karma: windowed karma and rank, the
// all-time tier and the latest ledger events inside the window.
type UserStanding struct {
	UserID        uuid.UUID                 `json:"user_id"`
	Username      string                    `json:"username"`
	WindowHours   int                       `json:"window_hours"`
	Karma         int                       `json:"karma"`
	Rank          *int                      `json:"rank"`
	AllTimeKarma  int                       `json:"all_time_karma"`
	ActivityLabel string                    `json:"activity_label"`
	Tier          commonDto.KarmaTierStatus `json:"tier"`
	RecentEvents  []KarmaEventEntry         `json:"recent_events"`
}

// LeaderboardSnapshot is what gets pushed to live subscribers.
type LeaderboardSnapshot struct {
	WindowHours int                `json:"time_window_hours"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	GeneratedAt time.Time          `json:"generated_at"`
}
