package jobs

import (
	"context"
	"encoding/json"
	"time"

	leaderboardDto "anoa.com/karmafeed/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/karmafeed/internal/modules/leaderboard/service"
	"github.com/redis/go-redis/v9"
)

// LeaderboardBroadcaster publishes the current leaderboard to Redis so every
// server instance can fan it out to its websocket clients.
type LeaderboardBroadcaster struct {
	service     leaderboardService.LeaderboardService
	rdb         *redis.Client
	schedule    string
	windowHours int
	limit       int
	now         func() time.Time
}

func NewLeaderboardBroadcaster(service leaderboardService.LeaderboardService, rdb *redis.Client, schedule string, windowHours, limit int) *LeaderboardBroadcaster {
	return &LeaderboardBroadcaster{
		service:     service,
		rdb:         rdb,
		schedule:    schedule,
		windowHours: windowHours,
		limit:       limit,
		now:         time.Now,
	}
}

func (b *LeaderboardBroadcaster) Name() string     { return "leaderboard-broadcast" }
func (b *LeaderboardBroadcaster) Schedule() string { return b.schedule }

func (b *LeaderboardBroadcaster) Execute(ctx context.Context) error {
	entries, err := b.service.GetLeaderboard(ctx, b.windowHours, b.limit)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(leaderboardDto.LeaderboardSnapshot{
		WindowHours: b.windowHours,
		Leaderboard: entries,
		GeneratedAt: b.now().UTC(),
	})
	if err != nil {
		return err
	}

	return b.rdb.Publish(ctx, leaderboardService.UpdatesChannel, payload).Err()
}
