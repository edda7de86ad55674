package service

import (
	"context"
	"fmt"
	"time"

	leaderboardDto "anoa.com/karmafeed/internal/modules/leaderboard/dto"
	karmaRepo "anoa.com/karmafeed/internal/modules/karma/repository"
	userRepo "anoa.com/karmafeed/internal/modules/user/repository"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
)

const (
	// AllTime disables the window for GetUserKarma and GetUserRank.
	AllTime = 0

	DefaultWindowHours = 24
	DefaultLimit       = 5
	MaxWindowHours     = 168
	MaxLimit           = 100
	RecentEventsLimit  = 10

	// UpdatesChannel is the Redis pub/sub channel carrying leaderboard
	// snapshots for live subscribers.
	UpdatesChannel = "leaderboard:updates"
)

type Limits struct {
	MaxWindowHours int
	MaxLimit       int
}

var DefaultLimits = Limits{MaxWindowHours: MaxWindowHours, MaxLimit: MaxLimit}

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, windowHours, limit int) ([]leaderboardDto.LeaderboardEntry, error)
	GetUserKarma(ctx context.Context, userID uuid.UUID, windowHours int) (int, error)
	// GetUserRank is 1 + the number of users with strictly more karma in the
	// window, or nil when the user's windowed karma is exactly zero.
	GetUserRank(ctx context.Context, userID uuid.UUID, windowHours int) (*int, error)
	GetUserStanding(ctx context.Context, userID uuid.UUID, windowHours int) (*leaderboardDto.UserStanding, error)
}

type leaderboardService struct {
	ledger   karmaRepo.LedgerRepository
	userRepo userRepo.UserRepository
	limits   Limits
	now      func() time.Time
}

func NewLeaderboardService(ledger karmaRepo.LedgerRepository, userRepo userRepo.UserRepository, limits Limits, now func() time.Time) LeaderboardService {
	if now == nil {
		now = time.Now
	}
	return &leaderboardService{
		ledger:   ledger,
		userRepo: userRepo,
		limits:   limits,
		now:      now,
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, windowHours, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	if windowHours < 1 || windowHours > s.limits.MaxWindowHours {
		return nil, fmt.Errorf("%w: hours must be between 1 and %d", apperror.ErrInvalidWindow, s.limits.MaxWindowHours)
	}
	if limit < 1 || limit > s.limits.MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", apperror.ErrInvalidLimit, s.limits.MaxLimit)
	}

	totals, err := s.ledger.SumByRecipient(ctx, s.cutoff(windowHours), limit)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(totals))
	for i, row := range totals {
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			UserID:     row.RecipientID,
			Username:   row.Username,
			TotalKarma: row.Total,
			Rank:       i + 1,
		})
	}
	return entries, nil
}

func (s *leaderboardService) GetUserKarma(ctx context.Context, userID uuid.UUID, windowHours int) (int, error) {
	if err := s.validateUserWindow(windowHours); err != nil {
		return 0, err
	}
	return s.ledger.SumForRecipient(ctx, userID, s.cutoff(windowHours))
}

func (s *leaderboardService) GetUserRank(ctx context.Context, userID uuid.UUID, windowHours int) (*int, error) {
	if err := s.validateUserWindow(windowHours); err != nil {
		return nil, err
	}

	since := s.cutoff(windowHours)
	karma, err := s.ledger.SumForRecipient(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if karma == 0 {
		return nil, nil
	}

	ahead, err := s.ledger.CountRecipientsAbove(ctx, since, karma)
	if err != nil {
		return nil, err
	}

	rank := int(ahead) + 1
	return &rank, nil
}

func (s *leaderboardService) GetUserStanding(ctx context.Context, userID uuid.UUID, windowHours int) (*leaderboardDto.UserStanding, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	karma, err := s.GetUserKarma(ctx, userID, windowHours)
	if err != nil {
		return nil, err
	}
	rank, err := s.GetUserRank(ctx, userID, windowHours)
	if err != nil {
		return nil, err
	}

	allTime := karma
	if windowHours != AllTime {
		allTime, err = s.GetUserKarma(ctx, userID, AllTime)
		if err != nil {
			return nil, err
		}
	}

	events, err := s.ledger.ListByRecipient(ctx, userID, s.cutoff(windowHours), RecentEventsLimit)
	if err != nil {
		return nil, err
	}
	recent := make([]leaderboardDto.KarmaEventEntry, 0, len(events))
	for _, e := range events {
		recent = append(recent, leaderboardDto.KarmaEventEntry{
			ActorID:    e.ActorID,
			EventType:  string(e.Kind),
			KarmaDelta: e.Delta,
			TargetType: string(e.TargetKind),
			TargetID:   e.TargetID,
			CreatedAt:  e.CreatedAt.UTC(),
		})
	}

	return &leaderboardDto.UserStanding{
		UserID:        user.ID,
		Username:      user.Username,
		WindowHours:   windowHours,
		Karma:         karma,
		Rank:          rank,
		AllTimeKarma:  allTime,
		ActivityLabel: GetActivityLabel(karma),
		Tier:          GetKarmaTier(allTime),
		RecentEvents:  recent,
	}, nil
}

// cutoff is the start of a rolling window ending now. AllTime yields the
// zero time, which the ledger treats as unbounded.
func (s *leaderboardService) cutoff(windowHours int) time.Time {
	if windowHours == AllTime {
		return time.Time{}
	}
	return s.now().UTC().Add(-time.Duration(windowHours) * time.Hour)
}

func (s *leaderboardService) validateUserWindow(windowHours int) error {
	if windowHours < 0 {
		return fmt.Errorf("%w: hours must not be negative", apperror.ErrInvalidWindow)
	}
	return nil
}
