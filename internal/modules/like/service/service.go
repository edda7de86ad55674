package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"anoa.com/karmafeed/internal/entity"
	contentRepo "anoa.com/karmafeed/internal/modules/content/repository"
	counterRepo "anoa.com/karmafeed/internal/modules/counter/repository"
	karmaRepo "anoa.com/karmafeed/internal/modules/karma/repository"
	likeDto "anoa.com/karmafeed/internal/modules/like/dto"
	likeRepo "anoa.com/karmafeed/internal/modules/like/repository"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LikeService interface {
	LikeTarget(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error)
	UnlikeTarget(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error)
	// Toggle reads the current state and then likes or unlikes. The read and
	// the write are not atomic; a concurrent flip ends as AlreadyExists or
	// AlreadyRemoved.
	Toggle(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error)
	LikedState(ctx context.Context, actorID uuid.UUID, postID uuid.UUID, commentIDs []uuid.UUID) (*likeDto.LikedStateResponse, error)
}

type Option func(*likeService)

func WithWeights(weights entity.KarmaWeights) Option {
	return func(s *likeService) {
		s.weights = weights
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *likeService) {
		s.now = now
	}
}

func WithTxOptions(opts ...*sql.TxOptions) Option {
	return func(s *likeService) {
		s.txOpts = opts
	}
}

type likeService struct {
	db        *gorm.DB
	likes     likeRepo.LikeRepository
	ledger    karmaRepo.LedgerRepository
	counters  counterRepo.CounterRepository
	directory contentRepo.TargetDirectory
	weights   entity.KarmaWeights
	now       func() time.Time
	txOpts    []*sql.TxOptions
}

func NewLikeService(
	db *gorm.DB,
	likes likeRepo.LikeRepository,
	ledger karmaRepo.LedgerRepository,
	counters counterRepo.CounterRepository,
	directory contentRepo.TargetDirectory,
	opts ...Option,
) LikeService {
	s := &likeService{
		db:        db,
		likes:     likes,
		ledger:    ledger,
		counters:  counters,
		directory: directory,
		weights:   entity.DefaultKarmaWeights,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *likeService) LikeTarget(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	recipientID, err := s.directory.Owner(ctx, target)
	if err != nil {
		return nil, err
	}

	delta := s.karmaDelta(actorID, recipientID, target.Kind)
	now := s.now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &entity.Like{
			UserID:     actorID,
			TargetKind: target.Kind,
			TargetID:   target.ID,
			CreatedAt:  now,
		}
		if err := s.likes.WithTx(tx).Insert(ctx, like); err != nil {
			return err
		}

		if delta != 0 {
			event := &entity.KarmaEvent{
				RecipientID: recipientID,
				ActorID:     actorID,
				Kind:        entity.LikedEventKind(target.Kind),
				Delta:       delta,
				TargetKind:  target.Kind,
				TargetID:    target.ID,
				CreatedAt:   now,
			}
			if err := s.ledger.WithTx(tx).Append(ctx, event); err != nil {
				return err
			}
		}

		return s.counters.WithTx(tx).AdjustLikeCount(ctx, target, 1)
	}, s.txOpts...)

	if errors.Is(err, likeRepo.ErrLikeExists) {
		log.WithFields(log.Fields{"actor_id": actorID, "target": target.String()}).Debug("like already exists")
		return &likeDto.LikeOutcome{Success: false, Action: likeDto.ActionAlreadyExists}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("like %s: %w", target, err)
	}

	log.WithFields(log.Fields{
		"actor_id":     actorID,
		"recipient_id": recipientID,
		"target":       target.String(),
		"karma_delta":  delta,
	}).Info("like created")

	return &likeDto.LikeOutcome{Success: true, Action: likeDto.ActionCreated, KarmaDelta: delta}, nil
}

func (s *likeService) UnlikeTarget(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	recipientID, err := s.directory.Owner(ctx, target)
	if err != nil {
		return nil, err
	}

	delta := s.karmaDelta(actorID, recipientID, target.Kind)
	now := s.now().UTC()

	removed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := s.likes.WithTx(tx).Delete(ctx, actorID, target)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}

		if delta != 0 {
			event := &entity.KarmaEvent{
				RecipientID: recipientID,
				ActorID:     actorID,
				Kind:        entity.UnlikedEventKind(target.Kind),
				Delta:       -delta,
				TargetKind:  target.Kind,
				TargetID:    target.ID,
				CreatedAt:   now,
			}
			if err := s.ledger.WithTx(tx).Append(ctx, event); err != nil {
				return err
			}
		}

		if err := s.counters.WithTx(tx).AdjustLikeCount(ctx, target, -1); err != nil {
			return err
		}
		removed = true
		return nil
	}, s.txOpts...)
	if err != nil {
		return nil, fmt.Errorf("unlike %s: %w", target, err)
	}

	if !removed {
		log.WithFields(log.Fields{"actor_id": actorID, "target": target.String()}).Debug("like already removed")
		return &likeDto.LikeOutcome{Success: false, Action: likeDto.ActionAlreadyRemoved}, nil
	}

	log.WithFields(log.Fields{
		"actor_id":     actorID,
		"recipient_id": recipientID,
		"target":       target.String(),
		"karma_delta":  -delta,
	}).Info("like removed")

	return &likeDto.LikeOutcome{Success: true, Action: likeDto.ActionRemoved, KarmaDelta: -delta}, nil
}

func (s *likeService) Toggle(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	liked, err := s.likes.Exists(ctx, actorID, target)
	if err != nil {
		return nil, fmt.Errorf("toggle %s: %w", target, err)
	}

	if liked {
		return s.UnlikeTarget(ctx, actorID, target)
	}
	return s.LikeTarget(ctx, actorID, target)
}

func (s *likeService) LikedState(ctx context.Context, actorID uuid.UUID, postID uuid.UUID, commentIDs []uuid.UUID) (*likeDto.LikedStateResponse, error) {
	postLiked, err := s.likes.Exists(ctx, actorID, entity.PostTarget(postID))
	if err != nil {
		return nil, err
	}

	likedComments, err := s.likes.LikedTargetIDs(ctx, actorID, entity.TargetComment, commentIDs)
	if err != nil {
		return nil, err
	}

	return &likeDto.LikedStateResponse{
		PostLiked:       postLiked,
		LikedCommentIDs: likedComments,
	}, nil
}

// karmaDelta is the weight a like on kind is worth to recipient, or 0 when
// the actor is liking their own content.
func (s *likeService) karmaDelta(actorID, recipientID uuid.UUID, kind entity.TargetKind) int {
	if actorID == recipientID {
		return 0
	}
	return s.weights.For(kind)
}
