package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/karmafeed/internal/entity"
	commentDto "anoa.com/karmafeed/internal/modules/comment/dto"
	commentRepo "anoa.com/karmafeed/internal/modules/comment/repository"
	counterRepo "anoa.com/karmafeed/internal/modules/counter/repository"
	likeRepo "anoa.com/karmafeed/internal/modules/like/repository"
	"anoa.com/karmafeed/pkg/apperror"
	"anoa.com/karmafeed/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const rateLimitAction = "comment"

type CommentService interface {
	CreateComment(ctx context.Context, userID, postID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	// DeleteComment removes the comment with all of its replies and the
	// likes on them. Karma already granted for those likes stays.
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) (*commentDto.DeleteCommentResponse, error)
}

type commentService struct {
	db        *gorm.DB
	comments  commentRepo.CommentRepository
	counters  counterRepo.CounterRepository
	likes     likeRepo.LikeRepository
	limiter   *ratelimiter.Limiter
	cooldown  time.Duration
	sanitizer *bluemonday.Policy
}

func NewCommentService(
	db *gorm.DB,
	comments commentRepo.CommentRepository,
	counters counterRepo.CounterRepository,
	likes likeRepo.LikeRepository,
	limiter *ratelimiter.Limiter,
	cooldown time.Duration,
) CommentService {
	return &commentService{
		db:        db,
		comments:  comments,
		counters:  counters,
		likes:     likes,
		limiter:   limiter,
		cooldown:  cooldown,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *commentService) CreateComment(ctx context.Context, userID, postID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", apperror.ErrInvalidInput)
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		id, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid parent id", apperror.ErrBadRequest)
		}
		parentID = &id
	}

	if err := s.limiter.Allow(ctx, userID, rateLimitAction, s.cooldown); err != nil {
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			_ = s.limiter.Clear(ctx, userID, rateLimitAction)
		}
	}()

	comment := &entity.Comment{
		PostID:   postID,
		AuthorID: userID,
		Content:  content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			parent, err := s.comments.WithTx(tx).FindByID(ctx, *parentID)
			if errors.Is(err, apperror.ErrNotFound) {
				return fmt.Errorf("%w: parent comment not found", apperror.ErrBadRequest)
			}
			if err != nil {
				return err
			}
			if parent.PostID != postID {
				return fmt.Errorf("%w: parent comment belongs to another post", apperror.ErrBadRequest)
			}
			if parent.Depth+1 > entity.MaxCommentDepth {
				return fmt.Errorf("%w: replies are limited to %d levels", apperror.ErrBadRequest, entity.MaxCommentDepth)
			}
			comment.ParentID = &parent.ID
			comment.Depth = parent.Depth + 1
		}

		if err := s.counters.WithTx(tx).AdjustCommentCount(ctx, postID, 1); err != nil {
			if errors.Is(err, apperror.ErrTargetNotFound) {
				return fmt.Errorf("%w: post not found", apperror.ErrNotFound)
			}
			return err
		}
		return s.comments.WithTx(tx).Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	created = true

	log.WithFields(log.Fields{
		"comment_id": comment.ID,
		"post_id":    postID,
		"depth":      comment.Depth,
	}).Info("comment created")

	reloaded, err := s.comments.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return ToCommentResponse(reloaded), nil
}

func (s *commentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) (*commentDto.DeleteCommentResponse, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, fmt.Errorf("%w: you can only delete your own comment", apperror.ErrForbidden)
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := s.comments.WithTx(tx)

		ids, err := comments.SubtreeIDs(ctx, comment)
		if err != nil {
			return err
		}
		if _, err := s.likes.WithTx(tx).DeleteByTargets(ctx, entity.TargetComment, ids); err != nil {
			return err
		}
		if err := comments.DeleteByIDs(ctx, ids); err != nil {
			return err
		}
		if err := s.counters.WithTx(tx).AdjustCommentCount(ctx, comment.PostID, -len(ids)); err != nil {
			return err
		}

		removed = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"comment_id": commentID,
		"post_id":    comment.PostID,
		"removed":    removed,
	}).Info("comment deleted")

	return &commentDto.DeleteCommentResponse{
		Message: "comment deleted successfully",
		Removed: removed,
	}, nil
}
