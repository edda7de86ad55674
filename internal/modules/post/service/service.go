package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"anoa.com/karmafeed/internal/entity"
	commentRepo "anoa.com/karmafeed/internal/modules/comment/repository"
	commentService "anoa.com/karmafeed/internal/modules/comment/service"
	likeService "anoa.com/karmafeed/internal/modules/like/service"
	postDto "anoa.com/karmafeed/internal/modules/post/dto"
	postRepo "anoa.com/karmafeed/internal/modules/post/repository"
	search "anoa.com/karmafeed/internal/modules/search/service"
	"anoa.com/karmafeed/pkg/apperror"
	"anoa.com/karmafeed/pkg/dto"
	"anoa.com/karmafeed/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
)

const (
	rateLimitAction  = "post"
	minTitleLength   = 3
	maxTitleLength   = 300
	minContentLength = 10
)

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error)
	GetFeed(ctx context.Context, query postDto.FeedQuery) (*postDto.FeedResponse, error)
	// GetPostDetail returns the post with its comment tree. Liked flags are
	// filled in only for a known viewer.
	GetPostDetail(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*postDto.PostDetailResponse, error)
}

type postService struct {
	postRepo    postRepo.PostRepository
	commentRepo commentRepo.CommentRepository
	likeService likeService.LikeService
	search      search.SearchService
	limiter     *ratelimiter.Limiter
	cooldown    time.Duration
	content     *bluemonday.Policy
	title       *bluemonday.Policy
}

// NewPostService wires the post use cases. search may be nil when no
// search backend is configured.
func NewPostService(
	postRepo postRepo.PostRepository,
	commentRepo commentRepo.CommentRepository,
	likeService likeService.LikeService,
	search search.SearchService,
	limiter *ratelimiter.Limiter,
	cooldown time.Duration,
) PostService {
	return &postService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		likeService: likeService,
		search:      search,
		limiter:     limiter,
		cooldown:    cooldown,
		content:     bluemonday.UGCPolicy(),
		title:       bluemonday.StrictPolicy(),
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error) {
	// titles are plain text; entities escaped by the policy are decoded so
	// the stored length matches what the user typed
	title := strings.TrimSpace(html.UnescapeString(s.title.Sanitize(req.Title)))
	content := strings.TrimSpace(s.content.Sanitize(req.Content))
	if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be between %d and %d characters", apperror.ErrInvalidInput, minTitleLength, maxTitleLength)
	}
	if utf8.RuneCountInString(content) < minContentLength {
		return nil, fmt.Errorf("%w: content must be at least %d characters", apperror.ErrInvalidInput, minContentLength)
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

	post := &entity.Post{
		AuthorID: userID,
		Title:    title,
		Content:  content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	created = true

	reloaded, err := s.postRepo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"post_id":   post.ID,
		"author_id": userID,
	}).Info("post created")

	if s.search != nil {
		if err := s.search.IndexPost(reloaded); err != nil {
			log.WithError(err).WithField("post_id", post.ID).Warn("failed to index post")
		}
	}

	resp := toPostResponse(reloaded)
	return &resp, nil
}

func (s *postService) GetFeed(ctx context.Context, query postDto.FeedQuery) (*postDto.FeedResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = postDto.DefaultFeedLimit
	}
	if limit > postDto.MaxFeedLimit {
		limit = postDto.MaxFeedLimit
	}

	var after *postRepo.FeedCursor
	if query.Cursor != "" {
		cursor, err := decodeCursor(query.Cursor)
		if err != nil {
			return nil, err
		}
		after = cursor
	}

	// one extra row tells us whether another page exists
	posts, err := s.postRepo.ListFeed(ctx, after, limit+1)
	if err != nil {
		return nil, err
	}

	var next *string
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		encoded := encodeCursor(postRepo.FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		next = &encoded
	}

	data := make([]postDto.PostResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, toPostResponse(p))
	}

	return &postDto.FeedResponse{
		Data: data,
		Meta: dto.CursorMeta{NextCursor: next, Limit: limit},
	}, nil
}

func (s *postService) GetPostDetail(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*postDto.PostDetailResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.FindByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	resp := &postDto.PostDetailResponse{
		Post:            toPostResponse(post),
		Comments:        commentService.BuildCommentTree(comments),
		LikedCommentIDs: []uuid.UUID{},
	}

	if viewerID != nil {
		commentIDs := make([]uuid.UUID, 0, len(comments))
		for _, c := range comments {
			commentIDs = append(commentIDs, c.ID)
		}

		state, err := s.likeService.LikedState(ctx, *viewerID, postID, commentIDs)
		if err != nil {
			return nil, err
		}
		resp.UserLiked = state.PostLiked
		resp.LikedCommentIDs = state.LikedCommentIDs
	}

	return resp, nil
}

func toPostResponse(post *entity.Post) postDto.PostResponse {
	return postDto.PostResponse{
		ID:      post.ID,
		Title:   post.Title,
		Content: post.Content,
		Author: dto.AuthorResponse{
			ID:       post.AuthorID,
			Username: post.Author.Username,
		},
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		CreatedAt:    post.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    post.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
