package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"anoa.com/karmafeed/internal/bootstrap"
	"anoa.com/karmafeed/internal/config"
	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/database"
	"anoa.com/karmafeed/pkg/logger"
	"anoa.com/karmafeed/pkg/ratelimiter"

	commentDto "anoa.com/karmafeed/internal/modules/comment/dto"
	commentRepo "anoa.com/karmafeed/internal/modules/comment/repository"
	commentService "anoa.com/karmafeed/internal/modules/comment/service"
	contentRepo "anoa.com/karmafeed/internal/modules/content/repository"
	counterRepo "anoa.com/karmafeed/internal/modules/counter/repository"
	karmaRepo "anoa.com/karmafeed/internal/modules/karma/repository"
	likeRepo "anoa.com/karmafeed/internal/modules/like/repository"
	likeService "anoa.com/karmafeed/internal/modules/like/service"
	postDto "anoa.com/karmafeed/internal/modules/post/dto"
	postRepo "anoa.com/karmafeed/internal/modules/post/repository"
	postService "anoa.com/karmafeed/internal/modules/post/service"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// seed fills a development database with users, posts, comment threads and
// likes. Everything goes through the services so counters and the karma
// ledger stay consistent.
func main() {
	users := flag.Int("users", 5, "number of demo users")
	posts := flag.Int("posts", 10, "number of posts")
	comments := flag.Int("comments", 4, "comments per post")
	likeRatio := flag.Float64("like-ratio", 0.5, "chance that a user likes a given post or comment")
	flag.Parse()

	if *users < 1 {
		log.Fatal("-users must be at least 1")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	usernames := make([]string, *users)
	for i := range usernames {
		usernames[i] = fmt.Sprintf("demo_%02d", i+1)
	}
	seeded, err := bootstrap.SeedUsers(db, usernames)
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}

	likes := likeRepo.NewLikeRepository(db)
	counters := counterRepo.NewCounterRepository(db)
	comRepo := commentRepo.NewCommentRepository(db)
	// A limiter without redis never throttles, which is what a bulk seed wants.
	limiter := ratelimiter.New(nil)

	likeSvc := likeService.NewLikeService(db, likes, karmaRepo.NewLedgerRepository(db), counters,
		contentRepo.NewTargetDirectory(db), likeService.WithWeights(cfg.KarmaWeights()))
	postSvc := postService.NewPostService(postRepo.NewPostRepository(db), comRepo, likeSvc, nil, limiter, 0)
	commentSvc := commentService.NewCommentService(db, comRepo, counters, likes, limiter, 0)

	ctx := context.Background()
	var likeCount int

	for i := 0; i < *posts; i++ {
		author := seeded[rand.Intn(len(seeded))]
		post, err := postSvc.CreatePost(ctx, author.ID, postDto.CreatePostRequest{
			Title:   fmt.Sprintf("Demo post number %d", i+1),
			Content: fmt.Sprintf("Seeded content for post %d by %s.", i+1, author.Username),
		})
		if err != nil {
			log.Fatalf("create post: %v", err)
		}

		var commentIDs []uuid.UUID
		for j := 0; j < *comments; j++ {
			req := commentDto.CreateCommentRequest{Content: fmt.Sprintf("Comment %d on post %d", j+1, i+1)}
			if len(commentIDs) > 0 && rand.Intn(2) == 0 {
				req.ParentID = commentIDs[rand.Intn(len(commentIDs))].String()
			}
			commenter := seeded[rand.Intn(len(seeded))]
			comment, err := commentSvc.CreateComment(ctx, commenter.ID, post.ID, req)
			if err != nil {
				log.Fatalf("create comment: %v", err)
			}
			commentIDs = append(commentIDs, comment.ID)
		}

		targets := []entity.Target{entity.PostTarget(post.ID)}
		for _, id := range commentIDs {
			targets = append(targets, entity.CommentTarget(id))
		}
		for _, user := range seeded {
			for _, target := range targets {
				if rand.Float64() >= *likeRatio {
					continue
				}
				if _, err := likeSvc.LikeTarget(ctx, user.ID, target); err != nil {
					log.Fatalf("like %s: %v", target, err)
				}
				likeCount++
			}
		}
	}

	log.WithFields(log.Fields{
		"users":    len(seeded),
		"posts":    *posts,
		"comments": *posts * *comments,
		"likes":    likeCount,
		"password": bootstrap.DemoPassword,
	}).Info("seed completed")
}
