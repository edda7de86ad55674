package service

import (
	"html"
	"strings"

	"anoa.com/karmafeed/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
)

const postsIndex = "posts"

// SearchService keeps the full-text index of posts in step with the
// database. Indexing is best effort; callers log failures and move on.
type SearchService interface {
	IndexPost(post *entity.Post) error
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"author_id"}
	if _, err := s.client.Index(postsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.WithError(err).Warn("failed to update posts filterable attributes")
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(postsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.WithError(err).Warn("failed to update posts sortable attributes")
	}

	log.Info("meilisearch indexes initialized")
}

type postDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	AuthorID  string `json:"author_id"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"created_at"`
}

func (s *meiliSearchService) IndexPost(post *entity.Post) error {
	doc := buildPostDoc(s.sanitizer, post)

	primaryKey := "id"
	task, err := s.client.Index(postsIndex).AddDocuments([]postDoc{doc}, &primaryKey)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"post_id": post.ID,
		"task_id": task.TaskUID,
	}).Debug("indexed post")
	return nil
}

func buildPostDoc(sanitizer *bluemonday.Policy, post *entity.Post) postDoc {
	return postDoc{
		ID:        post.ID.String(),
		Title:     cleanContentForIndex(sanitizer, post.Title),
		Content:   cleanContentForIndex(sanitizer, post.Content),
		AuthorID:  post.AuthorID.String(),
		Author:    post.Author.Username,
		CreatedAt: post.CreatedAt.Unix(),
	}
}

// cleanContentForIndex strips markup down to plain words separated by
// single spaces.
func cleanContentForIndex(sanitizer *bluemonday.Policy, content string) string {
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</div>"} {
		content = strings.ReplaceAll(content, tag, " ")
	}

	clean := html.UnescapeString(sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(clean), " ")
}
