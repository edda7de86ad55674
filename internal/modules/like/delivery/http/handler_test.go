package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/internal/middleware"
	contentRepo "anoa.com/karmafeed/internal/modules/content/repository"
	counterRepo "anoa.com/karmafeed/internal/modules/counter/repository"
	karmaRepo "anoa.com/karmafeed/internal/modules/karma/repository"
	likeDto "anoa.com/karmafeed/internal/modules/like/dto"
	likeRepo "anoa.com/karmafeed/internal/modules/like/repository"
	likeService "anoa.com/karmafeed/internal/modules/like/service"
	"anoa.com/karmafeed/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	token  string
	post   *entity.Post
	author *entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	svc := likeService.NewLikeService(
		db,
		likeRepo.NewLikeRepository(db),
		karmaRepo.NewLedgerRepository(db),
		counterRepo.NewCounterRepository(db),
		contentRepo.NewTargetDirectory(db),
	)
	h := NewLikeHandler(svc)
	auth := middleware.NewAuthMiddleware("test-secret")

	r := gin.New()
	api := r.Group("/api", auth.RequireAuth())
	api.POST("/likes/toggle", h.Toggle)
	api.POST("/posts/:post_id/like", h.LikePost)
	api.DELETE("/posts/:post_id/like", h.UnlikePost)
	api.POST("/comments/:comment_id/like", h.LikeComment)
	api.DELETE("/comments/:comment_id/like", h.UnlikeComment)

	author := testutil.CreateUser(t, db, "alice")
	liker := testutil.CreateUser(t, db, "bob")
	token, err := auth.IssueToken(liker.ID, time.Hour)
	require.NoError(t, err)

	return &fixture{
		router: r,
		token:  token,
		post:   testutil.CreatePost(t, db, author.ID),
		author: author,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, likeDto.LikeOutcome) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var outcome likeDto.LikeOutcome
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	}
	return w, outcome
}

func TestLikeAndUnlikePost(t *testing.T) {
	f := newFixture(t)
	path := "/api/posts/" + f.post.ID.String() + "/like"

	w, outcome := f.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, likeDto.LikeOutcome{Success: true, Action: likeDto.ActionCreated, KarmaDelta: 5}, outcome)

	_, outcome = f.do(t, http.MethodPost, path, "")
	assert.Equal(t, likeDto.LikeOutcome{Success: false, Action: likeDto.ActionAlreadyExists}, outcome)

	_, outcome = f.do(t, http.MethodDelete, path, "")
	assert.Equal(t, likeDto.LikeOutcome{Success: true, Action: likeDto.ActionRemoved, KarmaDelta: -5}, outcome)
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	body := `{"target_type":"post","target_id":"` + f.post.ID.String() + `"}`

	_, outcome := f.do(t, http.MethodPost, "/api/likes/toggle", body)
	assert.Equal(t, likeDto.ActionCreated, outcome.Action)

	_, outcome = f.do(t, http.MethodPost, "/api/likes/toggle", body)
	assert.Equal(t, likeDto.ActionRemoved, outcome.Action)
}

func TestErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad post id", http.MethodPost, "/api/posts/nope/like", "", http.StatusBadRequest},
		{"missing post", http.MethodPost, "/api/posts/" + uuid.NewString() + "/like", "", http.StatusNotFound},
		{"missing comment", http.MethodDelete, "/api/comments/" + uuid.NewString() + "/like", "", http.StatusNotFound},
		{"bad target type", http.MethodPost, "/api/likes/toggle", `{"target_type":"thread","target_id":"` + uuid.NewString() + `"}`, http.StatusBadRequest},
		{"missing target id", http.MethodPost, "/api/likes/toggle", `{"target_type":"post"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRequiresAuth(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/"+f.post.ID.String()+"/like", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
