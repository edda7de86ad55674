package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/internal/middleware"
	karmaRepo "anoa.com/karmafeed/internal/modules/karma/repository"
	leaderboardDto "anoa.com/karmafeed/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/karmafeed/internal/modules/leaderboard/service"
	userRepo "anoa.com/karmafeed/internal/modules/user/repository"
	"anoa.com/karmafeed/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var defaults = QueryDefaults{WindowHours: 24, Limit: 5, MaxWindowHours: 168, MaxLimit: 100}

type fixture struct {
	db     *gorm.DB
	ledger karmaRepo.LedgerRepository
	auth   *middleware.AuthMiddleware
	router *gin.Engine
	mr     *miniredis.Miniredis
	actor  *entity.User
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	ledger := karmaRepo.NewLedgerRepository(db)
	svc := leaderboardService.NewLeaderboardService(ledger, userRepo.NewUserRepository(db), leaderboardService.DefaultLimits, testutil.FixedClock(now))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewLeaderboardHandler(svc, rdb, defaults)
	auth := middleware.NewAuthMiddleware("test-secret")

	r := gin.New()
	api := r.Group("/api")
	api.GET("/leaderboard", auth.OptionalAuth(), h.GetLeaderboard)
	api.GET("/leaderboard/ws", h.Stream)
	api.GET("/users/:user_id/karma", h.GetUserStanding)

	return &fixture{
		db:     db,
		ledger: ledger,
		auth:   auth,
		router: r,
		mr:     mr,
		actor:  testutil.CreateUser(t, db, "actor"),
		now:    now,
	}
}

func (f *fixture) give(t *testing.T, recipient uuid.UUID, delta int, ago time.Duration) {
	t.Helper()
	require.NoError(t, f.ledger.Append(context.Background(), &entity.KarmaEvent{
		RecipientID: recipient,
		ActorID:     f.actor.ID,
		Kind:        entity.KarmaPostLiked,
		Delta:       delta,
		TargetKind:  entity.TargetPost,
		TargetID:    uuid.New(),
		CreatedAt:   f.now.Add(-ago),
	}))
}

func (f *fixture) get(t *testing.T, path, token string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestGetLeaderboard(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	f.give(t, alice.ID, 10, time.Hour)
	f.give(t, bob.ID, 5, 30*time.Hour)

	// GIVEN no query, the defaults apply
	var resp leaderboardDto.LeaderboardResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/leaderboard", "", &resp))
	assert.Equal(t, 24, resp.TimeWindowHours)
	require.Len(t, resp.Leaderboard, 1)
	assert.Equal(t, "alice", resp.Leaderboard[0].Username)
	assert.Nil(t, resp.UserStats)

	// GIVEN out of range values, they are clamped
	resp = leaderboardDto.LeaderboardResponse{}
	require.Equal(t, http.StatusOK, f.get(t, "/api/leaderboard?hours=100000&limit=1", "", &resp))
	assert.Equal(t, 168, resp.TimeWindowHours)
	require.Len(t, resp.Leaderboard, 1)

	// GIVEN an authenticated caller, their own stats are attached
	token, err := f.auth.IssueToken(bob.ID, time.Hour)
	require.NoError(t, err)
	resp = leaderboardDto.LeaderboardResponse{}
	require.Equal(t, http.StatusOK, f.get(t, "/api/leaderboard?hours=48", token, &resp))
	require.NotNil(t, resp.UserStats)
	assert.Equal(t, bob.ID, resp.UserStats.UserID)
	assert.Equal(t, 5, resp.UserStats.Karma)
	require.NotNil(t, resp.UserStats.Rank)
	assert.Equal(t, 2, *resp.UserStats.Rank)

	// malformed params fall back to the defaults instead of failing
	resp = leaderboardDto.LeaderboardResponse{}
	require.Equal(t, http.StatusOK, f.get(t, "/api/leaderboard?hours=abc&limit=lots", "", &resp))
	assert.Equal(t, 24, resp.TimeWindowHours)
	assert.Len(t, resp.Leaderboard, 1)
}

func TestGetUserStanding(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	f.give(t, alice.ID, 60, 30*time.Hour)

	var standing leaderboardDto.UserStanding
	require.Equal(t, http.StatusOK, f.get(t, "/api/users/"+alice.ID.String()+"/karma", "", &standing))
	assert.Equal(t, 24, standing.WindowHours)
	assert.Zero(t, standing.Karma)
	assert.Nil(t, standing.Rank)
	assert.Equal(t, 60, standing.AllTimeKarma)
	assert.Equal(t, "Regular", standing.Tier.TierName)

	standing = leaderboardDto.UserStanding{}
	require.Equal(t, http.StatusOK, f.get(t, "/api/users/"+alice.ID.String()+"/karma?all_time=true", "", &standing))
	assert.Equal(t, 0, standing.WindowHours)
	assert.Equal(t, 60, standing.Karma)

	standing = leaderboardDto.UserStanding{}
	require.Equal(t, http.StatusOK, f.get(t, "/api/users/"+alice.ID.String()+"/karma?hours=soon&all_time=maybe", "", &standing))
	assert.Equal(t, 24, standing.WindowHours)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/users/"+uuid.NewString()+"/karma", "", nil))
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/users/nope/karma", "", nil))
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/leaderboard/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return f.mr.PubSubNumSub(leaderboardService.UpdatesChannel)[leaderboardService.UpdatesChannel] > 0
	}, 2*time.Second, 10*time.Millisecond)

	payload := `{"time_window_hours":24,"leaderboard":[]}`
	f.mr.Publish(leaderboardService.UpdatesChannel, payload)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(msg))
}

func TestStream_WithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLeaderboardHandler(nil, nil, defaults)
	r := gin.New()
	r.GET("/ws", h.Stream)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 24, clamp(0, 24, 168))
	assert.Equal(t, 24, clamp(-3, 24, 168))
	assert.Equal(t, 12, clamp(12, 24, 168))
	assert.Equal(t, 168, clamp(500, 24, 168))
}
