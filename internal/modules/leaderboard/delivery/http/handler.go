package handler

import (
	"net/http"
	"strconv"

	leaderboardDto "anoa.com/karmafeed/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/karmafeed/internal/modules/leaderboard/service"
	"anoa.com/karmafeed/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// QueryDefaults bounds the window and size of leaderboard requests.
type QueryDefaults struct {
	WindowHours    int
	Limit          int
	MaxWindowHours int
	MaxLimit       int
}

type LeaderboardHandler struct {
	service     leaderboardService.LeaderboardService
	redisClient *redis.Client
	defaults    QueryDefaults
	upgrader    websocket.Upgrader
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService, redisClient *redis.Client, defaults QueryDefaults) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:     service,
		redisClient: redisClient,
		defaults:    defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS already restricts browsers on the REST side
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	hours := clamp(queryInt(c, "hours"), h.defaults.WindowHours, h.defaults.MaxWindowHours)
	limit := clamp(queryInt(c, "limit"), h.defaults.Limit, h.defaults.MaxLimit)
	ctx := c.Request.Context()

	entries, err := h.service.GetLeaderboard(ctx, hours, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp := leaderboardDto.LeaderboardResponse{
		Leaderboard:     entries,
		TimeWindowHours: hours,
	}

	if userID := response.OptionalUserID(c); userID != nil {
		karma, err := h.service.GetUserKarma(ctx, *userID, hours)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		rank, err := h.service.GetUserRank(ctx, *userID, hours)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		resp.UserStats = &leaderboardDto.UserStats{UserID: *userID, Karma: karma, Rank: rank}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *LeaderboardHandler) GetUserStanding(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	hours := leaderboardService.AllTime
	if allTime, _ := strconv.ParseBool(c.Query("all_time")); !allTime {
		hours = clamp(queryInt(c, "hours"), h.defaults.WindowHours, h.defaults.MaxWindowHours)
	}

	standing, err := h.service.GetUserStanding(c.Request.Context(), userID, hours)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, standing)
}

// Stream relays leaderboard snapshots published on Redis to a websocket
// client until either side goes away.
func (h *LeaderboardHandler) Stream(c *gin.Context) {
	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live leaderboard is not available"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, leaderboardService.UpdatesChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		log.WithError(err).Warn("failed to subscribe to leaderboard updates")
		return
	}
	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.WithError(err).Debug("leaderboard subscriber went away")
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// queryInt reads an integer query param. Missing or malformed values read
// as 0, which clamp turns into the default.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// clamp maps non-positive values to def and caps the rest at max.
func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
