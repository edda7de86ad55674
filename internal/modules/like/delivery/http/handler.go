package handler

import (
	"context"
	"net/http"
	"strings"

	"anoa.com/karmafeed/internal/entity"
	likeDto "anoa.com/karmafeed/internal/modules/like/dto"
	likeService "anoa.com/karmafeed/internal/modules/like/service"
	"anoa.com/karmafeed/pkg/response"
	"anoa.com/karmafeed/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LikeHandler struct {
	service likeService.LikeService
}

func NewLikeHandler(service likeService.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) Toggle(c *gin.Context) {
	var req likeDto.ToggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	kind, err := entity.ParseTargetKind(req.TargetType)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return
	}

	h.respond(c, entity.Target{Kind: kind, ID: targetID}, h.service.Toggle)
}

func (h *LikeHandler) LikePost(c *gin.Context) {
	h.handleParam(c, "post_id", entity.PostTarget, h.service.LikeTarget)
}

func (h *LikeHandler) UnlikePost(c *gin.Context) {
	h.handleParam(c, "post_id", entity.PostTarget, h.service.UnlikeTarget)
}

func (h *LikeHandler) LikeComment(c *gin.Context) {
	h.handleParam(c, "comment_id", entity.CommentTarget, h.service.LikeTarget)
}

func (h *LikeHandler) UnlikeComment(c *gin.Context) {
	h.handleParam(c, "comment_id", entity.CommentTarget, h.service.UnlikeTarget)
}

type likeOp func(ctx context.Context, actorID uuid.UUID, target entity.Target) (*likeDto.LikeOutcome, error)

func (h *LikeHandler) handleParam(c *gin.Context, param string, target func(uuid.UUID) entity.Target, op likeOp) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + strings.ReplaceAll(param, "_", " ")})
		return
	}
	h.respond(c, target(id), op)
}

func (h *LikeHandler) respond(c *gin.Context, target entity.Target, op likeOp) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	outcome, err := op(c.Request.Context(), userID, target)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}
