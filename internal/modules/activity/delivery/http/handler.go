package http

import (
	"net/http"

	"planetpulse.com/gamification/internal/entity"
	activityDto "planetpulse.com/gamification/internal/modules/activity/dto"
	activityService "planetpulse.com/gamification/internal/modules/activity/service"
	ledgerDto "planetpulse.com/gamification/internal/modules/ledger/dto"
	"planetpulse.com/gamification/pkg/apperror"
	"planetpulse.com/gamification/pkg/response"
	"planetpulse.com/gamification/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActivityHandler receives content events from the service that owns posts,
// likes and comments.
type ActivityHandler struct {
	service activityService.ActivityService
}

func NewActivityHandler(service activityService.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) PostCreated(c *gin.Context) {
	var req activityDto.PostCreatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Invalid(validator.FormatValidationError(err)))
		return
	}

	unlocked, err := h.service.OnPostCreated(c.Request.Context(), req.AuthorID, req.PostID, req.Title)
	respond(c, unlocked, err)
}

func (h *ActivityHandler) LikeGiven(c *gin.Context) {
	var req activityDto.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Invalid(validator.FormatValidationError(err)))
		return
	}

	unlocked, err := h.service.OnLikeGiven(c.Request.Context(), req.UserID, req.PostID, req.PostAuthorID)
	respond(c, unlocked, err)
}

func (h *ActivityHandler) LikeRemoved(c *gin.Context) {
	var req activityDto.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Invalid(validator.FormatValidationError(err)))
		return
	}

	unlocked, err := h.service.OnLikeRemoved(c.Request.Context(), req.UserID, req.PostID, req.PostAuthorID)
	respond(c, unlocked, err)
}

func (h *ActivityHandler) CommentGiven(c *gin.Context) {
	var req activityDto.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Invalid(validator.FormatValidationError(err)))
		return
	}

	unlocked, err := h.service.OnCommentGiven(c.Request.Context(), req.UserID, req.PostID, req.PostAuthorID)
	respond(c, unlocked, err)
}

func (h *ActivityHandler) Bonus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.Invalid("user_id must be a uuid"))
		return
	}

	var req activityDto.BonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Invalid(validator.FormatValidationError(err)))
		return
	}

	unlocked, err := h.service.AwardBonus(c.Request.Context(), userID, req.Reason)
	respond(c, unlocked, err)
}

func respond(c *gin.Context, unlocked []entity.Achievement, err error) {
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":               "success",
		"achievements_unlocked": ledgerDto.NewAchievementsUnlocked(unlocked),
	})
}
