package http

import (
	"net/http"
	"strconv"

	ledgerDto "planetpulse.com/gamification/internal/modules/ledger/dto"
	ledgerService "planetpulse.com/gamification/internal/modules/ledger/service"
	"planetpulse.com/gamification/pkg/apperror"
	"planetpulse.com/gamification/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LedgerHandler struct {
	service ledgerService.LedgerService
}

func NewLedgerHandler(service ledgerService.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// GetUserTransactions returns a user's own point history.
func (h *LedgerHandler) GetUserTransactions(c *gin.Context) {
	callerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.Invalid("user_id must be a uuid"))
		return
	}
	if userID != callerID {
		response.ResponseError(c, apperror.ErrForbidden)
		return
	}

	limitStr := c.DefaultQuery("limit", strconv.Itoa(ledgerService.DefaultListLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		response.ResponseError(c, apperror.Invalid("limit must be a number"))
		return
	}

	transactions, err := h.service.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ledgerDto.NewTransactionResponses(transactions)})
}

// SyncAchievements re-runs achievement evaluation for a user, for example
// after the catalog changed.
func (h *LedgerHandler) SyncAchievements(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.Invalid("user_id must be a uuid"))
		return
	}

	unlocked, err := h.service.SyncAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ledgerDto.NewAchievementsUnlocked(unlocked)})
}
