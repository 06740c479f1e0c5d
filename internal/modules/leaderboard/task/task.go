package task

import (
	"context"
	"fmt"

	leaderboardService "planetpulse.com/gamification/internal/modules/leaderboard/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeLeaderboardRebuild = "leaderboard:rebuild"

// NewRebuildTask builds the periodic rebuild task. A failed run is not
// retried; the next tick rebuilds anyway.
func NewRebuildTask() *asynq.Task {
	return asynq.NewTask(TypeLeaderboardRebuild, nil,
		asynq.Queue("default"),
		asynq.MaxRetry(0),
	)
}

type RebuildHandler struct {
	service leaderboardService.LeaderboardService
	log     *zap.Logger
}

func NewRebuildHandler(service leaderboardService.LeaderboardService, log *zap.Logger) *RebuildHandler {
	return &RebuildHandler{service: service, log: log.Named("leaderboard.task")}
}

func (h *RebuildHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	monthYear, err := h.service.RebuildCurrentMonth(ctx)
	if err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}
	h.log.Debug("scheduled rebuild finished", zap.String("month_year", monthYear))
	return nil
}

func Register(mux *asynq.ServeMux, h *RebuildHandler) {
	mux.Handle(TypeLeaderboardRebuild, h)
}
