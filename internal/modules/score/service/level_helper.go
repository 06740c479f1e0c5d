package service

import (
	"math"

	scoreDto "planetpulse.com/gamification/internal/modules/score/dto"
)

// LevelFor returns floor(points / perLevel) + 1. Levels never drop below 1.
func LevelFor(points, perLevel int) int {
	if points <= 0 {
		return 1
	}
	return points/perLevel + 1
}

// GetLevelStatus calculates the level progress for a point total.
func GetLevelStatus(points, perLevel int) scoreDto.LevelStatus {
	level := LevelFor(points, perLevel)

	status := scoreDto.LevelStatus{
		Level:           level,
		CurrentPoints:   points,
		LevelFloor:      (level - 1) * perLevel,
		NextLevelPoints: level * perLevel,
	}
	status.PointsToNext = status.NextLevelPoints - points

	into := points - status.LevelFloor
	if into > 0 {
		status.Progress = float64(into) / float64(perLevel) * 100
	}

	// Round progress to 2 decimal places
	status.Progress = math.Round(status.Progress*100) / 100

	return status
}
