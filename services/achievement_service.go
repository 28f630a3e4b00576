package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

// AchievementChecker запускается после верификации результата для каждого
// участника. Вызов best-effort.
type AchievementChecker interface {
	CheckAchievements(ctx context.Context, userID int) error
}

type achievementThreshold struct {
	Code    string
	Message string
	Reached func(models.PlayerStats) bool
}

var achievementThresholds = []achievementThreshold{
	{Code: "first_blood", Message: "First verified match played!", Reached: func(s models.PlayerStats) bool { return s.TotalMatches >= 1 }},
	{Code: "veteran", Message: "50 verified matches played", Reached: func(s models.PlayerStats) bool { return s.TotalMatches >= 50 }},
	{Code: "headhunter", Message: "100 total kills", Reached: func(s models.PlayerStats) bool { return s.TotalKills >= 100 }},
	{Code: "champion", Message: "10 match wins", Reached: func(s models.PlayerStats) bool { return s.TotalWins >= 10 }},
}

type statsAchievementChecker struct {
	userRepo repositories.UserRepository
	notifier Notifier
}

func NewStatsAchievementChecker(userRepo repositories.UserRepository, notifier Notifier) AchievementChecker {
	return &statsAchievementChecker{userRepo: userRepo, notifier: notifier}
}

// CheckAchievements re-reads the player's stats and notifies about every
// threshold currently met. Duplicate unlock suppression is delegated to the
// notification consumer.
func (c *statsAchievementChecker) CheckAchievements(ctx context.Context, userID int) error {
	user, err := c.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user %d for achievement check: %w", userID, err)
	}

	for _, threshold := range achievementThresholds {
		if !threshold.Reached(user.Stats) {
			continue
		}
		meta := models.NotificationMeta{"achievement": threshold.Code}
		if err := c.notifier.Dispatch(ctx, userID, "achievement_unlocked", threshold.Message, meta); err != nil {
			return err
		}
	}
	return nil
}
