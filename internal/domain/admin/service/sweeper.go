package service

import (
	"time"

	"community_hub/internal/domain/admin/model"
	"community_hub/internal/domain/admin/repository"
	profileModel "community_hub/internal/domain/profile/model"
	"community_hub/pkg/logger"

	"go.uber.org/zap"
)

// ModerationSweeper 定时把过期的处罚翻成不生效
// 行本身不删，审计历史只追加
type ModerationSweeper struct {
	repo     repository.AdminRepository
	interval time.Duration
	stop     chan struct{}
}

func NewModerationSweeper(repo repository.AdminRepository, interval time.Duration) *ModerationSweeper {
	return &ModerationSweeper{
		repo:     repo,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *ModerationSweeper) Start() {
	go s.loop()
	logger.Log.Info("moderation sweeper started", zap.Duration("interval", s.interval))
}

func (s *ModerationSweeper) Stop() {
	close(s.stop)
}

func (s *ModerationSweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *ModerationSweeper) sweep() {
	rows, err := s.repo.DeactivateExpired(time.Now())
	if err != nil {
		logger.Log.Error("deactivate expired moderation failed", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}
	logger.Log.Info("expired moderation deactivated", zap.Int("rows", len(rows)))

	// 过期的封禁把账号状态翻回正常，除非同一用户还有别的封禁生效
	seen := make(map[string]struct{})
	for _, row := range rows {
		if row.ActionType != model.ActionBan {
			continue
		}
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}

		still, err := s.repo.HasActiveModeration(row.UserID, model.ActionBan)
		if err != nil {
			logger.Log.Error("moderation lookup failed", zap.String("userId", row.UserID), zap.Error(err))
			continue
		}
		if still {
			continue
		}
		if err := s.repo.SetAccountStatus(row.UserID, profileModel.StatusNormal); err != nil {
			logger.Log.Error("restore account status failed", zap.String("userId", row.UserID), zap.Error(err))
		}
	}
}
