// services/match_service.go
package services

import (
	"time"

	"github.com/wfunc/chairs/game"
	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/models"
	"github.com/wfunc/chairs/persistence"
)

// MatchService 把房间吐出的对局结果转成存储记录并落盘，
// 实现 room.MatchRecorder。落盘失败只记日志，不影响游戏进行。
type MatchService struct {
	store persistence.Store
}

func NewMatchService(store persistence.Store) *MatchService {
	return &MatchService{store: store}
}

func (s *MatchService) RecordMatch(roomID string, winners []game.PlayerView, reason string,
	playerCount, seatCount int, duration time.Duration) {
	record := &models.MatchRecord{
		RoomID:      roomID,
		Reason:      reason,
		PlayerCount: playerCount,
		SeatCount:   seatCount,
		Duration:    duration,
		FinishedAt:  time.Now(),
	}
	for _, w := range winners {
		record.Winners = append(record.Winners, models.WinnerInfo{PlayerID: w.ID, Name: w.Name})
	}

	if err := s.store.SaveMatch(record); err != nil {
		logger.Log.Errorf("保存对局记录失败 (房间 %s): %v", roomID, err)
		return
	}
	logger.Log.Infof("对局记录已保存: 房间 %s, %d 名获胜者, 原因 %q", roomID, len(record.Winners), reason)
}

// RecentMatches 最近结束的对局
func (s *MatchService) RecentMatches(limit int) ([]models.MatchRecord, error) {
	return s.store.RecentMatches(limit)
}

// TopWinners 获胜榜
func (s *MatchService) TopWinners(limit int) ([]models.WinnerCount, error) {
	return s.store.TopWinners(limit)
}
