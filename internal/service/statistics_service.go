package service

import (
	"context"
	"time"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"gorm.io/gorm"
)

type LevelQueueStats struct {
	Level        string  `json:"level"`
	PendingItems int64   `json:"pending_items"`
	OldestAgeHrs float64 `json:"oldest_age_hours"`
}

type WingQueueStats struct {
	WingID       string `json:"wing_id"`
	WingName     string `json:"wing_name"`
	PendingItems int64  `json:"pending_items"`
}

type DashboardStats struct {
	TotalRequests     int64             `json:"total_requests"`
	ApprovedRequests  int64             `json:"approved_requests"`
	RejectedRequests  int64             `json:"rejected_requests"`
	OpenVerifications int64             `json:"open_verifications"`
	QueueByLevel      []LevelQueueStats `json:"queue_by_level"`
	QueueByWing       []WingQueueStats  `json:"queue_by_wing"`
}

type StatisticsService interface {
	GetDashboard(ctx context.Context) (DashboardStats, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetDashboard aggregates workflow queue depth and age. Stalled items are
// surfaced here for humans to chase; nothing escalates automatically.
func (s *statisticsService) GetDashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	s.db.WithContext(ctx).Model(&model.IssuanceRequest{}).
		Count(&stats.TotalRequests)
	s.db.WithContext(ctx).Model(&model.IssuanceRequest{}).
		Where("status IN ?", []string{model.RequestStatusApproved, model.RequestStatusPartiallyApproved}).
		Count(&stats.ApprovedRequests)
	s.db.WithContext(ctx).Model(&model.IssuanceRequest{}).
		Where("status = ?", model.RequestStatusRejected).
		Count(&stats.RejectedRequests)
	s.db.WithContext(ctx).Model(&model.VerificationTask{}).
		Where("status = ?", model.VerificationForwarded).
		Count(&stats.OpenVerifications)

	for _, level := range []string{model.LevelSupervisor, model.LevelAdmin} {
		entry := LevelQueueStats{Level: level}
		s.db.WithContext(ctx).Model(&model.RequestItem{}).
			Where("decision_type = ? AND current_level = ?", model.DecisionPending, level).
			Count(&entry.PendingItems)

		var oldest struct {
			CreatedAt *time.Time
		}
		s.db.WithContext(ctx).Model(&model.RequestItem{}).
			Select("MIN(created_at) as created_at").
			Where("decision_type = ? AND current_level = ?", model.DecisionPending, level).
			Scan(&oldest)
		if oldest.CreatedAt != nil {
			entry.OldestAgeHrs = time.Since(*oldest.CreatedAt).Hours()
		}
		stats.QueueByLevel = append(stats.QueueByLevel, entry)
	}

	var wingRows []WingQueueStats
	s.db.WithContext(ctx).Table("request_items").
		Select("wings.id as wing_id, wings.name as wing_name, COUNT(request_items.id) as pending_items").
		Joins("JOIN issuance_requests ON issuance_requests.id = request_items.request_id").
		Joins("JOIN wings ON wings.id = issuance_requests.wing_id").
		Where("request_items.decision_type = ? AND request_items.current_level = ?", model.DecisionPending, model.LevelSupervisor).
		Group("wings.id, wings.name").
		Order("pending_items DESC").
		Scan(&wingRows)
	stats.QueueByWing = wingRows

	return stats, nil
}
