package service

import (
	"context"

	"microfin/internal/repository"
)

type ActivityLogResponse struct {
	ID         string `json:"id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type ActivityService interface {
	GetActivityLogs(ctx context.Context, action string, page, limit int) ([]ActivityLogResponse, int64, error)
}

type activityService struct {
	activityRepo repository.ActivityRepository
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(activityRepo repository.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

func (s *activityService) GetActivityLogs(ctx context.Context, action string, page, limit int) ([]ActivityLogResponse, int64, error) {
	logs, total, err := s.activityRepo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ActivityLogResponse, 0, len(logs))
	for _, l := range logs {
		actorID := ""
		if l.ActorID != nil {
			actorID = l.ActorID.String()
		}

		res = append(res, ActivityLogResponse{
			ID:         l.ID.String(),
			ActorID:    actorID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
