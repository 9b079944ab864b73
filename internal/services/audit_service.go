package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/pkg/logger"
)

type AuditService struct {
	repo repository.AuditLogRepository
}

func NewAuditService(repo repository.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. Changes may be any JSON-marshalable value;
// audit failures are logged but never fail the calling operation.
func (s *AuditService) Log(ctx context.Context, userID *uint, action, entityType string, entityID uint, changes any, ip string) {
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if changes != nil {
		data, err := json.Marshal(changes)
		if err == nil {
			entry.Changes = data
		}
	}

	if ip != "" {
		entry.IPAddress = &ip
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error(fmt.Sprintf("failed to write audit log for %s %s/%d: %v", action, entityType, entityID, err))
	}
}

// List retrieves audit logs with filters
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, query)
}
