package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/socket"
)

// ============================================
// Access Log Service
// ============================================

// AccessAttempt describes one profile switch evaluation for the audit
// trail, allowed or denied.
type AccessAttempt struct {
	HouseholdID    string
	ActorUserID    string
	TargetMemberID string
	Outcome        string
	DenialReason   string
}

type AccessLogService interface {
	// Record writes an audit entry. It never fails the caller: a switch
	// decision stands even when the audit write does not land, the drop
	// is counted and surfaced instead.
	Record(ctx context.Context, attempt AccessAttempt)
	List(ctx context.Context, householdID string, limit, offset int) ([]*repository.AccessLogEntry, int64, error)
	// DroppedEntries reports how many audit writes have failed since
	// startup. Exposed on the health endpoint.
	DroppedEntries() int64
}

type accessLogService struct {
	repo        repository.AccessLogRepository
	broadcaster *socket.Broadcaster
	dropped     atomic.Int64
}

func NewAccessLogService(repo repository.AccessLogRepository, broadcaster *socket.Broadcaster) AccessLogService {
	return &accessLogService{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

func (s *accessLogService) Record(ctx context.Context, attempt AccessAttempt) {
	entry := &repository.AccessLogEntry{
		HouseholdID:    attempt.HouseholdID,
		ActorUserID:    attempt.ActorUserID,
		TargetMemberID: attempt.TargetMemberID,
		Outcome:        attempt.Outcome,
	}
	if attempt.DenialReason != "" {
		reason := attempt.DenialReason
		entry.DenialReason = &reason
	}

	// Detached context so a cancelled request cannot abort the audit
	// write mid-flight.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(writeCtx, entry); err != nil {
		total := s.dropped.Add(1)
		log.Printf("[AccessLog] Failed to record access attempt (dropped total %d): %v", total, err)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastAuditDegraded(total)
		}
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastAccessAttempt(attempt.HouseholdID, map[string]interface{}{
			"targetMemberId": attempt.TargetMemberID,
			"outcome":        attempt.Outcome,
			"denialReason":   attempt.DenialReason,
		})
	}
}

func (s *accessLogService) List(ctx context.Context, householdID string, limit, offset int) ([]*repository.AccessLogEntry, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.repo.ListByHousehold(ctx, householdID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByHousehold(ctx, householdID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *accessLogService) DroppedEntries() int64 {
	return s.dropped.Load()
}
