package cron

import (
	"context"
	"log"
	"time"

	"github.com/familyhub/family-access-backend/internal/config"
	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/socket"
	"github.com/robfig/cron/v3"
)

// Scheduler handles scheduled maintenance tasks. Consent expiry is never
// one of them: expiry is derived at read time, so the jobs here only
// prune storage and surface upcoming renewals.
type Scheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	userRepo    repository.UserRepository
	memberRepo  repository.FamilyMemberRepository
	consentRepo repository.ConsentRepository
	accessRepo  repository.AccessLogRepository
	broadcaster *socket.Broadcaster
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.Config, repos *repository.Repositories, broadcaster *socket.Broadcaster) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		cfg:         cfg,
		userRepo:    repos.UserRepo,
		memberRepo:  repos.MemberRepo,
		consentRepo: repos.ConsentRepo,
		accessRepo:  repos.AccessLogRepo,
		broadcaster: broadcaster,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every hour - purge expired refresh tokens
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running refresh token cleanup...")
		s.cleanupExpiredRefreshTokens()
	})

	// Run every day at 3 AM - prune old access log entries
	s.cron.AddFunc("0 3 * * *", func() {
		log.Println("[Cron] Running access log retention prune...")
		s.pruneAccessLogs()
	})

	// Run every day at 9 AM - surface consent grants nearing expiry
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running consent renewal check...")
		s.checkExpiringConsents()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) cleanupExpiredRefreshTokens() {
	ctx := context.Background()

	deleted, err := s.userRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("[Cron] Error deleting expired refresh tokens: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Cron] Deleted %d expired refresh tokens", deleted)
	}
}

func (s *Scheduler) pruneAccessLogs() {
	ctx := context.Background()

	cutoff := time.Now().AddDate(0, 0, -s.cfg.AccessLogRetentionDays)
	deleted, err := s.accessRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[Cron] Error pruning access logs: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Cron] Pruned %d access log entries older than %s", deleted, cutoff.Format("2006-01-02"))
	}
}

// checkExpiringConsents notifies households about grants that will age
// out within 30 days. Purely advisory; the grants themselves stay valid
// until the resolver stops honoring them.
func (s *Scheduler) checkExpiringConsents() {
	ctx := context.Background()

	validity := time.Duration(s.cfg.ConsentValidityDays) * 24 * time.Hour
	grants, err := s.consentRepo.FindExpiringGrants(ctx, validity, 30*24*time.Hour)
	if err != nil {
		log.Printf("[Cron] Error finding expiring consent grants: %v", err)
		return
	}

	for _, grant := range grants {
		member, err := s.memberRepo.FindByID(ctx, grant.FamilyMemberID)
		if err != nil || member == nil {
			continue
		}

		expiresAt := grant.CreatedAt.Add(validity)
		log.Printf("[Cron] Consent for member %s expires %s", member.ID, expiresAt.Format("2006-01-02"))

		if s.broadcaster != nil {
			s.broadcaster.BroadcastConsentRenewalDue(member.HouseholdID, map[string]interface{}{
				"memberId":  member.ID,
				"expiresAt": expiresAt,
			})
		}
	}

	if len(grants) > 0 {
		log.Printf("[Cron] %d consent grants expiring within 30 days", len(grants))
	}
}
