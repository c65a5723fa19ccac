package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/types"
)

type fakeAccessLogRepo struct {
	entries    []*repository.AccessLogEntry
	failInsert bool
}

func (f *fakeAccessLogRepo) Insert(ctx context.Context, entry *repository.AccessLogEntry) error {
	if f.failInsert {
		return errors.New("insert failed")
	}
	entry.ID = fmt.Sprintf("log-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAccessLogRepo) ListByHousehold(ctx context.Context, householdID string, limit, offset int) ([]*repository.AccessLogEntry, error) {
	var matched []*repository.AccessLogEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].HouseholdID == householdID {
			matched = append(matched, f.entries[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeAccessLogRepo) CountByHousehold(ctx context.Context, householdID string) (int64, error) {
	var count int64
	for _, entry := range f.entries {
		if entry.HouseholdID == householdID {
			count++
		}
	}
	return count, nil
}

func (f *fakeAccessLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func TestAccessLogRecord(t *testing.T) {
	repo := &fakeAccessLogRepo{}
	svc := NewAccessLogService(repo, nil)

	svc.Record(context.Background(), AccessAttempt{
		HouseholdID:    "household-1",
		ActorUserID:    "user-1",
		TargetMemberID: "member-1",
		Outcome:        types.OutcomeDenied,
		DenialReason:   types.DenialBlocked,
	})

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.DenialReason == nil || *entry.DenialReason != types.DenialBlocked {
		t.Errorf("denialReason = %v, want blocked", entry.DenialReason)
	}
	if svc.DroppedEntries() != 0 {
		t.Errorf("dropped = %d, want 0", svc.DroppedEntries())
	}
}

// A failing audit write is counted and surfaced, never returned to the
// caller.
func TestAccessLogRecordFailureIsIsolated(t *testing.T) {
	repo := &fakeAccessLogRepo{failInsert: true}
	svc := NewAccessLogService(repo, nil)

	svc.Record(context.Background(), AccessAttempt{
		HouseholdID:    "household-1",
		ActorUserID:    "user-1",
		TargetMemberID: "member-1",
		Outcome:        types.OutcomeAllowed,
	})
	svc.Record(context.Background(), AccessAttempt{
		HouseholdID:    "household-1",
		ActorUserID:    "user-1",
		TargetMemberID: "member-1",
		Outcome:        types.OutcomeAllowed,
	})

	if svc.DroppedEntries() != 2 {
		t.Errorf("dropped = %d, want 2", svc.DroppedEntries())
	}
}

func TestAccessLogListScopedToHousehold(t *testing.T) {
	repo := &fakeAccessLogRepo{}
	svc := NewAccessLogService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Record(ctx, AccessAttempt{HouseholdID: "household-1", ActorUserID: "user-1", TargetMemberID: "member-1", Outcome: types.OutcomeAllowed})
	}
	svc.Record(ctx, AccessAttempt{HouseholdID: "household-2", ActorUserID: "user-2", TargetMemberID: "member-9", Outcome: types.OutcomeAllowed})

	entries, total, err := svc.List(ctx, "household-1", 50, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Errorf("total = %d, entries = %d, want 3 and 3", total, len(entries))
	}
	for _, entry := range entries {
		if entry.HouseholdID != "household-1" {
			t.Errorf("entry from household %s leaked into the listing", entry.HouseholdID)
		}
	}
}
