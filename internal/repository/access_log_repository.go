package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessLogEntry is one immutable audit row per profile switch
// evaluation, success or denial.
type AccessLogEntry struct {
	ID             string
	HouseholdID    string
	ActorUserID    string
	TargetMemberID string
	Outcome        string
	DenialReason   *string
	CreatedAt      time.Time
}

type AccessLogRepository interface {
	Insert(ctx context.Context, entry *AccessLogEntry) error
	ListByHousehold(ctx context.Context, householdID string, limit, offset int) ([]*AccessLogEntry, error)
	CountByHousehold(ctx context.Context, householdID string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type pgAccessLogRepository struct {
	pool *pgxpool.Pool
}

func NewAccessLogRepository(pool *pgxpool.Pool) AccessLogRepository {
	return &pgAccessLogRepository{pool: pool}
}

func (r *pgAccessLogRepository) Insert(ctx context.Context, entry *AccessLogEntry) error {
	query := `
		INSERT INTO access_logs (household_id, actor_user_id, target_member_id, outcome, denial_reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		entry.HouseholdID, entry.ActorUserID, entry.TargetMemberID,
		entry.Outcome, entry.DenialReason,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgAccessLogRepository) ListByHousehold(ctx context.Context, householdID string, limit, offset int) ([]*AccessLogEntry, error) {
	query := `
		SELECT id, household_id, actor_user_id, target_member_id, outcome, denial_reason, created_at
		FROM access_logs
		WHERE household_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, householdID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*AccessLogEntry
	for rows.Next() {
		entry := &AccessLogEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.HouseholdID, &entry.ActorUserID,
			&entry.TargetMemberID, &entry.Outcome, &entry.DenialReason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *pgAccessLogRepository) CountByHousehold(ctx context.Context, householdID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM access_logs WHERE household_id = $1`, householdID).Scan(&count)
	return count, err
}

func (r *pgAccessLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
