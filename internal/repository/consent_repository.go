package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConsentRecord is one row of the append-only consent ledger. Rows are
// never updated or deleted; the current consent state for a member is the
// most recent row.
type ConsentRecord struct {
	ID             string
	FamilyMemberID string
	Action         string
	ActorUserID    string
	Signature      *string
	TermsAccepted  bool
	TermsVersion   *string
	RevokeReason   *string
	IPAddress      *string
	UserAgent      *string
	CreatedAt      time.Time
}

type ConsentRepository interface {
	FindLatestByMember(ctx context.Context, memberID string) (*ConsentRecord, error)
	ListByMember(ctx context.Context, memberID string) ([]*ConsentRecord, error)

	// AppendWithGuard appends a record inside a transaction that holds a
	// row lock on the member, so two writers for the same member are
	// serialized. The guard runs under the lock against the latest ledger
	// row; if it returns an error nothing is written. Lock contention is
	// reported as ErrLockNotAvailable rather than waited out.
	AppendWithGuard(ctx context.Context, record *ConsentRecord, guard func(latest *ConsentRecord) error) error

	// FindExpiringGrants returns the members whose latest ledger row is a
	// grant older than (validity - within) but still inside validity.
	FindExpiringGrants(ctx context.Context, validity, within time.Duration) ([]*ConsentRecord, error)
}

type pgConsentRepository struct {
	pool *pgxpool.Pool
}

func NewConsentRepository(pool *pgxpool.Pool) ConsentRepository {
	return &pgConsentRepository{pool: pool}
}

const consentColumns = `id, family_member_id, action, actor_user_id, signature, terms_accepted, terms_version, revoke_reason, ip_address, user_agent, created_at`

func scanConsentRecord(row pgx.Row) (*ConsentRecord, error) {
	record := &ConsentRecord{}
	err := row.Scan(
		&record.ID, &record.FamilyMemberID, &record.Action, &record.ActorUserID,
		&record.Signature, &record.TermsAccepted, &record.TermsVersion,
		&record.RevokeReason, &record.IPAddress, &record.UserAgent, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *pgConsentRepository) FindLatestByMember(ctx context.Context, memberID string) (*ConsentRecord, error) {
	query := `
		SELECT ` + consentColumns + `
		FROM consent_records
		WHERE family_member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	record, err := scanConsentRecord(r.pool.QueryRow(ctx, query, memberID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *pgConsentRepository) ListByMember(ctx context.Context, memberID string) ([]*ConsentRecord, error) {
	query := `
		SELECT ` + consentColumns + `
		FROM consent_records
		WHERE family_member_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ConsentRecord
	for rows.Next() {
		record := &ConsentRecord{}
		if err := rows.Scan(
			&record.ID, &record.FamilyMemberID, &record.Action, &record.ActorUserID,
			&record.Signature, &record.TermsAccepted, &record.TermsVersion,
			&record.RevokeReason, &record.IPAddress, &record.UserAgent, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *pgConsentRepository) AppendWithGuard(ctx context.Context, record *ConsentRecord, guard func(latest *ConsentRecord) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// NOWAIT: a conflicting writer surfaces immediately as a retryable
	// error instead of queueing behind the lock.
	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM family_members WHERE id = $1 FOR UPDATE NOWAIT`,
		record.FamilyMemberID,
	).Scan(&lockedID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "55P03" || pgErr.Code == "40001") {
			return ErrLockNotAvailable
		}
		return err
	}

	// Re-read the latest row under the lock; the guard decides on
	// serialized state, not on whatever the caller read before.
	latest, err := scanConsentRecord(tx.QueryRow(ctx, `
		SELECT `+consentColumns+`
		FROM consent_records
		WHERE family_member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, record.FamilyMemberID))
	if err == pgx.ErrNoRows {
		latest = nil
	} else if err != nil {
		return err
	}

	if err := guard(latest); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO consent_records (family_member_id, action, actor_user_id, signature, terms_accepted, terms_version, revoke_reason, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, record.FamilyMemberID, record.Action, record.ActorUserID, record.Signature,
		record.TermsAccepted, record.TermsVersion, record.RevokeReason,
		record.IPAddress, record.UserAgent,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgConsentRepository) FindExpiringGrants(ctx context.Context, validity, within time.Duration) ([]*ConsentRecord, error) {
	query := `
		SELECT ` + consentColumns + ` FROM (
			SELECT DISTINCT ON (family_member_id) ` + consentColumns + `
			FROM consent_records
			ORDER BY family_member_id, created_at DESC, id DESC
		) latest
		WHERE action = 'grant'
		  AND created_at <= now() - ($1::bigint * interval '1 second')
		  AND created_at > now() - ($2::bigint * interval '1 second')
	`
	rows, err := r.pool.Query(ctx, query,
		int64((validity - within).Seconds()), int64(validity.Seconds()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ConsentRecord
	for rows.Next() {
		record := &ConsentRecord{}
		if err := rows.Scan(
			&record.ID, &record.FamilyMemberID, &record.Action, &record.ActorUserID,
			&record.Signature, &record.TermsAccepted, &record.TermsVersion,
			&record.RevokeReason, &record.IPAddress, &record.UserAgent, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
