package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FamilyMember is one household profile. BirthDate is nil until a
// guardian completes age verification. Tier, access level and platform
// access are derived at read time and never stored here.
type FamilyMember struct {
	ID            string
	HouseholdID   string
	FirstName     string
	LastName      string
	DisplayName   *string
	Relationship  string
	IsPrimary     bool
	AdultAsserted bool
	BirthDate     *time.Time
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type FamilyMemberRepository interface {
	Create(ctx context.Context, member *FamilyMember) error
	FindByID(ctx context.Context, id string) (*FamilyMember, error)
	FindByHousehold(ctx context.Context, householdID string) ([]*FamilyMember, error)
	UpdateBirthDate(ctx context.Context, id string, birthDate time.Time) error
	Deactivate(ctx context.Context, id string) error
}

type pgFamilyMemberRepository struct {
	pool *pgxpool.Pool
}

func NewFamilyMemberRepository(pool *pgxpool.Pool) FamilyMemberRepository {
	return &pgFamilyMemberRepository{pool: pool}
}

func (r *pgFamilyMemberRepository) Create(ctx context.Context, member *FamilyMember) error {
	query := `
		INSERT INTO family_members (household_id, first_name, last_name, display_name, relationship, is_primary, adult_asserted, birth_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	if member.Status == "" {
		member.Status = "active"
	}
	return r.pool.QueryRow(ctx, query,
		member.HouseholdID, member.FirstName, member.LastName, member.DisplayName,
		member.Relationship, member.IsPrimary, member.AdultAsserted, member.BirthDate, member.Status,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
}

func (r *pgFamilyMemberRepository) FindByID(ctx context.Context, id string) (*FamilyMember, error) {
	query := `
		SELECT id, household_id, first_name, last_name, display_name, relationship, is_primary, adult_asserted, birth_date, status, created_at, updated_at
		FROM family_members WHERE id = $1
	`
	member := &FamilyMember{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&member.ID, &member.HouseholdID, &member.FirstName, &member.LastName,
		&member.DisplayName, &member.Relationship, &member.IsPrimary,
		&member.AdultAsserted, &member.BirthDate, &member.Status, &member.CreatedAt, &member.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *pgFamilyMemberRepository) FindByHousehold(ctx context.Context, householdID string) ([]*FamilyMember, error) {
	query := `
		SELECT id, household_id, first_name, last_name, display_name, relationship, is_primary, adult_asserted, birth_date, status, created_at, updated_at
		FROM family_members
		WHERE household_id = $1
		ORDER BY is_primary DESC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*FamilyMember
	for rows.Next() {
		member := &FamilyMember{}
		if err := rows.Scan(
			&member.ID, &member.HouseholdID, &member.FirstName, &member.LastName,
			&member.DisplayName, &member.Relationship, &member.IsPrimary,
			&member.AdultAsserted, &member.BirthDate, &member.Status, &member.CreatedAt, &member.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *pgFamilyMemberRepository) UpdateBirthDate(ctx context.Context, id string, birthDate time.Time) error {
	query := `
		UPDATE family_members
		SET birth_date = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, birthDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgFamilyMemberRepository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE family_members
		SET status = 'inactive', updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
