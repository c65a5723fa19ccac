package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID          string
	HouseholdID string
	Email       string
	Password    string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RefreshToken is one half of a session credential pair. session_id ties
// the token to a login session; member_id is set once the session has been
// scoped to a family member profile via a switch.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	SessionID string
	MemberID  *string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type UserRepository interface {
	// CreateWithHousehold creates the household, the guardian account and
	// the guardian's own family member profile in one transaction.
	CreateWithHousehold(ctx context.Context, user *User, householdName string, guardian *FamilyMember) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ReplaceRefreshTokenForSession deletes any previous refresh token for
	// the session and inserts the new one atomically, so at most one
	// refresh token exists per session at any point in time.
	ReplaceRefreshTokenForSession(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteSessionRefreshTokens(ctx context.Context, sessionID string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) CreateWithHousehold(ctx context.Context, user *User, householdName string, guardian *FamilyMember) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO households (name) VALUES ($1) RETURNING id`,
		householdName,
	).Scan(&user.HouseholdID)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (household_id, email, password, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.HouseholdID, user.Email, user.Password, user.Name).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return err
	}

	guardian.HouseholdID = user.HouseholdID
	err = tx.QueryRow(ctx, `
		INSERT INTO family_members (household_id, first_name, last_name, display_name, relationship, is_primary, adult_asserted, birth_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, guardian.HouseholdID, guardian.FirstName, guardian.LastName, guardian.DisplayName,
		guardian.Relationship, guardian.IsPrimary, guardian.AdultAsserted, guardian.BirthDate, guardian.Status).
		Scan(&guardian.ID, &guardian.CreatedAt, &guardian.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, household_id, email, password, name, created_at, updated_at
		FROM users WHERE id = $1
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.HouseholdID, &user.Email, &user.Password, &user.Name,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, household_id, email, password, name, created_at, updated_at
		FROM users WHERE email = $1
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.HouseholdID, &user.Email, &user.Password, &user.Name,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) ReplaceRefreshTokenForSession(ctx context.Context, token *RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE session_id = $1`, token.SessionID,
	); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO refresh_tokens (token, user_id, session_id, member_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, token.Token, token.UserID, token.SessionID, token.MemberID, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT id, token, user_id, session_id, member_id, expires_at, created_at
		FROM refresh_tokens WHERE token = $1
	`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.SessionID, &rt.MemberID,
		&rt.ExpiresAt, &rt.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

func (r *pgUserRepository) DeleteSessionRefreshTokens(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE session_id = $1`, sessionID)
	return err
}

func (r *pgUserRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
