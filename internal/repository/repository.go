package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLockNotAvailable is returned when the per-member row lock could not
// be acquired without waiting. Callers treat it as a concurrent
// modification and may retry once.
var ErrLockNotAvailable = errors.New("member row lock not available")

type Repositories struct {
	UserRepo      UserRepository
	MemberRepo    FamilyMemberRepository
	ConsentRepo   ConsentRepository
	AccessLogRepo AccessLogRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:      NewUserRepository(pool),
		MemberRepo:    NewFamilyMemberRepository(pool),
		ConsentRepo:   NewConsentRepository(pool),
		AccessLogRepo: NewAccessLogRepository(pool),
	}
}
