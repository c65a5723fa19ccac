package service

import (
	"context"
	"fmt"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/session"
	"github.com/familyhub/family-access-backend/internal/types"
)

// In-memory doubles for the repository and session interfaces. They keep
// the same observable semantics as the Postgres/Redis implementations so
// service tests exercise real flows without a database.

type fakeMemberRepo struct {
	members map[string]*repository.FamilyMember
	nextID  int
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[string]*repository.FamilyMember)}
}

func (f *fakeMemberRepo) Create(ctx context.Context, member *repository.FamilyMember) error {
	f.nextID++
	member.ID = fmt.Sprintf("member-%d", f.nextID)
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	f.members[member.ID] = member
	return nil
}

func (f *fakeMemberRepo) FindByID(ctx context.Context, id string) (*repository.FamilyMember, error) {
	member, ok := f.members[id]
	if !ok {
		return nil, nil
	}
	return member, nil
}

func (f *fakeMemberRepo) FindByHousehold(ctx context.Context, householdID string) ([]*repository.FamilyMember, error) {
	var result []*repository.FamilyMember
	for i := 1; i <= f.nextID; i++ {
		member, ok := f.members[fmt.Sprintf("member-%d", i)]
		if ok && member.HouseholdID == householdID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (f *fakeMemberRepo) UpdateBirthDate(ctx context.Context, id string, birthDate time.Time) error {
	member, ok := f.members[id]
	if !ok {
		return fmt.Errorf("member %s not found", id)
	}
	member.BirthDate = &birthDate
	member.UpdatedAt = time.Now()
	return nil
}

func (f *fakeMemberRepo) Deactivate(ctx context.Context, id string) error {
	member, ok := f.members[id]
	if !ok {
		return fmt.Errorf("member %s not found", id)
	}
	member.Status = types.MemberInactive
	return nil
}

func (f *fakeMemberRepo) add(member *repository.FamilyMember) *repository.FamilyMember {
	f.nextID++
	if member.ID == "" {
		member.ID = fmt.Sprintf("member-%d", f.nextID)
	}
	f.members[member.ID] = member
	return member
}

type fakeConsentRepo struct {
	records  map[string][]*repository.ConsentRecord
	lockBusy bool
	nextID   int
	clock    func() time.Time
}

func newFakeConsentRepo() *fakeConsentRepo {
	return &fakeConsentRepo{
		records: make(map[string][]*repository.ConsentRecord),
		clock:   time.Now,
	}
}

func (f *fakeConsentRepo) FindLatestByMember(ctx context.Context, memberID string) (*repository.ConsentRecord, error) {
	records := f.records[memberID]
	if len(records) == 0 {
		return nil, nil
	}
	return records[len(records)-1], nil
}

func (f *fakeConsentRepo) ListByMember(ctx context.Context, memberID string) ([]*repository.ConsentRecord, error) {
	records := f.records[memberID]
	result := make([]*repository.ConsentRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		result = append(result, records[i])
	}
	return result, nil
}

func (f *fakeConsentRepo) AppendWithGuard(ctx context.Context, record *repository.ConsentRecord, guard func(latest *repository.ConsentRecord) error) error {
	if f.lockBusy {
		return repository.ErrLockNotAvailable
	}
	latest, _ := f.FindLatestByMember(ctx, record.FamilyMemberID)
	if guard != nil {
		if err := guard(latest); err != nil {
			return err
		}
	}
	f.nextID++
	record.ID = fmt.Sprintf("consent-%d", f.nextID)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = f.clock()
	}
	f.records[record.FamilyMemberID] = append(f.records[record.FamilyMemberID], record)
	return nil
}

func (f *fakeConsentRepo) FindExpiringGrants(ctx context.Context, validity, within time.Duration) ([]*repository.ConsentRecord, error) {
	var result []*repository.ConsentRecord
	now := f.clock()
	for _, records := range f.records {
		if len(records) == 0 {
			continue
		}
		latest := records[len(records)-1]
		if latest.Action != types.ConsentGrant {
			continue
		}
		age := now.Sub(latest.CreatedAt)
		if age <= validity && age > validity-within {
			result = append(result, latest)
		}
	}
	return result, nil
}

// seed inserts a ledger row directly, bypassing the guard.
func (f *fakeConsentRepo) seed(record *repository.ConsentRecord) {
	f.nextID++
	if record.ID == "" {
		record.ID = fmt.Sprintf("consent-%d", f.nextID)
	}
	f.records[record.FamilyMemberID] = append(f.records[record.FamilyMemberID], record)
}

type fakeUserRepo struct {
	users  map[string]*repository.User
	tokens map[string]*repository.RefreshToken
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*repository.User),
		tokens: make(map[string]*repository.RefreshToken),
	}
}

func (f *fakeUserRepo) CreateWithHousehold(ctx context.Context, user *repository.User, householdName string, guardian *repository.FamilyMember) error {
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.HouseholdID = fmt.Sprintf("household-%d", f.nextID)
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	if guardian != nil {
		guardian.ID = fmt.Sprintf("guardian-%d", f.nextID)
		guardian.HouseholdID = user.HouseholdID
	}
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ReplaceRefreshTokenForSession(ctx context.Context, token *repository.RefreshToken) error {
	for key, existing := range f.tokens {
		if existing.SessionID == token.SessionID {
			delete(f.tokens, key)
		}
	}
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return f.tokens[token], nil
}

func (f *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeUserRepo) DeleteSessionRefreshTokens(ctx context.Context, sessionID string) error {
	for key, existing := range f.tokens {
		if existing.SessionID == sessionID {
			delete(f.tokens, key)
		}
	}
	return nil
}

func (f *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	var deleted int64
	now := time.Now()
	for key, existing := range f.tokens {
		if now.After(existing.ExpiresAt) {
			delete(f.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeUserRepo) addUser(user *repository.User) *repository.User {
	f.users[user.ID] = user
	return user
}

type fakeSessionStore struct {
	states map[string]*session.State
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{states: make(map[string]*session.State)}
}

func (f *fakeSessionStore) Put(ctx context.Context, state *session.State) error {
	f.states[state.SessionID] = state
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, sessionID string) (*session.State, error) {
	state, ok := f.states[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	return state, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.states, sessionID)
	return nil
}

// fakeAccessLog captures audit attempts for assertions.
type fakeAccessLog struct {
	attempts []AccessAttempt
}

func (f *fakeAccessLog) Record(ctx context.Context, attempt AccessAttempt) {
	f.attempts = append(f.attempts, attempt)
}

func (f *fakeAccessLog) List(ctx context.Context, householdID string, limit, offset int) ([]*repository.AccessLogEntry, int64, error) {
	return nil, 0, nil
}

func (f *fakeAccessLog) DroppedEntries() int64 { return 0 }
