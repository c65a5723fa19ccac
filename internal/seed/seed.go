// internal/seed/seed.go
package seed

import (
	"context"
	"log"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// SeedData creates a development household covering every access tier: a
// guardian with full access, a supervised teen with a live grant, a
// supervised teen without one, a blocked child and an unverified member.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	existing, _ := repos.UserRepo.FindByEmail(ctx, "dana.rivera@example.com")
	if existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] Creating development household...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	dana := &repository.User{
		Email:    "dana.rivera@example.com",
		Password: string(password),
		Name:     "Dana Rivera",
	}
	guardian := &repository.FamilyMember{
		FirstName:     "Dana",
		LastName:      "Rivera",
		Relationship:  types.RelationshipGuardian,
		IsPrimary:     true,
		AdultAsserted: true,
		Status:        types.MemberActive,
	}
	if err := repos.UserRepo.CreateWithHousehold(ctx, dana, "Dana Rivera", guardian); err != nil {
		log.Printf("[Seed] Failed to create guardian account: %v", err)
		return
	}

	now := time.Now()
	birthDate := func(age int) *time.Time {
		d := now.AddDate(-age, 0, -30)
		return &d
	}

	// Teen with an active consent grant (supervised, allowed).
	maya := &repository.FamilyMember{
		HouseholdID:  dana.HouseholdID,
		FirstName:    "Maya",
		LastName:     "Rivera",
		Relationship: types.RelationshipChild,
		BirthDate:    birthDate(15),
		Status:       types.MemberActive,
	}
	repos.MemberRepo.Create(ctx, maya)

	signature := "Dana Rivera"
	termsVersion := "1.0"
	grant := &repository.ConsentRecord{
		FamilyMemberID: maya.ID,
		Action:         types.ConsentGrant,
		ActorUserID:    dana.ID,
		Signature:      &signature,
		TermsAccepted:  true,
		TermsVersion:   &termsVersion,
	}
	repos.ConsentRepo.AppendWithGuard(ctx, grant, func(latest *repository.ConsentRecord) error {
		return nil
	})

	// Teen without consent (supervised, pending).
	leo := &repository.FamilyMember{
		HouseholdID:  dana.HouseholdID,
		FirstName:    "Leo",
		LastName:     "Rivera",
		Relationship: types.RelationshipChild,
		BirthDate:    birthDate(16),
		Status:       types.MemberActive,
	}
	repos.MemberRepo.Create(ctx, leo)

	// Child under the supervised band (blocked).
	pia := &repository.FamilyMember{
		HouseholdID:  dana.HouseholdID,
		FirstName:    "Pia",
		LastName:     "Rivera",
		Relationship: types.RelationshipChild,
		BirthDate:    birthDate(9),
		Status:       types.MemberActive,
	}
	repos.MemberRepo.Create(ctx, pia)

	// Member with no birth date on file (unverified).
	sam := &repository.FamilyMember{
		HouseholdID:  dana.HouseholdID,
		FirstName:    "Sam",
		LastName:     "Ortiz",
		Relationship: types.RelationshipSibling,
		Status:       types.MemberActive,
	}
	repos.MemberRepo.Create(ctx, sam)

	log.Println("[Seed] Created household with guardian, consented teen, pending teen, blocked child and unverified member")
	log.Println("[Seed] Login: dana.rivera@example.com / password123")
}
