package seed

import (
	"context"
	"errors"
	"fmt"
	"greentrack/internal/progression"
	"greentrack/internal/utils"
	"greentrack/pkg/types"
)

type UserSeeder interface {
	User(ctx context.Context, userID string) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
	UpsertIdentity(ctx context.Context, userID, email, givenName, familyName string) error
}

type demoUserSeed struct {
	ID         string
	Email      string
	GivenName  string
	FamilyName string
	Role       types.UserRole
	EcoPoints  int
}

var demoUsers = []demoUserSeed{
	{ID: "11111111-1111-1111-1111-111111111111", Email: "ava.williams+seed1@example.com", GivenName: "Ava", FamilyName: "Williams", Role: types.UserRoleCitizen, EcoPoints: 0},
	{ID: "22222222-2222-2222-2222-222222222222", Email: "liam.johnson+seed2@example.com", GivenName: "Liam", FamilyName: "Johnson", Role: types.UserRoleCitizen, EcoPoints: 480},
	{ID: "33333333-3333-3333-3333-333333333333", Email: "noah.brown+seed3@example.com", GivenName: "Noah", FamilyName: "Brown", Role: types.UserRoleGreenChampion, EcoPoints: 1250},
	{ID: "44444444-4444-4444-4444-444444444444", Email: "mia.davis+seed4@example.com", GivenName: "Mia", FamilyName: "Davis", Role: types.UserRoleWasteWorker, EcoPoints: 320},
	{ID: "55555555-5555-5555-5555-555555555555", Email: "elijah.garcia+seed5@example.com", GivenName: "Elijah", FamilyName: "Garcia", Role: types.UserRoleULBAdmin, EcoPoints: 0},
}

// SeedDemoUsers creates the demo accounts. Existing accounts only get their
// identity fields refreshed so progression earned since seeding is kept.
func SeedDemoUsers(ctx context.Context, repo UserSeeder) error {
	seeded := 0
	for _, demo := range demoUsers {
		_, err := repo.User(ctx, demo.ID)
		if err != nil {
			if !errors.Is(err, types.ErrUserNotFound) {
				return fmt.Errorf("failed to fetch demo user %s: %w", demo.ID, err)
			}

			newUser := &types.User{
				ID:         demo.ID,
				Email:      utils.StringPtr(demo.Email),
				GivenName:  utils.StringPtr(demo.GivenName),
				FamilyName: utils.StringPtr(demo.FamilyName),
				Role:       demo.Role,
				EcoPoints:  demo.EcoPoints,
				Level:      progression.Level(demo.EcoPoints),
			}

			if err := repo.Create(ctx, newUser); err != nil {
				return fmt.Errorf("failed to create demo user %s: %w", demo.ID, err)
			}
			seeded++
			continue
		}

		if err := repo.UpsertIdentity(ctx, demo.ID, demo.Email, demo.GivenName, demo.FamilyName); err != nil {
			return fmt.Errorf("failed to update demo user %s: %w", demo.ID, err)
		}
		seeded++
	}

	fmt.Printf("Demo users seeded: %d upserted\n", seeded)
	return nil
}
