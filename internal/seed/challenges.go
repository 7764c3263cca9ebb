package seed

import (
	"context"
	"fmt"
	"greentrack/internal/utils"
	"greentrack/pkg/types"
	"time"
)

type ChallengeUpserter interface {
	UpsertChallenge(ctx context.Context, challenge *types.Challenge) error
}

// standardMilestones are shared by every seeded challenge.
func standardMilestones() []types.Milestone {
	return []types.Milestone{
		{Percentage: 25, Title: "Getting Started", Description: "A quarter of the way there", Reward: types.MilestoneReward{Points: 10}},
		{Percentage: 50, Title: "Halfway", Description: "Half of the target reached", Reward: types.MilestoneReward{Points: 25}},
		{Percentage: 75, Title: "Final Stretch", Description: "Three quarters complete", Reward: types.MilestoneReward{Points: 40}},
		{Percentage: 100, Title: "Target Reached", Description: "The challenge target was met", Reward: types.MilestoneReward{Points: 75, Badge: "goal-crusher"}},
	}
}

// Challenges returns the seed challenge definitions, windows anchored at now.
//
// To generate new IDs: `go run ./cmd/greentrack nanoid`
// To change a challenge: edit it below and run the seed command again. Existing
// participation and progress are kept.
func Challenges(now time.Time) []types.Challenge {
	start := now.Truncate(24 * time.Hour)

	return []types.Challenge{
		{
			ID:           "Qm3vT8xLr2KpW9cNaZ4bYh7dEs1FgJ6u",
			Title:        "Plastic Free Month",
			Description:  "Scan and sort 100 pieces of plastic waste this month",
			Type:         types.ChallengeTypeCommunity,
			Category:     string(types.WastePlastic),
			TargetMetric: types.MetricScans,
			TargetAmount: 100,
			Reward:       types.ChallengeReward{Points: 200, Badge: "plastic-warrior"},
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 30),
			Rules: []string{
				"Every scan counts once",
				"Scans must be photographed by the participant",
			},
			Featured: true,
			Image:    utils.StringPtr("challenges/plastic-free-month.png"),
		},
		{
			ID:           "Hn5sD2wQe8RtY4uIoP7aLk3jZx6cVb9M",
			Title:        "Eco Points Sprint",
			Description:  "Earn 2,500 eco points together in two weeks",
			Type:         types.ChallengeTypeCity,
			Category:     "points",
			TargetMetric: types.MetricPoints,
			TargetAmount: 2500,
			Reward:       types.ChallengeReward{Points: 150, Certificate: "sprint-finisher"},
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 14),
			Rules: []string{
				"Points are credited as scans are processed",
			},
			Eligibility: types.ChallengeEligibility{MinLevel: 2},
			Area:        &types.GeoPoint{Lat: 28.6139, Lng: 77.2090},
		},
		{
			ID:           "Yc8fG1hJk4Lm7Nq0Rs3Tu6Vw9Xz2Ab5C",
			Title:        "Community Cleanup Drive",
			Description:  "Divert 250 kg of waste from landfill",
			Type:         types.ChallengeTypeArea,
			Category:     "cleanup",
			TargetMetric: types.MetricWeight,
			TargetAmount: 250,
			Reward:       types.ChallengeReward{Points: 300, PhysicalReward: "GreenTrack tote bag"},
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 60),
			Rules: []string{
				"Each scan is credited with an estimated weight",
			},
			Eligibility: types.ChallengeEligibility{
				Roles: []types.UserRole{types.UserRoleCitizen, types.UserRoleGreenChampion},
			},
			Area:     &types.GeoPoint{Lat: 28.5355, Lng: 77.3910},
			Featured: true,
		},
		{
			ID:           "Pw2eR5tY8uI1oP4aS7dF0gH3jK6lZ9xC",
			Title:        "Champion League",
			Description:  "Green champions race to 50 verified sorting scans",
			Type:         types.ChallengeTypeIndividual,
			Category:     "champions",
			TargetMetric: types.MetricScans,
			TargetAmount: 50,
			Reward:       types.ChallengeReward{Points: 500, Badge: "league-champion"},
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 21),
			Eligibility: types.ChallengeEligibility{
				Roles:     []types.UserRole{types.UserRoleGreenChampion},
				MinPoints: 1000,
			},
		},
	}
}

func SeedChallenges(ctx context.Context, repo ChallengeUpserter, now time.Time) error {
	challenges := Challenges(now)

	fmt.Println("Starting challenge sync...")
	fmt.Printf("  Seed file contains %d challenges\n", len(challenges))

	upserted := 0
	for _, challenge := range challenges {
		challenge.Participants = []types.Participant{}
		challenge.Leaderboard = []types.LeaderboardEntry{}
		challenge.Milestones = standardMilestones()
		challenge.Status = types.ChallengeStatusActive
		challenge.CreatedBy = "seed"
		if challenge.Rules == nil {
			challenge.Rules = []string{}
		}
		if challenge.Eligibility.Roles == nil {
			challenge.Eligibility.Roles = []types.UserRole{}
		}

		fmt.Printf("  Upserting challenge: %s (id: %s)\n", challenge.Title, challenge.ID)
		if err := repo.UpsertChallenge(ctx, &challenge); err != nil {
			return fmt.Errorf("failed to upsert challenge %s: %w", challenge.ID, err)
		}
		upserted++
	}

	fmt.Printf("\nSync complete: %d upserted\n", upserted)
	return nil
}
