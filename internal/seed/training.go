package seed

import (
	"context"
	"fmt"
	"greentrack/pkg/types"
)

type TrainingUpserter interface {
	UpsertTrainingModule(ctx context.Context, module *types.TrainingModule) error
}

func answer(i int) *int {
	return &i
}

var (
	allCitizens = []types.UserRole{types.UserRoleCitizen, types.UserRoleGreenChampion, types.UserRoleWasteWorker}
	fieldStaff  = []types.UserRole{types.UserRoleWasteWorker, types.UserRoleGreenChampion}
)

// TrainingModules returns the seed training modules. Prerequisites refer to
// IDs in this list.
func TrainingModules() []types.TrainingModule {
	return []types.TrainingModule{
		{
			ID:              "Tz4kB7nQ1wE9rM2xC5vL8pA3sD6fG0hJ",
			Title:           "Waste Segregation Basics",
			Description:     "Sort household waste into wet, dry and hazardous streams",
			Type:            types.TrainingTypeQuiz,
			DurationMinutes: 10,
			Difficulty:      types.DifficultyBeginner,
			Category:        "segregation",
			Content: types.TrainingContent{
				QuizQuestions: []types.QuizQuestion{
					{
						Question:      "Which bin should vegetable peels go into?",
						Options:       []string{"Wet waste", "Dry waste", "Hazardous waste"},
						CorrectAnswer: answer(0),
						Explanation:   "Food scraps are biodegradable and belong with wet waste",
						Points:        10,
					},
					{
						Question:      "How should a used battery be disposed of?",
						Options:       []string{"With dry waste", "At a hazardous waste collection point", "In the compost"},
						CorrectAnswer: answer(1),
						Explanation:   "Batteries leak heavy metals and need hazardous waste handling",
						Points:        10,
					},
					{
						Question:      "What should you do with a greasy pizza box?",
						Options:       []string{"Recycle it as paper", "Put it with wet or general waste", "Burn it"},
						CorrectAnswer: answer(1),
						Explanation:   "Food-soiled cardboard contaminates paper recycling",
						Points:        10,
					},
				},
			},
			RequiredFor:        allCitizens,
			LearningObjectives: []string{"Identify the three main waste streams", "Recognise common hazardous items"},
			CompletionCriteria: types.CompletionCriteria{MinimumScore: 70, RequiredWatchTime: 80},
			Tags:               []string{"basics", "segregation"},
		},
		{
			ID:              "Km8vN2cX5zL1qW4eR7tY0uI3oP6aS9dF",
			Title:           "Home Composting",
			Description:     "Turn kitchen scraps into compost in a small space",
			Type:            types.TrainingTypeVideo,
			DurationMinutes: 15,
			Difficulty:      types.DifficultyIntermediate,
			Category:        "composting",
			Content: types.TrainingContent{
				VideoURL: "training/home-composting.mp4",
				Resources: []types.TrainingResource{
					{Title: "Composting checklist", URL: "training/composting-checklist.pdf", Type: "pdf"},
				},
			},
			RequiredFor:        []types.UserRole{types.UserRoleCitizen, types.UserRoleGreenChampion},
			Prerequisites:      []string{"Tz4kB7nQ1wE9rM2xC5vL8pA3sD6fG0hJ"},
			LearningObjectives: []string{"Balance greens and browns", "Keep a compost bin odour free"},
			CompletionCriteria: types.CompletionCriteria{MinimumScore: 70, RequiredWatchTime: 80},
			Tags:               []string{"composting", "organic"},
		},
		{
			ID:              "Wq3eR6tY9uI2oP5aS8dF1gH4jK7lZ0xC",
			Title:           "Safe Handling for Collection Crews",
			Description:     "Protective equipment and handling rules for mixed and hazardous loads",
			Type:            types.TrainingTypeDocument,
			DurationMinutes: 20,
			Difficulty:      types.DifficultyBeginner,
			Category:        "safety",
			Content: types.TrainingContent{
				DocumentURL: "training/safe-handling.pdf",
				Materials: []string{
					"Wear gloves and closed shoes on every shift and replace torn gloves immediately.",
					"Never compress bags by hand or foot, as sharp objects may be hidden inside.",
					"Keep batteries, chemicals and medical waste apart from the general load and report spills.",
				},
			},
			RequiredFor:        fieldStaff,
			LearningObjectives: []string{"Use protective equipment correctly", "Separate hazardous items on pickup"},
			CompletionCriteria: types.CompletionCriteria{MinimumScore: 70, RequiredWatchTime: 80},
			Tags:               []string{"safety", "operations"},
		},
		{
			ID:              "Bn6mV9cX2zL5kJ8hG1fD4sA7pO0iU3yT",
			Title:           "Recycling Beyond the Bin",
			Description:     "How collected dry waste is sorted and where each material ends up",
			Type:            types.TrainingTypeInteractive,
			DurationMinutes: 25,
			Difficulty:      types.DifficultyAdvanced,
			Category:        "recycling",
			RequiredFor:     fieldStaff,
			Prerequisites:   []string{"Tz4kB7nQ1wE9rM2xC5vL8pA3sD6fG0hJ"},
			LearningObjectives: []string{
				"Follow dry waste through a material recovery facility",
				"Explain why contamination lowers recycling yield",
			},
			CompletionCriteria: types.CompletionCriteria{MinimumScore: 70, RequiredWatchTime: 80},
			Tags:               []string{"recycling", "advanced"},
		},
	}
}

// SeedTraining upserts the seed modules. Enrollment statistics of existing
// modules are kept.
func SeedTraining(ctx context.Context, repo TrainingUpserter) error {
	modules := TrainingModules()

	fmt.Println("Starting training module sync...")
	fmt.Printf("  Seed file contains %d modules\n", len(modules))

	for _, module := range modules {
		module.IsActive = true
		if module.Version == "" {
			module.Version = "1.0"
		}
		if module.Prerequisites == nil {
			module.Prerequisites = []string{}
		}
		if module.Tags == nil {
			module.Tags = []string{}
		}
		if module.LearningObjectives == nil {
			module.LearningObjectives = []string{}
		}

		fmt.Printf("  Upserting training module: %s (id: %s)\n", module.Title, module.ID)
		if err := repo.UpsertTrainingModule(ctx, &module); err != nil {
			return fmt.Errorf("failed to upsert training module %s: %w", module.ID, err)
		}
	}

	fmt.Printf("\nSync complete: %d upserted\n", len(modules))
	return nil
}
