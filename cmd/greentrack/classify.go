package main

import (
	"fmt"
	"greentrack/internal/classifier"
	"greentrack/internal/scoring"
	"os"
	"path/filepath"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var classifyCommand = &cli.Command{
	Name:      "classify",
	Usage:     "Classify a local image with the heuristic pipeline",
	ArgsUsage: "<image>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "geo",
			Usage: "Score the scan as geo-tagged",
		},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return fmt.Errorf("an image path is required")
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		result, err := classifier.Heuristic{}.Classify(c.Context, data, filepath.Base(path))
		if err != nil {
			return err
		}

		points, err := scoring.ScanPoints(result.WasteTypes, c.Bool("geo"))
		if err != nil {
			return err
		}

		recommendations, err := scoring.Recommend(result.WasteTypes)
		if err != nil {
			return err
		}

		pp.Println(map[string]any{
			"wasteTypes":              result.WasteTypes,
			"primaryWasteType":        result.PrimaryType,
			"overallConfidence":       result.OverallConfidence,
			"pointsEarned":            points,
			"disposalRecommendations": recommendations,
			"analysis":                result.Analysis,
		})

		return nil
	},
}
