package classifier

import (
	"context"
	"fmt"
	"math"
	"time"

	"greentrack/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	StrategyHeuristic = "heuristic"
	StrategyRemote    = "remote"

	SourceHeuristic = "heuristic"
	SourceRemote    = "remote"
)

// Strategy classifies an uploaded image.
type Strategy interface {
	Classify(ctx context.Context, data []byte, filename string) (*Result, error)
}

// New selects the strategy named in config.
func New(config *types.Config, logger logrus.FieldLogger) (Strategy, error) {
	switch config.ClassifierStrategy {
	case "", StrategyHeuristic:
		return Heuristic{}, nil
	case StrategyRemote:
		timeout := time.Duration(config.MLServiceTimeoutSec) * time.Second
		return NewRemote(NewMLClient(config.MLServiceURL, timeout), logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier strategy %q", types.ErrConfiguration, config.ClassifierStrategy)
	}
}

// Heuristic classifies from colour and texture statistics alone.
type Heuristic struct{}

func (Heuristic) Classify(ctx context.Context, data []byte, filename string) (*Result, error) {
	started := time.Now()

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	result, err := Analyze(img)
	if err != nil {
		return nil, err
	}

	result.Analysis.ProcessingTimeMs = time.Since(started).Milliseconds()

	return result, nil
}

// Predictor is the external model service.
type Predictor interface {
	Predict(ctx context.Context, data []byte, filename string) (*Prediction, error)
	Healthy(ctx context.Context) bool
}

// Remote prefers the model service and falls back to the heuristic when it
// is unavailable. The heuristic always runs first so invalid images are
// rejected before any network call.
type Remote struct {
	predictor Predictor
	fallback  Heuristic
	logger    logrus.FieldLogger
}

func NewRemote(predictor Predictor, logger logrus.FieldLogger) *Remote {
	return &Remote{predictor: predictor, logger: logger}
}

// Healthy reports whether the model service is reachable and has a model loaded.
func (r *Remote) Healthy(ctx context.Context) bool {
	return r.predictor.Healthy(ctx)
}

func (r *Remote) Classify(ctx context.Context, data []byte, filename string) (*Result, error) {
	result, err := r.fallback.Classify(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	prediction, err := r.predictor.Predict(ctx, data, filename)
	if err != nil {
		r.logger.WithError(err).Warn("ml service unavailable, using heuristic classification")
		return result, nil
	}

	category := types.WasteCategory(prediction.AppWasteType)
	if !category.Valid() {
		category = types.WasteGeneral
	}

	confidence := int(math.Round(math.Max(0, math.Min(100, prediction.Confidence))))

	result.WasteTypes = []types.DetectedWaste{{
		Type:       category,
		Confidence: confidence,
		Percentage: 100,
	}}
	result.PrimaryType = category
	result.OverallConfidence = confidence
	result.Analysis.ModelVersion = RemoteModelVersion
	result.Analysis.ModelClass = prediction.ModelClass
	result.Analysis.Source = SourceRemote

	return result, nil
}
