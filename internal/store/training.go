package store

import (
	"context"
	"encoding/json"
	"fmt"
	"greentrack/internal/utils"
	"greentrack/pkg/types"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	trainingColumns = utils.StructTagValues(types.TrainingModule{})
	progressColumns = utils.StructTagValues(types.TrainingProgress{})
)

type TrainingRepository struct {
	pool *pgxpool.Pool
}

func NewTrainingRepository(pool *pgxpool.Pool) *TrainingRepository {
	return &TrainingRepository{pool: pool}
}

func (r *TrainingRepository) TrainingModule(ctx context.Context, moduleID string) (*types.TrainingModule, error) {
	query, args, err := psql().
		Select(trainingColumns...).
		From(trainingTableName).
		Where(sq.Eq{"id": moduleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate training module query: %w", err)
	}

	var module = new(types.TrainingModule)
	err = pgxscan.Get(ctx, r.pool, module, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrTrainingNotFound
		}
		return nil, fmt.Errorf("failed to fetch training module: %w", err)
	}

	return module, nil
}

// TrainingModulesForRole lists active modules whose required_for list
// contains role.
func (r *TrainingRepository) TrainingModulesForRole(ctx context.Context, role types.UserRole) ([]*types.TrainingModule, error) {
	doc, err := json.Marshal([]types.UserRole{role})
	if err != nil {
		return nil, fmt.Errorf("failed to encode role filter: %w", err)
	}

	query, args, err := psql().
		Select(trainingColumns...).
		From(trainingTableName).
		Where(sq.Eq{"is_active": true}).
		Where(sq.Expr("required_for @> ?::jsonb", string(doc))).
		OrderBy("created_at asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate training modules query: %w", err)
	}

	var modules = make([]*types.TrainingModule, 0)
	err = pgxscan.Select(ctx, r.pool, &modules, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training modules: %w", err)
	}

	return modules, nil
}

// UpdateTrainingModule writes the module's statistics back. Callers hold the
// module's lock for the whole read-modify-write.
func (r *TrainingRepository) UpdateTrainingModule(ctx context.Context, module *types.TrainingModule) error {
	module.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(trainingTableName).
		Set("statistics", module.Statistics).
		Set("updated_at", module.UpdatedAt).
		Where(sq.Eq{"id": module.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update training module query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update training module: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrTrainingNotFound
	}

	return nil
}

// UpsertTrainingModule inserts a module or refreshes its content. Statistics
// of an existing module are left alone.
func (r *TrainingRepository) UpsertTrainingModule(ctx context.Context, module *types.TrainingModule) error {
	now := time.Now()
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}
	module.UpdatedAt = now

	query, args, err := psql().
		Insert(trainingTableName).
		SetMap(utils.StructToMap(module)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			type = EXCLUDED.type,
			duration_minutes = EXCLUDED.duration_minutes,
			difficulty = EXCLUDED.difficulty,
			category = EXCLUDED.category,
			content = EXCLUDED.content,
			required_for = EXCLUDED.required_for,
			prerequisites = EXCLUDED.prerequisites,
			learning_objectives = EXCLUDED.learning_objectives,
			completion_criteria = EXCLUDED.completion_criteria,
			tags = EXCLUDED.tags,
			is_active = EXCLUDED.is_active,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert training module query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert training module: %w", err)
	}

	return nil
}

func (r *TrainingRepository) Progress(ctx context.Context, userID, moduleID string) (*types.TrainingProgress, error) {
	query, args, err := psql().
		Select(progressColumns...).
		From(progressTableName).
		Where(sq.Eq{"user_id": userID, "module_id": moduleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate training progress query: %w", err)
	}

	var progress = new(types.TrainingProgress)
	err = pgxscan.Get(ctx, r.pool, progress, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to fetch training progress: %w", err)
	}

	return progress, nil
}

func (r *TrainingRepository) ProgressByUser(ctx context.Context, userID string) ([]*types.TrainingProgress, error) {
	query, args, err := psql().
		Select(progressColumns...).
		From(progressTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("enrolled_at asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate training progress query: %w", err)
	}

	var progress = make([]*types.TrainingProgress, 0)
	err = pgxscan.Select(ctx, r.pool, &progress, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training progress: %w", err)
	}

	return progress, nil
}

func (r *TrainingRepository) SaveProgress(ctx context.Context, progress *types.TrainingProgress) error {
	query, args, err := psql().
		Insert(progressTableName).
		SetMap(utils.StructToMap(progress)).
		Suffix(`ON CONFLICT (user_id, module_id) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			rating = EXCLUDED.rating,
			completed_at = EXCLUDED.completed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate save training progress query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save training progress: %w", err)
	}

	return nil
}
