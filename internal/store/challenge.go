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

var challengeColumns = utils.StructTagValues(types.Challenge{})

type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

func (r *ChallengeRepository) Challenge(ctx context.Context, challengeID string) (*types.Challenge, error) {
	query, args, err := psql().
		Select(challengeColumns...).
		From(challengeTableName).
		Where(sq.Eq{"id": challengeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate challenge query: %w", err)
	}

	var challenge = new(types.Challenge)
	err = pgxscan.Get(ctx, r.pool, challenge, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to fetch challenge: %w", err)
	}

	return challenge, nil
}

func (r *ChallengeRepository) selectChallenges(ctx context.Context, builder sq.SelectBuilder) ([]*types.Challenge, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate challenges query: %w", err)
	}

	var challenges = make([]*types.Challenge, 0)
	err = pgxscan.Select(ctx, r.pool, &challenges, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}

	return challenges, nil
}

func openAt(now time.Time) sq.And {
	return sq.And{
		sq.Eq{"status": types.ChallengeStatusActive},
		sq.LtOrEq{"start_date": now},
		sq.Gt{"end_date": now},
	}
}

// hasParticipant matches challenges whose participants document lists userID.
func hasParticipant(userID string) (sq.Sqlizer, error) {
	doc, err := json.Marshal([]map[string]string{{"userId": userID}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode participant filter: %w", err)
	}
	return sq.Expr("participants @> ?::jsonb", string(doc)), nil
}

// ActiveChallenges lists challenges open at now, featured first, then newest.
func (r *ChallengeRepository) ActiveChallenges(ctx context.Context, now time.Time) ([]*types.Challenge, error) {
	return r.selectChallenges(ctx, psql().
		Select(challengeColumns...).
		From(challengeTableName).
		Where(openAt(now)).
		OrderBy("featured desc", "created_at desc"))
}

func (r *ChallengeRepository) ChallengesByUser(ctx context.Context, userID string) ([]*types.Challenge, error) {
	participant, err := hasParticipant(userID)
	if err != nil {
		return nil, err
	}

	return r.selectChallenges(ctx, psql().
		Select(challengeColumns...).
		From(challengeTableName).
		Where(participant).
		OrderBy("end_date asc"))
}

func (r *ChallengeRepository) OpenChallengesForUser(ctx context.Context, userID string, now time.Time) ([]*types.Challenge, error) {
	participant, err := hasParticipant(userID)
	if err != nil {
		return nil, err
	}

	return r.selectChallenges(ctx, psql().
		Select(challengeColumns...).
		From(challengeTableName).
		Where(openAt(now)).
		Where(participant).
		OrderBy("created_at asc"))
}

// UpdateChallenge writes the challenge state back. Callers hold the
// challenge's lock for the whole read-modify-write.
func (r *ChallengeRepository) UpdateChallenge(ctx context.Context, challenge *types.Challenge) error {
	challenge.UpdatedAt = time.Now()

	values := utils.StructToMap(challenge)
	delete(values, "id")
	delete(values, "created_at")

	query, args, err := psql().
		Update(challengeTableName).
		SetMap(values).
		Where(sq.Eq{"id": challenge.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update challenge query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrChallengeNotFound
	}

	return nil
}

// UpsertChallenge inserts a challenge or refreshes its descriptive fields.
// Participation and progress of an existing challenge are left alone.
func (r *ChallengeRepository) UpsertChallenge(ctx context.Context, challenge *types.Challenge) error {
	now := time.Now()
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = now
	}
	challenge.UpdatedAt = now

	query, args, err := psql().
		Insert(challengeTableName).
		SetMap(utils.StructToMap(challenge)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			reward = EXCLUDED.reward,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			rules = EXCLUDED.rules,
			eligibility = EXCLUDED.eligibility,
			area = EXCLUDED.area,
			featured = EXCLUDED.featured,
			image = EXCLUDED.image,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert challenge query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert challenge: %w", err)
	}

	return nil
}
