package store

import (
	"context"
	"fmt"
	"greentrack/internal/utils"
	"greentrack/pkg/types"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = types.UserRoleCitizen
	}
	if user.Level == 0 {
		user.Level = 1
	}

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpdateProgression writes the points, level, scan count and streak fields.
func (r *UserRepository) UpdateProgression(ctx context.Context, user *types.User) error {
	user.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(userTableName).
		SetMap(map[string]any{
			"eco_points":            user.EcoPoints,
			"level":                 user.Level,
			"total_scans":           user.TotalScans,
			"streak_current":        user.Streak.Current,
			"streak_longest":        user.Streak.Longest,
			"streak_last_scan_date": user.Streak.LastScanDate,
			"updated_at":            user.UpdatedAt,
		}).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update progression query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user progression: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpsertIdentity(ctx context.Context, userID, email, givenName, familyName string) error {
	now := time.Now()

	query, args, err := psql().
		Insert(userTableName).
		Columns("id", "email", "given_name", "family_name", "role", "level", "created_at", "updated_at").
		Values(userID, trimmedOrNil(email), trimmedOrNil(givenName), trimmedOrNil(familyName), types.UserRoleCitizen, 1, now, now).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			given_name = COALESCE(EXCLUDED.given_name, users.given_name),
			family_name = COALESCE(EXCLUDED.family_name, users.family_name),
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert identity user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert user identity fields: %w", err)
	}

	return nil
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
