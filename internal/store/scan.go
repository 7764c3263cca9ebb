package store

import (
	"context"
	"fmt"
	"greentrack/internal/utils"
	"greentrack/pkg/types"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var scanColumns = utils.StructTagValues(types.Scan{})

type ScanRepository struct {
	pool *pgxpool.Pool
}

func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

func (r *ScanRepository) CreateScan(ctx context.Context, scan *types.Scan) error {
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}
	scan.UpdatedAt = scan.CreatedAt

	query, args, err := psql().
		Insert(scanTableName).
		SetMap(utils.StructToMap(scan)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create scan query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	return nil
}

func (r *ScanRepository) getScan(ctx context.Context, where sq.Eq) (*types.Scan, error) {
	query, args, err := psql().
		Select(scanColumns...).
		From(scanTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate scan query: %w", err)
	}

	var scan = new(types.Scan)
	err = pgxscan.Get(ctx, r.pool, scan, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrScanNotFound
		}
		return nil, fmt.Errorf("failed to fetch scan: %w", err)
	}

	return scan, nil
}

func (r *ScanRepository) Scan(ctx context.Context, scanID string) (*types.Scan, error) {
	return r.getScan(ctx, sq.Eq{"id": scanID})
}

func (r *ScanRepository) ScanByUser(ctx context.Context, userID, scanID string) (*types.Scan, error) {
	return r.getScan(ctx, sq.Eq{"id": scanID, "user_id": userID})
}

// ScansByUser returns the requested page, newest first, with the total number
// of scans matching the filter.
func (r *ScanRepository) ScansByUser(ctx context.Context, filter types.ScanFilter) ([]*types.Scan, int, error) {
	where := sq.Eq{"user_id": filter.UserID}
	if filter.WasteType != nil {
		where["primary_waste_type"] = *filter.WasteType
	}
	if filter.Verified != nil {
		where["verified"] = *filter.Verified
	}

	query, args, err := psql().
		Select(scanColumns...).
		From(scanTableName).
		Where(where).
		OrderBy("created_at desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate scans query: %w", err)
	}

	var scans = make([]*types.Scan, 0)
	err = pgxscan.Select(ctx, r.pool, &scans, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch scans: %w", err)
	}

	query, args, err = psql().
		Select("count(*)").
		From(scanTableName).
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate scan count query: %w", err)
	}

	var total int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count scans: %w", err)
	}

	return scans, total, nil
}

func (r *ScanRepository) update(ctx context.Context, scanID string, values map[string]any) error {
	values["updated_at"] = time.Now()

	query, args, err := psql().
		Update(scanTableName).
		SetMap(values).
		Where(sq.Eq{"id": scanID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update scan query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrScanNotFound
	}

	return nil
}

func (r *ScanRepository) UpdateChallengeContributions(ctx context.Context, scanID string, contributions []types.ChallengeUpdate) error {
	return r.update(ctx, scanID, map[string]any{"challenge_contributions": contributions})
}

func (r *ScanRepository) ReportIssue(ctx context.Context, scanID string, report *types.ScanReport) error {
	return r.update(ctx, scanID, map[string]any{"reported_issue": report})
}

func (r *ScanRepository) DeleteScan(ctx context.Context, scanID string) error {
	query, args, err := psql().
		Delete(scanTableName).
		Where(sq.Eq{"id": scanID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete scan query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrScanNotFound
	}

	return nil
}

// Statistics aggregates a user's scans created at or after since. A nil since
// covers every scan.
func (r *ScanRepository) Statistics(ctx context.Context, userID string, since *time.Time) (*types.ScanStatistics, error) {
	builder := psql().
		Select(
			"count(*) as total_scans",
			"coalesce(sum(points_earned), 0) as total_points",
			"coalesce(round(avg(overall_confidence)::numeric, 2), 0)::float8 as average_confidence",
			"coalesce(round(100.0 * count(*) filter (where verified) / nullif(count(*), 0), 2), 0)::float8 as verification_rate",
			"coalesce(array_agg(primary_waste_type::text order by created_at) filter (where primary_waste_type is not null), '{}') as waste_type_breakdown",
		).
		From(scanTableName).
		Where(sq.Eq{"user_id": userID})

	if since != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate scan statistics query: %w", err)
	}

	var stats = new(types.ScanStatistics)
	err = pgxscan.Get(ctx, r.pool, stats, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scan statistics: %w", err)
	}

	return stats, nil
}

// Leaderboard ranks users by points earned from scans created at or after since.
func (r *ScanRepository) Leaderboard(ctx context.Context, since *time.Time, limit uint64) ([]*types.LeaderboardUser, error) {
	builder := psql().
		Select(
			"s.user_id",
			"u.given_name",
			"u.family_name",
			"count(*) as total_scans",
			"sum(s.points_earned) as total_points",
			"round(avg(s.overall_confidence)::numeric, 2)::float8 as average_confidence",
		).
		From(scanTableName+" s").
		Join(userTableName+" u on u.id = s.user_id").
		GroupBy("s.user_id", "u.given_name", "u.family_name").
		OrderBy("total_points desc", "s.user_id").
		Limit(limit)

	if since != nil {
		builder = builder.Where(sq.GtOrEq{"s.created_at": *since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate leaderboard query: %w", err)
	}

	var rows = make([]*types.LeaderboardUser, 0)
	err = pgxscan.Select(ctx, r.pool, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	return rows, nil
}
