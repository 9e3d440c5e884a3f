package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"misicuan-admin/internal/mission"
)

// PostgresRepository provides typed access to the Supabase (Postgres) tables.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	schema string
}

var _ Repository = (*PostgresRepository)(nil)

// New opens a new connection pool to the database with the desired search_path.
func New(ctx context.Context, databaseURL, schema string, logger *slog.Logger) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	// Supabase's pooler does not keep prepared statements across transactions.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		logger: logger.With("component", "repo"),
		schema: schema,
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes fn within a database transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, fn)
}

// RunMigrations applies schema migrations on the connected database.
func (r *PostgresRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, r.pool, filesystem)
}

// ListPackages returns the catalog in display order.
func (r *PostgresRepository) ListPackages(ctx context.Context) ([]mission.Package, error) {
	q := `SELECT ` + packageColumns + ` FROM packages ORDER BY order_index ASC, name ASC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []mission.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return out, nil
}

// UpsertPackage inserts pkg, or updates it when pkg.ID is already stored.
func (r *PostgresRepository) UpsertPackage(ctx context.Context, pkg mission.Package) (*mission.Package, error) {
	features, err := featuresJSON(pkg.Features)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO packages (id, name, category, sub_category, price, features, default_quota, is_best_value, is_decoy, order_index)
VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    sub_category = EXCLUDED.sub_category,
    price = EXCLUDED.price,
    features = EXCLUDED.features,
    default_quota = EXCLUDED.default_quota,
    is_best_value = EXCLUDED.is_best_value,
    is_decoy = EXCLUDED.is_decoy,
    order_index = EXCLUDED.order_index,
    updated_at = NOW()
RETURNING ` + packageColumns + `;`
	row := r.pool.QueryRow(ctx, q,
		nullString(pkg.ID),
		pkg.Name,
		pkg.Category,
		pkg.SubCategory,
		pkg.Price,
		features,
		pkg.DefaultQuota,
		pkg.IsBestValue,
		pkg.IsDecoy,
		pkg.OrderIndex,
	)
	saved, err := scanPackage(row)
	if err != nil {
		return nil, fmt.Errorf("upsert package: %w", err)
	}
	return &saved, nil
}

// notFound maps the drivers' no-rows errors onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
