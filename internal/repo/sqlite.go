package repo

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"misicuan-admin/internal/mission"
)

// SQLiteRepository provides access to a local SQLite database.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLite opens a new connection to the SQLite database.
func NewSQLite(ctx context.Context, databasePath string, logger *slog.Logger) (*SQLiteRepository, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; transactions below never touch r.db directly.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.With("component", "repo_sqlite"),
	}, nil
}

// Close releases the database connection.
func (r *SQLiteRepository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Ping ensures the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations applies the sqlite migrations of filesystem.
func (r *SQLiteRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return applySQLiteMigrations(ctx, r.db, filesystem)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func randomUUID() string {
	return uuid.NewString()
}

// -- Packages --

func (r *SQLiteRepository) ListPackages(ctx context.Context) ([]mission.Package, error) {
	q := `SELECT ` + packageColumns + ` FROM packages ORDER BY order_index ASC, name ASC;`
	rows, err := r.db.QueryContext(ctx, q)
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

func (r *SQLiteRepository) UpsertPackage(ctx context.Context, pkg mission.Package) (*mission.Package, error) {
	features, err := featuresJSON(pkg.Features)
	if err != nil {
		return nil, err
	}
	id := pkg.ID
	if id == "" {
		id = randomUUID()
	}
	now := sqliteNow()
	q := `
INSERT INTO packages (id, name, category, sub_category, price, features, default_quota, is_best_value, is_decoy, order_index, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    category = excluded.category,
    sub_category = excluded.sub_category,
    price = excluded.price,
    features = excluded.features,
    default_quota = excluded.default_quota,
    is_best_value = excluded.is_best_value,
    is_decoy = excluded.is_decoy,
    order_index = excluded.order_index,
    updated_at = excluded.updated_at
RETURNING ` + packageColumns + `;`
	row := r.db.QueryRowContext(ctx, q,
		id, pkg.Name, pkg.Category, pkg.SubCategory, pkg.Price, features,
		pkg.DefaultQuota, pkg.IsBestValue, pkg.IsDecoy, pkg.OrderIndex, now, now,
	)
	saved, err := scanPackage(row)
	if err != nil {
		return nil, fmt.Errorf("upsert package: %w", err)
	}
	return &saved, nil
}

// -- Orders --

func (r *SQLiteRepository) InsertOrder(ctx context.Context, order mission.Order) (*mission.Order, error) {
	instr, err := instructionsParam(order.UserInstructions)
	if err != nil {
		return nil, err
	}
	if order.Status == "" {
		order.Status = mission.OrderPending
	}
	now := sqliteNow()
	q := `
INSERT INTO orders (id, client_name, client_whatsapp, package_name, social_link, note, total_price, status, user_instructions, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + orderColumns + `;`
	row := r.db.QueryRowContext(ctx, q,
		randomUUID(), order.ClientName, order.ClientWhatsapp, order.PackageName, order.SocialLink,
		nullString(order.Note), order.TotalPrice, order.Status, instr, now, now,
	)
	inserted, err := scanOrder(row, sqliteTS)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &inserted, nil
}

func (r *SQLiteRepository) GetOrder(ctx context.Context, id string) (*mission.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? LIMIT 1;`
	order, err := scanOrder(r.db.QueryRowContext(ctx, q, id), sqliteTS)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", notFound(err))
	}
	return &order, nil
}

func (r *SQLiteRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]mission.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE (? = '' OR status = ?)
ORDER BY created_at DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, filter.Status, filter.Status, limitOrDefault(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []mission.Order
	for rows.Next() {
		o, err := scanOrder(rows, sqliteTS)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *SQLiteRepository) UpdateOrderStatus(ctx context.Context, id, from, to string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, to, sqliteNow(), id, from)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}
		var current string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current); err != nil {
			return fmt.Errorf("update order status: %w", notFound(err))
		}
		return fmt.Errorf("update order status %s -> %s (is %s): %w", from, to, current, ErrStatusConflict)
	})
}
