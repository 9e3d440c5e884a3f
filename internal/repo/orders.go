package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"misicuan-admin/internal/mission"
)

// InsertOrder stores a new order record. Status defaults to pending.
func (r *PostgresRepository) InsertOrder(ctx context.Context, order mission.Order) (*mission.Order, error) {
	instr, err := instructionsParam(order.UserInstructions)
	if err != nil {
		return nil, err
	}
	status := order.Status
	if status == "" {
		status = mission.OrderPending
	}
	q := `
INSERT INTO orders (client_name, client_whatsapp, package_name, social_link, note, total_price, status, user_instructions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
RETURNING ` + orderColumns + `;`
	row := r.pool.QueryRow(ctx, q,
		order.ClientName,
		order.ClientWhatsapp,
		order.PackageName,
		order.SocialLink,
		nullString(order.Note),
		order.TotalPrice,
		status,
		instr,
	)
	inserted, err := scanOrder(row, pgTime)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &inserted, nil
}

// GetOrder retrieves an order by id.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*mission.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 LIMIT 1;`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, id), pgTime)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", notFound(err))
	}
	return &order, nil
}

// ListOrders returns the newest orders first, optionally filtered by status.
func (r *PostgresRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]mission.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, filter.Status, limitOrDefault(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []mission.Order
	for rows.Next() {
		o, err := scanOrder(rows, pgTime)
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

// UpdateOrderStatus moves an order from one status to another. It returns
// ErrStatusConflict when the order is not in from.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id, from, to string) error {
	const q = `
UPDATE orders
SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2;`
	ct, err := r.pool.Exec(ctx, q, id, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var current string
	if err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current); err != nil {
		return fmt.Errorf("update order status: %w", notFound(err))
	}
	return fmt.Errorf("update order status %s -> %s (is %s): %w", from, to, current, ErrStatusConflict)
}

// InsertMissionsForOrder persists every draft in one transaction. The order
// must still be pending and must not own missions yet.
func (r *PostgresRepository) InsertMissionsForOrder(ctx context.Context, orderID string, drafts []mission.MissionDraft) ([]mission.Mission, error) {
	var created []mission.Mission
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status); err != nil {
			return fmt.Errorf("lock order: %w", notFound(err))
		}
		if status != mission.OrderPending {
			return fmt.Errorf("order is %s: %w", status, ErrStatusConflict)
		}
		var existing int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM missions WHERE order_id = $1`, orderID).Scan(&existing); err != nil {
			return fmt.Errorf("count missions: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%d missions: %w", existing, ErrDuplicateMissions)
		}

		const q = `
INSERT INTO missions (order_id, package_id, title, platform, type, action_label, quota, reward, link, category, is_bonus, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at;`
		for _, d := range drafts {
			m := mission.Mission{MissionDraft: d, Status: mission.MissionActive}
			m.OrderID = orderID
			err := tx.QueryRow(ctx, q,
				orderID,
				nullString(d.PackageID),
				d.Title,
				string(d.Platform),
				string(d.ActionType),
				d.ActionLabel,
				d.Quota,
				d.RewardPerUnit,
				d.Link,
				d.CategoryLabel,
				d.IsBonus,
				m.Status,
			).Scan(&m.ID, &m.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert mission %q: %w", d.ActionLabel, err)
			}
			created = append(created, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetMission retrieves a mission with its submission count.
func (r *PostgresRepository) GetMission(ctx context.Context, id string) (*mission.Mission, error) {
	q := `SELECT ` + missionColumns + ` FROM missions m WHERE m.id = $1 LIMIT 1;`
	m, err := scanMission(r.pool.QueryRow(ctx, q, id), pgTime)
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", notFound(err))
	}
	return &m, nil
}

// ListMissions returns the newest missions first.
func (r *PostgresRepository) ListMissions(ctx context.Context, filter MissionFilter) ([]mission.Mission, error) {
	q := `
SELECT ` + missionColumns + `
FROM missions m
WHERE ($1 = '' OR m.status = $1)
  AND ($2 = '' OR CAST(m.order_id AS TEXT) = $2)
ORDER BY m.created_at DESC
LIMIT $3;`
	rows, err := r.pool.Query(ctx, q, filter.Status, filter.OrderID, limitOrDefault(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var out []mission.Mission
	for rows.Next() {
		m, err := scanMission(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missions: %w", err)
	}
	return out, nil
}

// DeleteMission removes a mission nobody has worked on.
func (r *PostgresRepository) DeleteMission(ctx context.Context, id string) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var taken int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE mission_id = $1`, id).Scan(&taken); err != nil {
			return fmt.Errorf("count submissions: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("delete mission %s: %w", id, ErrMissionHasSubmissions)
		}
		ct, err := tx.Exec(ctx, `DELETE FROM missions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete mission: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("delete mission %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ArchiveMission marks a mission Completed so its history is kept.
func (r *PostgresRepository) ArchiveMission(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE missions SET status = $2 WHERE id = $1`, id, mission.MissionCompleted)
	if err != nil {
		return fmt.Errorf("archive mission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("archive mission %s: %w", id, ErrNotFound)
	}
	return nil
}
