package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertAIRequest records a pending generation attempt.
func (r *PostgresRepository) InsertAIRequest(ctx context.Context, req AIRequest) (*AIRequest, error) {
	q := `
INSERT INTO ai_requests (mission_id, context, tone, quantity, platform, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + aiRequestColumns + `;`
	saved, err := scanAIRequest(r.pool.QueryRow(ctx, q,
		req.MissionID,
		req.Context,
		req.Tone,
		req.Quantity,
		req.Platform,
		AIRequestPending,
	), pgTime)
	if err != nil {
		return nil, fmt.Errorf("insert ai request: %w", err)
	}
	return &saved, nil
}

// CompleteAIRequest marks an attempt completed with the number of tasks written.
func (r *PostgresRepository) CompleteAIRequest(ctx context.Context, id string, generated int) error {
	const q = `
UPDATE ai_requests
SET status = $2, generated_count = $3, error = NULL, updated_at = NOW()
WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, q, id, AIRequestCompleted, generated)
	if err != nil {
		return fmt.Errorf("complete ai request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("complete ai request %s: %w", id, ErrNotFound)
	}
	return nil
}

// FailAIRequest marks an attempt failed with the reason.
func (r *PostgresRepository) FailAIRequest(ctx context.Context, id, reason string) error {
	return r.closeAIRequest(ctx, id, AIRequestFailed, reason)
}

// SkipAIRequest marks an attempt that no generator was configured to serve.
func (r *PostgresRepository) SkipAIRequest(ctx context.Context, id, reason string) error {
	return r.closeAIRequest(ctx, id, AIRequestDisabled, reason)
}

func (r *PostgresRepository) closeAIRequest(ctx context.Context, id, status, reason string) error {
	const q = `
UPDATE ai_requests
SET status = $2, error = $3, updated_at = NOW()
WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, q, id, status, reason)
	if err != nil {
		return fmt.Errorf("mark ai request %s: %w", status, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("mark ai request %s %s: %w", id, status, ErrNotFound)
	}
	return nil
}

// ListAIRequests returns every attempt made for a mission, oldest first.
func (r *PostgresRepository) ListAIRequests(ctx context.Context, missionID string) ([]AIRequest, error) {
	q := `SELECT ` + aiRequestColumns + ` FROM ai_requests WHERE mission_id = $1 ORDER BY created_at ASC;`
	rows, err := r.pool.Query(ctx, q, missionID)
	if err != nil {
		return nil, fmt.Errorf("list ai requests: %w", err)
	}
	defer rows.Close()

	var out []AIRequest
	for rows.Next() {
		req, err := scanAIRequest(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan ai request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ai requests: %w", err)
	}
	return out, nil
}

// InsertMissionTasks stores generated contents as available tasks.
func (r *PostgresRepository) InsertMissionTasks(ctx context.Context, missionID string, contents []string) (int, error) {
	if len(contents) == 0 {
		return 0, nil
	}
	inserted := 0
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range contents {
			batch.Queue(`INSERT INTO mission_tasks (mission_id, content, status) VALUES ($1, $2, $3)`, missionID, c, TaskAvailable)
		}
		results := tx.SendBatch(ctx, batch)
		for range contents {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("insert mission task: %w", err)
			}
			inserted++
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListMissionTasks returns the generated tasks of a mission.
func (r *PostgresRepository) ListMissionTasks(ctx context.Context, missionID string) ([]MissionTask, error) {
	q := `SELECT ` + taskColumns + ` FROM mission_tasks WHERE mission_id = $1 ORDER BY created_at ASC;`
	rows, err := r.pool.Query(ctx, q, missionID)
	if err != nil {
		return nil, fmt.Errorf("list mission tasks: %w", err)
	}
	defer rows.Close()

	var out []MissionTask
	for rows.Next() {
		t, err := scanTask(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan mission task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mission tasks: %w", err)
	}
	return out, nil
}
