package repo

import (
	"context"
	"database/sql"
	"fmt"

	"misicuan-admin/internal/mission"
)

// -- Missions --

func (r *SQLiteRepository) InsertMissionsForOrder(ctx context.Context, orderID string, drafts []mission.MissionDraft) ([]mission.Mission, error) {
	var created []mission.Mission
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, orderID).Scan(&status); err != nil {
			return fmt.Errorf("lock order: %w", notFound(err))
		}
		if status != mission.OrderPending {
			return fmt.Errorf("order is %s: %w", status, ErrStatusConflict)
		}
		var existing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM missions WHERE order_id = ?`, orderID).Scan(&existing); err != nil {
			return fmt.Errorf("count missions: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%d missions: %w", existing, ErrDuplicateMissions)
		}

		const q = `
INSERT INTO missions (id, order_id, package_id, title, platform, type, action_label, quota, reward, link, category, is_bonus, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING created_at;`
		for _, d := range drafts {
			m := mission.Mission{MissionDraft: d, ID: randomUUID(), Status: mission.MissionActive}
			m.OrderID = orderID
			err := tx.QueryRowContext(ctx, q,
				m.ID, orderID, nullString(d.PackageID), d.Title, string(d.Platform), string(d.ActionType),
				d.ActionLabel, d.Quota, d.RewardPerUnit, d.Link, d.CategoryLabel, d.IsBonus, m.Status, sqliteNow(),
			).Scan(sqliteTS(&m.CreatedAt))
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

func (r *SQLiteRepository) GetMission(ctx context.Context, id string) (*mission.Mission, error) {
	q := `SELECT ` + missionColumns + ` FROM missions m WHERE m.id = ? LIMIT 1;`
	m, err := scanMission(r.db.QueryRowContext(ctx, q, id), sqliteTS)
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", notFound(err))
	}
	return &m, nil
}

func (r *SQLiteRepository) ListMissions(ctx context.Context, filter MissionFilter) ([]mission.Mission, error) {
	q := `
SELECT ` + missionColumns + `
FROM missions m
WHERE (? = '' OR m.status = ?)
  AND (? = '' OR m.order_id = ?)
ORDER BY m.created_at DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, filter.Status, filter.Status, filter.OrderID, filter.OrderID, limitOrDefault(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var out []mission.Mission
	for rows.Next() {
		m, err := scanMission(rows, sqliteTS)
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

func (r *SQLiteRepository) DeleteMission(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var taken int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE mission_id = ?`, id).Scan(&taken); err != nil {
			return fmt.Errorf("count submissions: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("delete mission %s: %w", id, ErrMissionHasSubmissions)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM missions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete mission: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete mission %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (r *SQLiteRepository) ArchiveMission(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE missions SET status = ? WHERE id = ?`, mission.MissionCompleted, id)
	if err != nil {
		return fmt.Errorf("archive mission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("archive mission %s: %w", id, ErrNotFound)
	}
	return nil
}

// -- AI content --

func (r *SQLiteRepository) InsertAIRequest(ctx context.Context, req AIRequest) (*AIRequest, error) {
	now := sqliteNow()
	q := `
INSERT INTO ai_requests (id, mission_id, context, tone, quantity, platform, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + aiRequestColumns + `;`
	saved, err := scanAIRequest(r.db.QueryRowContext(ctx, q,
		randomUUID(), req.MissionID, req.Context, req.Tone, req.Quantity, req.Platform, AIRequestPending, now, now,
	), sqliteTS)
	if err != nil {
		return nil, fmt.Errorf("insert ai request: %w", err)
	}
	return &saved, nil
}

func (r *SQLiteRepository) CompleteAIRequest(ctx context.Context, id string, generated int) error {
	const q = `UPDATE ai_requests SET status = ?, generated_count = ?, error = NULL, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, AIRequestCompleted, generated, sqliteNow(), id)
	if err != nil {
		return fmt.Errorf("complete ai request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete ai request %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) FailAIRequest(ctx context.Context, id, reason string) error {
	return r.closeAIRequest(ctx, id, AIRequestFailed, reason)
}

func (r *SQLiteRepository) SkipAIRequest(ctx context.Context, id, reason string) error {
	return r.closeAIRequest(ctx, id, AIRequestDisabled, reason)
}

func (r *SQLiteRepository) closeAIRequest(ctx context.Context, id, status, reason string) error {
	const q = `UPDATE ai_requests SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, reason, sqliteNow(), id)
	if err != nil {
		return fmt.Errorf("mark ai request %s: %w", status, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark ai request %s %s: %w", id, status, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListAIRequests(ctx context.Context, missionID string) ([]AIRequest, error) {
	q := `SELECT ` + aiRequestColumns + ` FROM ai_requests WHERE mission_id = ? ORDER BY created_at ASC;`
	rows, err := r.db.QueryContext(ctx, q, missionID)
	if err != nil {
		return nil, fmt.Errorf("list ai requests: %w", err)
	}
	defer rows.Close()

	var out []AIRequest
	for rows.Next() {
		req, err := scanAIRequest(rows, sqliteTS)
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

func (r *SQLiteRepository) InsertMissionTasks(ctx context.Context, missionID string, contents []string) (int, error) {
	if len(contents) == 0 {
		return 0, nil
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO mission_tasks (id, mission_id, content, status, created_at) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare mission task: %w", err)
		}
		defer stmt.Close()
		for _, c := range contents {
			if _, err := stmt.ExecContext(ctx, randomUUID(), missionID, c, TaskAvailable, sqliteNow()); err != nil {
				return fmt.Errorf("insert mission task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(contents), nil
}

func (r *SQLiteRepository) ListMissionTasks(ctx context.Context, missionID string) ([]MissionTask, error) {
	q := `SELECT ` + taskColumns + ` FROM mission_tasks WHERE mission_id = ? ORDER BY created_at ASC;`
	rows, err := r.db.QueryContext(ctx, q, missionID)
	if err != nil {
		return nil, fmt.Errorf("list mission tasks: %w", err)
	}
	defer rows.Close()

	var out []MissionTask
	for rows.Next() {
		t, err := scanTask(rows, sqliteTS)
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

// -- Submissions --

func (r *SQLiteRepository) InsertSubmission(ctx context.Context, sub Submission) (*Submission, error) {
	if sub.Status == "" {
		sub.Status = SubmissionPending
	}
	q := `
INSERT INTO submissions (id, mission_id, user_id, proof_url, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + submissionColumns + `;`
	saved, err := scanSubmission(r.db.QueryRowContext(ctx, q,
		randomUUID(), sub.MissionID, sub.UserID, sub.ProofURL, sub.Status, sqliteNow(),
	), sqliteTS)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return &saved, nil
}

func (r *SQLiteRepository) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ? LIMIT 1;`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, q, id), sqliteTS)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", notFound(err))
	}
	return &sub, nil
}

func (r *SQLiteRepository) ApproveSubmission(ctx context.Context, id string) (*Approval, error) {
	var out Approval
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		sub, err := pendingSubmissionTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE submissions SET status = ? WHERE id = ?`, SubmissionApproved, id); err != nil {
			return fmt.Errorf("approve submission: %w", err)
		}
		sub.Status = SubmissionApproved
		out.Submission = sub

		var quota int
		if err := tx.QueryRowContext(ctx, `SELECT title, reward, quota FROM missions WHERE id = ?`, sub.MissionID).
			Scan(&out.MissionTitle, &out.Reward, &quota); err != nil {
			return fmt.Errorf("get mission: %w", notFound(err))
		}

		const credit = `
INSERT INTO profiles (id, balance, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    balance = profiles.balance + excluded.balance,
    updated_at = excluded.updated_at
RETURNING balance;`
		if err := tx.QueryRowContext(ctx, credit, sub.UserID, out.Reward, sqliteNow()).Scan(&out.Balance); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		out.RemainingQuota = quota
		if quota > 0 {
			out.RemainingQuota = quota - 1
			status := mission.MissionActive
			if out.RemainingQuota == 0 {
				status = mission.MissionCompleted
				out.MissionCompleted = true
			}
			if _, err := tx.ExecContext(ctx, `UPDATE missions SET quota = ?, status = ? WHERE id = ?`, out.RemainingQuota, status, sub.MissionID); err != nil {
				return fmt.Errorf("update mission quota: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SQLiteRepository) RejectSubmission(ctx context.Context, id string) (*Rejection, error) {
	var out Rejection
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		sub, err := pendingSubmissionTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE submissions SET status = ? WHERE id = ?`, SubmissionRejected, id); err != nil {
			return fmt.Errorf("reject submission: %w", err)
		}
		sub.Status = SubmissionRejected
		out.Submission = sub
		if err := tx.QueryRowContext(ctx, `SELECT title FROM missions WHERE id = ?`, sub.MissionID).Scan(&out.MissionTitle); err != nil {
			return fmt.Errorf("get mission title: %w", notFound(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func pendingSubmissionTx(ctx context.Context, tx *sql.Tx, id string) (Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?;`
	sub, err := scanSubmission(tx.QueryRowContext(ctx, q, id), sqliteTS)
	if err != nil {
		return sub, fmt.Errorf("get submission: %w", notFound(err))
	}
	if sub.Status != SubmissionPending {
		return sub, fmt.Errorf("submission is %s: %w", sub.Status, ErrStatusConflict)
	}
	return sub, nil
}

// -- Profiles and notifications --

func (r *SQLiteRepository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	const q = `SELECT id, username, balance, updated_at FROM profiles WHERE id = ? LIMIT 1;`
	var p Profile
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Username, &p.Balance, sqliteTS(&p.UpdatedAt)); err != nil {
		return nil, fmt.Errorf("get profile: %w", notFound(err))
	}
	return &p, nil
}

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n Notification) error {
	const q = `
INSERT INTO user_notifications (id, user_id, type, mission_id, message, created_at)
VALUES (?, ?, ?, ?, ?, ?);`
	if _, err := r.db.ExecContext(ctx, q, randomUUID(), n.UserID, n.Type, n.MissionID, n.Message, sqliteNow()); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	q := `
SELECT ` + notifyColumns + `
FROM user_notifications
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, userID, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows, sqliteTS)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
